package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/neurolocus/internal/knowledge"
	"github.com/ppiankov/neurolocus/internal/model"
)

const (
	// DefaultWindowChars is the side-resolution window on each side of a match
	DefaultWindowChars = 30

	identityConfidence = 1.0
	triggerConfidence  = 0.8
)

// Extraction is the output of one extractor pass over a text
type Extraction struct {
	CranialNerves []model.NerveFinding
	Tracts        []model.TractFinding
	Additional    []model.SignFinding
	Laterality    model.Laterality
}

// FindingExtractor scans clinical text for Knowledge Base findings.
// It is immutable after construction and safe for concurrent use.
type FindingExtractor struct {
	nerves         []defMatcher
	tracts         []defMatcher
	signs          []defMatcher
	nerveDefs      []model.CranialNerveDef
	tractDefs      []model.TractDef
	signDefs       []model.AdditionalSignDef
	window         int
	allOccurrences bool
}

// defMatcher holds the compiled patterns for one definition
type defMatcher struct {
	identity []*regexp.Regexp
	triggers []string
}

// occurrence is one place in the text where a definition was recognized
type occurrence struct {
	offset     int
	confidence float64
	heuristic  string
}

// NewFindingExtractor compiles matchers for every definition in kb
func NewFindingExtractor(kb *knowledge.Base, cfg model.ExtractionConfig) *FindingExtractor {
	window := cfg.WindowChars
	if window <= 0 {
		window = DefaultWindowChars
	}

	e := &FindingExtractor{
		nerveDefs:      kb.CranialNerves(),
		tractDefs:      kb.Tracts(),
		signDefs:       kb.Signs(),
		window:         window,
		allOccurrences: cfg.AllOccurrences,
	}

	for _, n := range e.nerveDefs {
		e.nerves = append(e.nerves, defMatcher{
			identity: compileAll(nerveIdentityPattern(n.ID), wordPattern(n.Name)),
			triggers: lowerAll(n.Triggers),
		})
	}
	for _, t := range e.tractDefs {
		e.tracts = append(e.tracts, defMatcher{
			identity: compileAll(wordPattern(t.ID), wordPattern(t.Name)),
			triggers: lowerAll(t.Triggers),
		})
	}
	for _, s := range e.signDefs {
		e.signs = append(e.signs, defMatcher{
			identity: compileAll(wordPattern(s.ID), wordPattern(s.Name)),
			triggers: lowerAll(s.Triggers),
		})
	}
	return e
}

// Extract finds every cranial nerve, tract and additional sign mentioned in text.
// It never fails; text with nothing recognizable yields empty lists.
func (e *FindingExtractor) Extract(text string) *Extraction {
	out := &Extraction{
		CranialNerves: []model.NerveFinding{},
		Tracts:        []model.TractFinding{},
		Additional:    []model.SignFinding{},
		Laterality: model.Laterality{
			Left:      []string{},
			Right:     []string{},
			Bilateral: []string{},
		},
	}

	normalized := strings.ToLower(text)
	if strings.TrimSpace(normalized) == "" {
		return out
	}
	track := TrackLaterality(Tokenize(normalized))

	for i, m := range e.nerves {
		def := e.nerveDefs[i]
		for _, f := range e.resolve(m, def.Name, normalized, track) {
			out.CranialNerves = append(out.CranialNerves, model.NerveFinding{CN: def.ID, Level: def.Level, Finding: f})
			out.Laterality.Add(f.Side, def.ID)
		}
	}
	for i, m := range e.tracts {
		def := e.tractDefs[i]
		for _, f := range e.resolve(m, def.Name, normalized, track) {
			out.Tracts = append(out.Tracts, model.TractFinding{Tract: def.ID, Category: def.Category, Finding: f})
			out.Laterality.Add(f.Side, def.ID)
		}
	}
	for i, m := range e.signs {
		def := e.signDefs[i]
		for _, f := range e.resolve(m, def.Name, normalized, track) {
			out.Additional = append(out.Additional, model.SignFinding{Sign: def.ID, Finding: f})
			out.Laterality.Add(f.Side, def.ID)
		}
	}
	return out
}

// resolve turns the occurrences of one definition into findings.
// In first-occurrence mode at most one finding is produced; otherwise one per distinct side.
func (e *FindingExtractor) resolve(m defMatcher, name, text string, track *LateralityTrack) []model.Finding {
	if !e.allOccurrences {
		occ, ok := firstOccurrence(m, text)
		if !ok {
			return nil
		}
		return []model.Finding{e.finding(occ, name, track)}
	}

	var findings []model.Finding
	seen := make(map[model.Side]bool)
	for _, occ := range allOccurrences(m, text) {
		f := e.finding(occ, name, track)
		if seen[f.Side] {
			continue
		}
		seen[f.Side] = true
		findings = append(findings, f)
	}
	return findings
}

func (e *FindingExtractor) finding(occ occurrence, name string, track *LateralityTrack) model.Finding {
	return model.Finding{
		Name:       name,
		Side:       e.sideAt(occ.offset, track),
		Confidence: model.ClampUnit(occ.confidence),
		Heuristic:  occ.heuristic,
		Offset:     occ.offset,
	}
}

// sideAt resolves the body side for a match at offset.
// Order: nearest left/right inside the window, an earlier "bilateral", the running context.
func (e *FindingExtractor) sideAt(offset int, track *LateralityTrack) model.Side {
	if side, ok := track.Nearest(offset, e.window); ok {
		return side
	}
	if track.BilateralBefore(offset) {
		return model.SideBilateral
	}
	return track.ContextAt(offset)
}

// firstOccurrence prefers the earliest identity match and falls back to the earliest trigger
func firstOccurrence(m defMatcher, text string) (occurrence, bool) {
	best := occurrence{offset: -1}
	for _, re := range m.identity {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if best.offset < 0 || loc[0] < best.offset {
			best = occurrence{offset: loc[0], confidence: identityConfidence, heuristic: "identity:" + text[loc[0]:loc[1]]}
		}
	}
	if best.offset >= 0 {
		return best, true
	}

	for _, trigger := range m.triggers {
		idx := strings.Index(text, trigger)
		if idx < 0 {
			continue
		}
		if best.offset < 0 || idx < best.offset {
			best = occurrence{offset: idx, confidence: triggerConfidence, heuristic: "trigger:" + trigger}
		}
	}
	return best, best.offset >= 0
}

// allOccurrences lists every identity and trigger match in text order.
// At equal offsets an identity match sorts before a trigger match.
func allOccurrences(m defMatcher, text string) []occurrence {
	var occs []occurrence
	for _, re := range m.identity {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			occs = append(occs, occurrence{offset: loc[0], confidence: identityConfidence, heuristic: "identity:" + text[loc[0]:loc[1]]})
		}
	}
	for _, trigger := range m.triggers {
		for from := 0; from < len(text); {
			idx := strings.Index(text[from:], trigger)
			if idx < 0 {
				break
			}
			occs = append(occs, occurrence{offset: from + idx, confidence: triggerConfidence, heuristic: "trigger:" + trigger})
			from += idx + len(trigger)
		}
	}
	sort.SliceStable(occs, func(i, j int) bool {
		if occs[i].offset != occs[j].offset {
			return occs[i].offset < occs[j].offset
		}
		return occs[i].confidence > occs[j].confidence
	})
	return occs
}

// prefixOnlyNumerals are numerals that bare are ordinary words or
// abbreviations ("i", "iv fluids", "type ii").
var prefixOnlyNumerals = map[string]bool{"i": true, "ii": true, "iv": true, "v": true, "x": true}

// nerveIdentityPattern matches "cn vi", "cnvi" and the bare numeral "vi".
// Numerals in prefixOnlyNumerals need the prefix.
func nerveIdentityPattern(id string) string {
	lower := strings.ToLower(strings.TrimSpace(id))
	numeral := strings.TrimSpace(strings.TrimPrefix(lower, "cn"))
	if numeral == lower || numeral == "" {
		return wordPattern(id)
	}
	if prefixOnlyNumerals[numeral] {
		return `\bcn\s*` + regexp.QuoteMeta(numeral) + `\b`
	}
	return `\b(?:cn\s*)?` + regexp.QuoteMeta(numeral) + `\b`
}

// wordPattern matches phrase as whole words, case-insensitively after normalization
func wordPattern(phrase string) string {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return ""
	}
	fields := strings.Fields(phrase)
	for i, f := range fields {
		fields[i] = regexp.QuoteMeta(f)
	}
	return `\b` + strings.Join(fields, `\s+`) + `\b`
}

func compileAll(patterns ...string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		if p == "" {
			continue
		}
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

func lowerAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
