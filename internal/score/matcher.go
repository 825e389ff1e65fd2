package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/neurolocus/internal/knowledge"
	"github.com/ppiankov/neurolocus/internal/model"
)

// MatchThreshold is the minimum match score for a best-match syndrome
const MatchThreshold = 0.6

// FindingSet maps a finding id to every side it was detected on
type FindingSet map[string][]model.Side

// NewFindingSet indexes the three finding lists by id
func NewFindingSet(nerves []model.NerveFinding, tracts []model.TractFinding, signs []model.SignFinding) FindingSet {
	set := make(FindingSet)
	for _, f := range nerves {
		set[f.CN] = append(set[f.CN], f.Side)
	}
	for _, f := range tracts {
		set[f.Tract] = append(set[f.Tract], f.Side)
	}
	for _, f := range signs {
		set[f.Sign] = append(set[f.Sign], f.Side)
	}
	return set
}

// SyndromeScore is the match of one syndrome against a finding set
type SyndromeScore struct {
	Syndrome    model.SyndromeDef
	Matched     int
	Required    int
	MatchedTags []string
	Score       float64
	LesionSide  model.Side // only resolved in strict laterality mode
}

// Matcher scores every Knowledge Base syndrome against detected findings
type Matcher struct {
	syndromes []model.SyndromeDef
	strict    bool
}

// NewMatcher creates a matcher over the syndromes of kb
func NewMatcher(kb *knowledge.Base, cfg model.MatchingConfig) *Matcher {
	return &Matcher{
		syndromes: kb.Syndromes(),
		strict:    cfg.StrictLaterality,
	}
}

// Score returns one SyndromeScore per syndrome, in Knowledge Base order.
// A tag is satisfied when any of its referenced findings is present. In
// strict laterality mode the finding must also sit on the side its role implies.
func (m *Matcher) Score(set FindingSet) []SyndromeScore {
	scores := make([]SyndromeScore, 0, len(m.syndromes))
	for _, syn := range m.syndromes {
		sc := SyndromeScore{
			Syndrome:    syn,
			Required:    len(syn.Findings),
			MatchedTags: []string{},
			LesionSide:  model.SideUnknown,
		}
		if m.strict {
			sc.LesionSide = lesionSide(syn, set)
		}

		for _, tag := range syn.Findings {
			if !tagSatisfied(tag, set, sc.LesionSide) {
				continue
			}
			sc.Matched++
			sc.MatchedTags = append(sc.MatchedTags, tagLabel(tag))
		}
		if sc.Required > 0 {
			sc.Score = model.ClampUnit(float64(sc.Matched) / float64(sc.Required))
		}
		scores = append(scores, sc)
	}
	return scores
}

// Best picks the highest score at or above MatchThreshold.
// Ties keep the first-declared syndrome.
func Best(scores []SyndromeScore) (*model.SyndromeMatch, model.Signal) {
	bestIdx := -1
	for i, sc := range scores {
		if bestIdx < 0 || sc.Score > scores[bestIdx].Score {
			bestIdx = i
		}
	}

	if bestIdx < 0 || scores[bestIdx].Score < MatchThreshold {
		data := map[string]interface{}{
			"threshold": MatchThreshold,
			"formula":   "matched_tags / required_tags",
		}
		if bestIdx >= 0 {
			data["top_candidate"] = scores[bestIdx].Syndrome.Name
			data["top_score"] = scores[bestIdx].Score
		}
		return nil, model.Signal{
			Type:        model.SignalSyndromeMatch,
			Severity:    model.SeverityInfo,
			Description: "No syndrome reached the match threshold",
			Data:        data,
		}
	}

	sc := scores[bestIdx]
	match := &model.SyndromeMatch{
		SyndromeDef: sc.Syndrome,
		MatchScore:  sc.Score,
		Matched:     sc.Matched,
		Required:    sc.Required,
		MatchedTags: append([]string{}, sc.MatchedTags...),
	}
	return match, model.Signal{
		Type:        model.SignalSyndromeMatch,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("%s matched %d/%d required findings", sc.Syndrome.Name, sc.Matched, sc.Required),
		Data: map[string]interface{}{
			"syndrome":     sc.Syndrome.Name,
			"matched":      sc.Matched,
			"required":     sc.Required,
			"matched_tags": sc.MatchedTags,
			"score":        sc.Score,
			"threshold":    MatchThreshold,
			"lesion_side":  sc.LesionSide,
			"formula":      "matched_tags / required_tags",
		},
	}
}

// lesionSide is the side of the first ipsi tag found on a single side,
// or the opposite of the first such contra tag when no ipsi tag qualifies
func lesionSide(syn model.SyndromeDef, set FindingSet) model.Side {
	for _, role := range []model.Role{model.RoleIpsi, model.RoleContra} {
		for _, tag := range syn.Findings {
			if tag.Role != role {
				continue
			}
			for _, ref := range tag.Refs {
				for _, side := range set[ref] {
					if !side.Lateralized() {
						continue
					}
					if role == model.RoleContra {
						return side.Opposite()
					}
					return side
				}
			}
		}
	}
	return model.SideUnknown
}

func tagSatisfied(tag model.FindingTag, set FindingSet, lesion model.Side) bool {
	want := lesion
	if tag.Role == model.RoleContra {
		want = lesion.Opposite()
	}
	for _, ref := range tag.Refs {
		for _, side := range set[ref] {
			// unknown and bilateral sides never disqualify
			if !lesion.Lateralized() || !side.Lateralized() || side == want {
				return true
			}
		}
	}
	return false
}

func tagLabel(tag model.FindingTag) string {
	if tag.Label != "" {
		return tag.Label
	}
	return strings.Join(tag.Refs, "/") + " (" + string(tag.Role) + ")"
}
