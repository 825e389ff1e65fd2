package pipeline

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/neurolocus/internal/cache"
	"github.com/ppiankov/neurolocus/internal/extract"
	"github.com/ppiankov/neurolocus/internal/knowledge"
	"github.com/ppiankov/neurolocus/internal/model"
	"github.com/ppiankov/neurolocus/internal/score"
)

// Message is one turn of an interview transcript.
// Content is kept loose because only string contents are localized.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// Localizer turns free text into a ParsedResult.
// It holds only immutable collaborators and is safe for concurrent use.
type Localizer struct {
	kb        *knowledge.Base
	extractor *extract.FindingExtractor
	matcher   *score.Matcher
	ranker    *score.Ranker
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// Option configures a Localizer
type Option func(*Localizer)

// WithCache memoizes results per distinct text; a nil cache disables memoization
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(l *Localizer) {
		l.cache = c
		l.cacheTTL = ttl
	}
}

// WithLogger sets the logger used for cache and localization diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(l *Localizer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLocalizer wires extractor, matcher and ranker over kb
func NewLocalizer(kb *knowledge.Base, cfg *model.Config, opts ...Option) *Localizer {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	l := &Localizer{
		kb:        kb,
		extractor: extract.NewFindingExtractor(kb, cfg.Extraction),
		matcher:   score.NewMatcher(kb, cfg.Matching),
		ranker:    score.NewRanker(kb),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Knowledge returns the Knowledge Base the localizer was built with
func (l *Localizer) Knowledge() *knowledge.Base {
	return l.kb
}

// Localize extracts findings from text and infers level, syndrome and differential.
// It never fails: text with nothing recognizable yields an empty result.
func (l *Localizer) Localize(text string) *model.ParsedResult {
	if l.cache == nil {
		return l.compute(text)
	}

	key := cache.Key(l.kb.Version(), text)
	if raw, ok := l.cache.Get(key); ok {
		if cached, err := decodeResult(raw); err == nil {
			l.logger.Debug("localize cache hit", zap.String("key", key))
			return cached
		}
		l.logger.Warn("discarding unreadable cache entry", zap.String("key", key))
		_ = l.cache.Delete(key)
	}

	result := l.compute(text)
	raw, err := json.Marshal(result)
	if err != nil {
		return result
	}
	if err := l.cache.Set(key, raw, l.cacheTTL); err != nil {
		l.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	// A miss returns the same decoded form a later hit will, so repeated
	// calls compare equal.
	if decoded, err := decodeResult(raw); err == nil {
		return decoded
	}
	return result
}

func decodeResult(raw []byte) (*model.ParsedResult, error) {
	var result model.ParsedResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LocalizeTranscript localizes the string contents of an interview, joined by spaces
func (l *Localizer) LocalizeTranscript(messages []Message) *model.ParsedResult {
	return l.Localize(TranscriptText(messages))
}

// TranscriptText joins the string contents of messages with single spaces
func TranscriptText(messages []Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		if s, ok := m.Content.(string); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func (l *Localizer) compute(text string) *model.ParsedResult {
	result := model.NewParsedResult()

	found := l.extractor.Extract(text)
	result.CranialNerves = found.CranialNerves
	result.Tracts = found.Tracts
	result.Additional = found.Additional
	result.Laterality = found.Laterality

	if result.FindingCount() == 0 {
		result.Signals = []model.Signal{{
			Type:        model.SignalNoLocalization,
			Severity:    model.SeverityInfo,
			Description: "No recognizable findings",
		}}
		return result
	}

	level, levelSignals := score.InferLevel(result.CranialNerves)
	result.Level = level
	result.Signals = append(result.Signals, levelSignals...)

	scores := l.matcher.Score(score.NewFindingSet(result.CranialNerves, result.Tracts, result.Additional))
	match, matchSignal := score.Best(scores)
	result.Syndrome = match
	result.Signals = append(result.Signals, matchSignal)
	result.Signals = append(result.Signals, score.LateralitySignals(result.Laterality)...)

	result.Differential = l.ranker.Rank(scores, level)
	result.Territories = l.territories(result)
	result.Confidence = score.OverallConfidence(result.FindingCount())

	l.logger.Debug("localized",
		zap.Int("findings", result.FindingCount()),
		zap.String("level", string(result.Level)),
		zap.Int("differential", len(result.Differential)),
	)
	return result
}

// territories lists every vascular territory sharing at least one finding with result
func (l *Localizer) territories(result *model.ParsedResult) []model.TerritoryHit {
	present := result.Sides()
	hits := []model.TerritoryHit{}
	for _, t := range l.kb.Territories() {
		var ids []string
		for _, id := range t.Findings {
			if _, ok := present[id]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			hits = append(hits, model.TerritoryHit{ID: t.ID, Name: t.Name, Findings: ids})
		}
	}
	return hits
}
