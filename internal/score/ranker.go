package score

import (
	"fmt"
	"sort"

	"github.com/ppiankov/neurolocus/internal/knowledge"
	"github.com/ppiankov/neurolocus/internal/model"
)

// DifferentialLimit caps the ranked differential
const DifferentialLimit = 3

// findingWeight is the overall confidence contributed by each finding
const findingWeight = 0.3

// Ranker orders plausible syndromes into a short differential
type Ranker struct {
	maxRequired int
}

// NewRanker creates a ranker scaled to the largest syndrome in kb
func NewRanker(kb *knowledge.Base) *Ranker {
	return &Ranker{maxRequired: kb.MaxRequiredTags()}
}

// Rank filters scores by level (when known) and by at least one match,
// then sorts by confidence descending. Equal confidences keep Knowledge Base order.
func (r *Ranker) Rank(scores []SyndromeScore, level model.Level) []model.DifferentialEntry {
	entries := []model.DifferentialEntry{}
	for _, sc := range scores {
		if level != model.LevelNone && sc.Syndrome.Level != level {
			continue
		}
		if sc.Matched == 0 {
			continue
		}
		entries = append(entries, model.DifferentialEntry{
			Name:       sc.Syndrome.Name,
			Level:      sc.Syndrome.Level,
			Location:   sc.Syndrome.Location,
			Vascular:   sc.Syndrome.Vascular,
			Matched:    sc.Matched,
			Required:   sc.Required,
			Confidence: DifferentialConfidence(sc.Matched, sc.Required, r.maxRequired),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Confidence > entries[j].Confidence
	})

	if len(entries) > DifferentialLimit {
		entries = entries[:DifferentialLimit]
	}
	return entries
}

// DifferentialConfidence is (matched + matched/required) / (maxRequired + 1).
// It is strictly increasing in matched and the ratio breaks ties between
// syndromes with the same match count; the result is always in [0,1].
func DifferentialConfidence(matched, required, maxRequired int) float64 {
	if matched <= 0 || required <= 0 {
		return 0
	}
	if maxRequired < required {
		maxRequired = required
	}
	v := (float64(matched) + float64(matched)/float64(required)) / float64(maxRequired+1)
	return model.ClampUnit(v)
}

// OverallConfidence is min(1, 0.3 per finding)
func OverallConfidence(findingCount int) float64 {
	return model.ClampUnit(findingWeight * float64(findingCount))
}

// LateralitySignals reports findings detected on both the left and the right
func LateralitySignals(lat model.Laterality) []model.Signal {
	right := make(map[string]bool, len(lat.Right))
	for _, id := range lat.Right {
		right[id] = true
	}

	var signals []model.Signal
	for _, id := range lat.Left {
		if !right[id] {
			continue
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalLateralityConflict,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%s detected on both sides", id),
			Data:        map[string]interface{}{"finding": id},
		})
	}
	return signals
}
