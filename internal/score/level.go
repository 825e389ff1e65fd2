// Package score turns extracted findings into a lesion level, a best-matching
// syndrome and a ranked differential. Every number it produces is a
// deterministic function of its inputs and is explained by a Signal.
package score

import (
	"fmt"

	"github.com/ppiankov/neurolocus/internal/model"
)

// levelPriority is rostral-to-caudal precedence; the first level present wins
var levelPriority = []model.Level{
	model.LevelMidbrain,
	model.LevelPons,
	model.LevelMedulla,
}

// InferLevel derives the lesion level from cranial nerve findings.
// Multi-level involvement collapses to the rostral-most level.
func InferLevel(nerves []model.NerveFinding) (model.Level, []model.Signal) {
	present := make(map[model.Level][]string)
	for _, n := range nerves {
		if n.Level.Brainstem() {
			present[n.Level] = appendOnce(present[n.Level], n.CN)
		}
	}

	level := model.LevelNone
	for _, l := range levelPriority {
		if len(present[l]) > 0 {
			level = l
			break
		}
	}

	data := map[string]interface{}{
		"midbrain": present[model.LevelMidbrain],
		"pons":     present[model.LevelPons],
		"medulla":  present[model.LevelMedulla],
		"formula":  "first present of midbrain > pons > medulla",
	}

	if level == model.LevelNone {
		return level, []model.Signal{{
			Type:        model.SignalLevelInference,
			Severity:    model.SeverityWarning,
			Description: "No brainstem cranial nerve finding; level not inferred",
			Data:        data,
		}}
	}

	signals := []model.Signal{{
		Type:        model.SignalLevelInference,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Level %s from %v", level, present[level]),
		Data:        data,
	}}

	var levels []model.Level
	for _, l := range levelPriority {
		if len(present[l]) > 0 {
			levels = append(levels, l)
		}
	}
	if len(levels) > 1 {
		signals = append(signals, model.Signal{
			Type:        model.SignalMultiLevel,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Cranial nerves from %d levels; reporting rostral-most (%s)", len(levels), level),
			Data: map[string]interface{}{
				"levels":   levels,
				"selected": level,
			},
		})
	}

	return level, signals
}

func appendOnce(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
