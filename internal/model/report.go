package model

import "time"

// Report wraps a ParsedResult with the metadata a reporting collaborator needs.
// The ParsedResult itself carries no identity; the report only adds context around it.
type Report struct {
	Subject          string        `json:"subject"`             // short label (file name, note index)
	Input            string        `json:"input"`               // text that was localized
	GeneratedAt      time.Time     `json:"generated_at"`        // when the report was built
	KnowledgeVersion string        `json:"knowledge_version"`   // Knowledge Base version used
	Result           *ParsedResult `json:"result"`              // localization outcome
	Principles       Principles    `json:"principles"`          // how the result was produced
	Narrative        *Narrative    `json:"narrative,omitempty"` // optional LLM narrative, never affects Result
}

// Signal is a transparent explanation record attached to a result
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // formula and inputs
}

// SignalType classifies a signal
type SignalType string

const (
	SignalLevelInference     SignalType = "level_inference"     // how the level was chosen
	SignalMultiLevel         SignalType = "multi_level"         // nerves from several levels co-occur
	SignalSyndromeMatch      SignalType = "syndrome_match"      // best syndrome and its score
	SignalNoLocalization     SignalType = "no_localization"     // nothing localizing was found
	SignalLateralityConflict SignalType = "laterality_conflict" // one finding resolved to several sides
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Principles documents the guarantees under which a result was produced
type Principles struct {
	Deterministic bool `json:"deterministic"`  // same text, same result
	Auditable     bool `json:"auditable"`      // every score has a formula
	NonDiagnostic bool `json:"non_diagnostic"` // clinical correctness is not validated
}

// DefaultPrinciples returns the principles every report is produced under
func DefaultPrinciples() Principles {
	return Principles{
		Deterministic: true,
		Auditable:     true,
		NonDiagnostic: true,
	}
}

// Narrative is an optional LLM-written summary of a result.
// It is generated after localization and never feeds back into it.
type Narrative struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	Strict    bool     `json:"strict"` // whether the syndrome allowlist was enforced
	SummaryMD string   `json:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
