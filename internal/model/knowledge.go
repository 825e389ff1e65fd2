package model

// CranialNerveDef is a cranial nerve record of the Knowledge Base
type CranialNerveDef struct {
	ID         string   `json:"cn" yaml:"id"`                 // e.g. "CN III"
	Name       string   `json:"name" yaml:"name"`             // e.g. "Oculomotor"
	Level      Level    `json:"level" yaml:"level"`           // nucleus level
	Triggers   []string `json:"findings" yaml:"triggers"`     // lexical trigger phrases
	Function   string   `json:"function" yaml:"function"`     // human-readable function
	Laterality bool     `json:"laterality" yaml:"laterality"` // whether side is meaningful
}

// TractDef is a long-tract record of the Knowledge Base
type TractDef struct {
	ID         string   `json:"tract" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Triggers   []string `json:"findings" yaml:"triggers"`
	Crosses    Crossing `json:"crosses" yaml:"crosses"`
	Laterality bool     `json:"laterality" yaml:"laterality"`
	Category   Category `json:"type" yaml:"category"`
}

// AdditionalSignDef is a localizing sign that is neither a nerve nor a tract
type AdditionalSignDef struct {
	ID          string   `json:"sign" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Triggers    []string `json:"findings" yaml:"triggers"`
	Laterality  bool     `json:"laterality" yaml:"laterality"`
	Levels      []Level  `json:"level" yaml:"levels"`
	Description string   `json:"description" yaml:"description"`
}

// FindingTag is one required finding of a syndrome.
// Refs are alternatives: the tag is satisfied when any of them is found.
type FindingTag struct {
	Refs  []string `json:"refs" yaml:"refs"`
	Role  Role     `json:"role" yaml:"role"`
	Label string   `json:"label" yaml:"label"` // e.g. "CN IX/X (ipsi)"
}

// SyndromeDef is a classically described brainstem syndrome
type SyndromeDef struct {
	Name          string       `json:"name" yaml:"name"`
	Description   string       `json:"description" yaml:"description"`
	Location      string       `json:"location" yaml:"location"`
	Level         Level        `json:"level" yaml:"level"`
	Vascular      string       `json:"vascular" yaml:"vascular"`
	Example       string       `json:"example" yaml:"example"`
	Findings      []FindingTag `json:"findings" yaml:"findings"`
	ClinicalPearl string       `json:"clinicalPearl,omitempty" yaml:"clinical_pearl,omitempty"`
}

// VascularTerritoryDef is an arterial territory, used for display only
type VascularTerritoryDef struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Structures []string `json:"structures" yaml:"structures"`
	Findings   []string `json:"findings" yaml:"findings"` // finding ids
}
