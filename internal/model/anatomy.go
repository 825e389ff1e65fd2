package model

import (
	"bytes"
	"encoding/json"
)

// Side is the body side a finding is attributed to
type Side string

const (
	SideLeft      Side = "left"
	SideRight     Side = "right"
	SideBilateral Side = "bilateral"
	SideUnknown   Side = "unknown"
)

// Valid reports whether s is one of the four known sides
func (s Side) Valid() bool {
	switch s {
	case SideLeft, SideRight, SideBilateral, SideUnknown:
		return true
	}
	return false
}

// Opposite returns the contralateral side for left/right and s otherwise
func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return s
	}
}

// Lateralized reports whether s names a single side of the body
func (s Side) Lateralized() bool {
	return s == SideLeft || s == SideRight
}

// Level is an anatomical level of the neuraxis.
// The zero value means no level could be inferred and marshals to JSON null.
type Level string

const (
	LevelNone      Level = ""
	LevelForebrain Level = "forebrain"
	LevelMidbrain  Level = "midbrain"
	LevelPons      Level = "pons"
	LevelMedulla   Level = "medulla"
)

// Valid reports whether l is one of the four named levels
func (l Level) Valid() bool {
	switch l {
	case LevelForebrain, LevelMidbrain, LevelPons, LevelMedulla:
		return true
	}
	return false
}

// Brainstem reports whether l is midbrain, pons or medulla
func (l Level) Brainstem() bool {
	return l == LevelMidbrain || l == LevelPons || l == LevelMedulla
}

// MarshalJSON renders LevelNone as null
func (l Level) MarshalJSON() ([]byte, error) {
	if l == LevelNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(l))
}

// UnmarshalJSON accepts null as LevelNone
func (l *Level) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = LevelNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = Level(s)
	return nil
}

// Role is the laterality role of a syndrome finding relative to the lesion
type Role string

const (
	RoleIpsi   Role = "ipsi"   // same side as the lesion
	RoleContra Role = "contra" // opposite side to the lesion
)

// Category classifies a long tract
type Category string

const (
	CategoryMotor   Category = "motor"
	CategorySensory Category = "sensory"
)

// Crossing is the level at which a tract decussates
type Crossing string

const (
	CrossingSpinal  Crossing = "spinal"
	CrossingMedulla Crossing = "medulla"
)

// FindingKind says which Knowledge Base table a finding id belongs to
type FindingKind string

const (
	KindCranialNerve FindingKind = "cranial_nerve"
	KindTract        FindingKind = "tract"
	KindSign         FindingKind = "sign"
)
