// Package knowledge holds the immutable neuroanatomical Knowledge Base:
// cranial nerves, long tracts, additional signs, syndromes and vascular
// territories. A Base is validated once at construction and is safe for
// concurrent readers; nothing in the package mutates it afterwards.
package knowledge

import (
	"fmt"
	"strings"

	"github.com/ppiankov/neurolocus/internal/model"
)

// Data is the raw, unvalidated content of a Knowledge Base document
type Data struct {
	Version       string                       `yaml:"version"`
	CranialNerves []model.CranialNerveDef      `yaml:"cranial_nerves"`
	Tracts        []model.TractDef             `yaml:"tracts"`
	Signs         []model.AdditionalSignDef    `yaml:"signs"`
	Syndromes     []model.SyndromeDef          `yaml:"syndromes"`
	Territories   []model.VascularTerritoryDef `yaml:"territories"`
}

// Base is a validated, read-only Knowledge Base
type Base struct {
	version     string
	nerves      []model.CranialNerveDef
	tracts      []model.TractDef
	signs       []model.AdditionalSignDef
	syndromes   []model.SyndromeDef
	territories []model.VascularTerritoryDef

	kinds       map[string]model.FindingKind
	nerveIdx    map[string]int
	tractIdx    map[string]int
	signIdx     map[string]int
	syndromeIdx map[string]int
	maxTags     int
}

// New validates data and builds a Base.
// Every referential or identity problem is reported in a single *ConfigurationError.
func New(data Data) (*Base, error) {
	b := &Base{
		version:     data.Version,
		nerves:      cloneNerves(data.CranialNerves),
		tracts:      cloneTracts(data.Tracts),
		signs:       cloneSigns(data.Signs),
		syndromes:   cloneSyndromes(data.Syndromes),
		territories: cloneTerritories(data.Territories),
		kinds:       make(map[string]model.FindingKind),
		nerveIdx:    make(map[string]int),
		tractIdx:    make(map[string]int),
		signIdx:     make(map[string]int),
		syndromeIdx: make(map[string]int),
	}

	v := &validator{}

	for i, n := range b.nerves {
		v.identity(b.kinds, n.ID, model.KindCranialNerve)
		b.nerveIdx[n.ID] = i
		if !n.Level.Valid() {
			v.addf("cranial nerve %q: invalid level %q", n.ID, n.Level)
		}
		if strings.TrimSpace(n.Name) == "" {
			v.addf("cranial nerve %q: missing name", n.ID)
		}
	}

	for i, t := range b.tracts {
		v.identity(b.kinds, t.ID, model.KindTract)
		b.tractIdx[t.ID] = i
		if t.Crosses != model.CrossingSpinal && t.Crosses != model.CrossingMedulla {
			v.addf("tract %q: invalid crossing level %q", t.ID, t.Crosses)
		}
		if t.Category != model.CategoryMotor && t.Category != model.CategorySensory {
			v.addf("tract %q: invalid category %q", t.ID, t.Category)
		}
	}

	for i, s := range b.signs {
		v.identity(b.kinds, s.ID, model.KindSign)
		b.signIdx[s.ID] = i
		for _, lvl := range s.Levels {
			if !lvl.Valid() {
				v.addf("sign %q: invalid level %q", s.ID, lvl)
			}
		}
	}

	for i, s := range b.syndromes {
		if _, dup := b.syndromeIdx[s.Name]; dup {
			v.addf("syndrome %q: duplicate name", s.Name)
		}
		b.syndromeIdx[s.Name] = i
		if !s.Level.Brainstem() {
			v.addf("syndrome %q: level %q is not a brainstem level", s.Name, s.Level)
		}
		if len(s.Findings) == 0 {
			v.addf("syndrome %q: no required findings", s.Name)
		}
		if len(s.Findings) > b.maxTags {
			b.maxTags = len(s.Findings)
		}
		for j, tag := range s.Findings {
			if len(tag.Refs) == 0 {
				v.addf("syndrome %q: finding %d references nothing", s.Name, j)
			}
			for _, ref := range tag.Refs {
				if _, ok := b.kinds[ref]; !ok {
					v.addf("syndrome %q: finding %q references unknown id %q", s.Name, tag.Label, ref)
				}
			}
			if tag.Role != model.RoleIpsi && tag.Role != model.RoleContra {
				v.addf("syndrome %q: finding %q has invalid role %q", s.Name, tag.Label, tag.Role)
			}
		}
	}

	seenTerritory := make(map[string]bool)
	for _, t := range b.territories {
		if seenTerritory[t.ID] {
			v.addf("territory %q: duplicate id", t.ID)
		}
		seenTerritory[t.ID] = true
		for _, ref := range t.Findings {
			if _, ok := b.kinds[ref]; !ok {
				v.addf("territory %q: references unknown id %q", t.ID, ref)
			}
		}
	}

	if err := v.err(); err != nil {
		return nil, err
	}
	return b, nil
}

// Version returns the declared Knowledge Base version
func (b *Base) Version() string {
	return b.version
}

// CranialNerves returns all cranial nerve records in declaration order
func (b *Base) CranialNerves() []model.CranialNerveDef {
	return cloneNerves(b.nerves)
}

// Tracts returns all tract records in declaration order
func (b *Base) Tracts() []model.TractDef {
	return cloneTracts(b.tracts)
}

// Signs returns all additional-sign records in declaration order
func (b *Base) Signs() []model.AdditionalSignDef {
	return cloneSigns(b.signs)
}

// Syndromes returns all syndrome records in declaration order
func (b *Base) Syndromes() []model.SyndromeDef {
	return cloneSyndromes(b.syndromes)
}

// Territories returns all vascular territory records in declaration order
func (b *Base) Territories() []model.VascularTerritoryDef {
	return cloneTerritories(b.territories)
}

// Nerve looks up a cranial nerve by id (e.g. "CN VI")
func (b *Base) Nerve(id string) (model.CranialNerveDef, bool) {
	i, ok := b.nerveIdx[id]
	if !ok {
		return model.CranialNerveDef{}, false
	}
	return cloneNerves(b.nerves[i : i+1])[0], true
}

// Tract looks up a tract by id
func (b *Base) Tract(id string) (model.TractDef, bool) {
	i, ok := b.tractIdx[id]
	if !ok {
		return model.TractDef{}, false
	}
	return cloneTracts(b.tracts[i : i+1])[0], true
}

// Sign looks up an additional sign by id
func (b *Base) Sign(id string) (model.AdditionalSignDef, bool) {
	i, ok := b.signIdx[id]
	if !ok {
		return model.AdditionalSignDef{}, false
	}
	return cloneSigns(b.signs[i : i+1])[0], true
}

// Syndrome looks up a syndrome by name
func (b *Base) Syndrome(name string) (model.SyndromeDef, bool) {
	i, ok := b.syndromeIdx[name]
	if !ok {
		return model.SyndromeDef{}, false
	}
	return cloneSyndromes(b.syndromes[i : i+1])[0], true
}

// Kind reports which table a finding id belongs to
func (b *Base) Kind(id string) (model.FindingKind, bool) {
	k, ok := b.kinds[id]
	return k, ok
}

// MaxRequiredTags is the largest number of required findings of any syndrome
func (b *Base) MaxRequiredTags() int {
	return b.maxTags
}

// validator accumulates problems found while building a Base
type validator struct {
	problems []string
}

func (v *validator) addf(format string, args ...interface{}) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// identity registers id under kind and records a problem on blank or duplicate ids
func (v *validator) identity(kinds map[string]model.FindingKind, id string, kind model.FindingKind) {
	if strings.TrimSpace(id) == "" {
		v.addf("%s: blank identity", kind)
		return
	}
	if prev, dup := kinds[id]; dup {
		v.addf("%s %q: identity already used by a %s", kind, id, prev)
		return
	}
	kinds[id] = kind
}

func (v *validator) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ConfigurationError{Problems: v.problems}
}

func cloneNerves(in []model.CranialNerveDef) []model.CranialNerveDef {
	out := make([]model.CranialNerveDef, len(in))
	for i, n := range in {
		n.Triggers = append([]string(nil), n.Triggers...)
		out[i] = n
	}
	return out
}

func cloneTracts(in []model.TractDef) []model.TractDef {
	out := make([]model.TractDef, len(in))
	for i, t := range in {
		t.Triggers = append([]string(nil), t.Triggers...)
		out[i] = t
	}
	return out
}

func cloneSigns(in []model.AdditionalSignDef) []model.AdditionalSignDef {
	out := make([]model.AdditionalSignDef, len(in))
	for i, s := range in {
		s.Triggers = append([]string(nil), s.Triggers...)
		s.Levels = append([]model.Level(nil), s.Levels...)
		out[i] = s
	}
	return out
}

func cloneSyndromes(in []model.SyndromeDef) []model.SyndromeDef {
	out := make([]model.SyndromeDef, len(in))
	for i, s := range in {
		tags := make([]model.FindingTag, len(s.Findings))
		for j, tag := range s.Findings {
			tag.Refs = append([]string(nil), tag.Refs...)
			tags[j] = tag
		}
		s.Findings = tags
		out[i] = s
	}
	return out
}

func cloneTerritories(in []model.VascularTerritoryDef) []model.VascularTerritoryDef {
	out := make([]model.VascularTerritoryDef, len(in))
	for i, t := range in {
		t.Structures = append([]string(nil), t.Structures...)
		t.Findings = append([]string(nil), t.Findings...)
		out[i] = t
	}
	return out
}
