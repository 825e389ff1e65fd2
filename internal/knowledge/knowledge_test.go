package knowledge

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/neurolocus/internal/model"
)

func mustDefault(t *testing.T) *Base {
	t.Helper()
	b, err := Default()
	if err != nil {
		t.Fatalf("Failed to load embedded knowledge base: %v", err)
	}
	return b
}

func TestDefault_LoadsEmbeddedBase(t *testing.T) {
	b := mustDefault(t)

	counts := []struct {
		name      string
		got, want int
	}{
		{"cranial nerves", len(b.CranialNerves()), 12},
		{"tracts", len(b.Tracts()), 3},
		{"signs", len(b.Signs()), 3},
		{"syndromes", len(b.Syndromes()), 7},
		{"territories", len(b.Territories()), 4},
		{"max required tags", b.MaxRequiredTags(), 5},
	}
	for _, c := range counts {
		if c.got != c.want {
			t.Errorf("Expected %d %s, got %d", c.want, c.name, c.got)
		}
	}
	if b.Version() == "" {
		t.Error("Expected a knowledge base version")
	}
}

func TestDefault_IsSharedInstance(t *testing.T) {
	if mustDefault(t) != mustDefault(t) {
		t.Error("Expected Default to return the same instance")
	}
}

func TestBase_Lookups(t *testing.T) {
	b := mustDefault(t)

	cn, ok := b.Nerve("CN VI")
	if !ok || cn.Name != "Abducens" || cn.Level != model.LevelPons {
		t.Errorf("Expected Abducens at pons, got %+v (%v)", cn, ok)
	}

	tract, ok := b.Tract("corticospinal")
	if !ok || tract.Category != model.CategoryMotor || tract.Crosses != model.CrossingMedulla {
		t.Errorf("Expected motor tract crossing in the medulla, got %+v (%v)", tract, ok)
	}

	sign, ok := b.Sign("horner")
	if !ok {
		t.Fatal("Expected horner sign")
	}
	var medulla bool
	for _, lvl := range sign.Levels {
		if lvl == model.LevelMedulla {
			medulla = true
		}
	}
	if !medulla {
		t.Errorf("Expected horner to include medulla, got %v", sign.Levels)
	}

	weber, ok := b.Syndrome("Weber Syndrome")
	if !ok || weber.Level != model.LevelMidbrain {
		t.Fatalf("Expected Weber Syndrome at midbrain, got %+v (%v)", weber, ok)
	}
	if len(weber.Findings) != 2 || weber.Findings[1].Role != model.RoleContra {
		t.Errorf("Expected two tags with a contra second tag, got %+v", weber.Findings)
	}

	if _, ok := b.Syndrome("Claude Syndrome"); !ok {
		t.Error("Expected Claude Syndrome by its eponym")
	}
	if _, ok := b.Syndrome("Claude-Bernard-Horner Syndrome"); ok {
		t.Error("Expected no Claude-Bernard-Horner entry; that eponym names Horner syndrome")
	}

	kind, ok := b.Kind("medialLemniscus")
	if !ok || kind != model.KindTract {
		t.Errorf("Expected medialLemniscus to be a tract, got %s (%v)", kind, ok)
	}

	if _, ok := b.Nerve("CN XIII"); ok {
		t.Error("Expected CN XIII to be unknown")
	}
}

func TestBase_AccessorsReturnCopies(t *testing.T) {
	b := mustDefault(t)

	nerves := b.CranialNerves()
	nerves[0].Triggers[0] = "mutated"
	nerves[0].Name = "mutated"

	fresh := b.CranialNerves()
	if fresh[0].Name != "Olfactory" || fresh[0].Triggers[0] != "anosmia" {
		t.Errorf("Expected untouched Olfactory entry, got %+v", fresh[0])
	}

	syndromes := b.Syndromes()
	syndromes[0].Findings[0].Refs[0] = "CN XII"
	weber, _ := b.Syndrome("Weber Syndrome")
	if weber.Findings[0].Refs[0] != "CN III" {
		t.Errorf("Expected Weber refs untouched, got %v", weber.Findings[0].Refs)
	}
}

func validData() Data {
	return Data{
		Version: "test",
		CranialNerves: []model.CranialNerveDef{
			{ID: "CN III", Name: "Oculomotor", Level: model.LevelMidbrain, Triggers: []string{"ptosis"}},
		},
		Tracts: []model.TractDef{
			{ID: "corticospinal", Name: "Corticospinal Tract", Crosses: model.CrossingMedulla, Category: model.CategoryMotor},
		},
		Signs: []model.AdditionalSignDef{
			{ID: "ataxia", Name: "Ataxia", Levels: []model.Level{model.LevelPons}},
		},
		Syndromes: []model.SyndromeDef{
			{
				Name:  "Weber Syndrome",
				Level: model.LevelMidbrain,
				Findings: []model.FindingTag{
					{Refs: []string{"CN III"}, Role: model.RoleIpsi},
					{Refs: []string{"corticospinal"}, Role: model.RoleContra},
				},
			},
		},
	}
}

func TestNew_Valid(t *testing.T) {
	b, err := New(validData())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if b.Version() != "test" {
		t.Errorf("Expected version test, got %s", b.Version())
	}
	if b.MaxRequiredTags() != 2 {
		t.Errorf("Expected 2 max required tags, got %d", b.MaxRequiredTags())
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Data)
		want   string
	}{
		{
			name: "unknown tag reference",
			mutate: func(d *Data) {
				d.Syndromes[0].Findings[0].Refs = []string{"CN IIII"}
			},
			want: `references unknown id "CN IIII"`,
		},
		{
			name: "duplicate nerve identity",
			mutate: func(d *Data) {
				d.CranialNerves = append(d.CranialNerves, d.CranialNerves[0])
			},
			want: "identity already used",
		},
		{
			name: "identity shared across tables",
			mutate: func(d *Data) {
				d.Signs = append(d.Signs, model.AdditionalSignDef{ID: "corticospinal", Name: "x"})
			},
			want: "identity already used by a tract",
		},
		{
			name: "non brainstem syndrome",
			mutate: func(d *Data) {
				d.Syndromes[0].Level = model.LevelForebrain
			},
			want: "not a brainstem level",
		},
		{
			name: "invalid role",
			mutate: func(d *Data) {
				d.Syndromes[0].Findings[1].Role = "both"
			},
			want: "invalid role",
		},
		{
			name: "unknown territory reference",
			mutate: func(d *Data) {
				d.Territories = []model.VascularTerritoryDef{{ID: "pca", Findings: []string{"CN II"}}}
			},
			want: `territory "pca": references unknown id "CN II"`,
		},
		{
			name: "duplicate syndrome",
			mutate: func(d *Data) {
				d.Syndromes = append(d.Syndromes, d.Syndromes[0])
			},
			want: "duplicate name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validData()
			tt.mutate(&d)

			b, err := New(d)
			if err == nil {
				t.Fatal("Expected configuration error")
			}
			if b != nil {
				t.Error("Expected no base on error")
			}
			if !IsConfigurationError(err) {
				t.Errorf("Expected ConfigurationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestNew_ReportsAllProblems(t *testing.T) {
	d := validData()
	d.CranialNerves[0].Level = "cortex"
	d.Syndromes[0].Findings[1].Refs = []string{"pyramidal"}

	_, err := New(d)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}
	if len(cfgErr.Problems) != 2 {
		t.Errorf("Expected 2 problems, got %v", cfgErr.Problems)
	}
	if !strings.Contains(err.Error(), "2 problems") {
		t.Errorf("Expected problem count in message, got %q", err.Error())
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("cranial_nerves: [unterminated"))
	if err == nil || !IsConfigurationError(err) {
		t.Errorf("Expected ConfigurationError for invalid YAML, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "kb.yaml")
	if err := os.WriteFile(good, EmbeddedYAML(), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	b, err := LoadFile(good)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(b.Syndromes()) != 7 {
		t.Errorf("Expected 7 syndromes, got %d", len(b.Syndromes()))
	}

	bad := filepath.Join(dir, "bad.yaml")
	doc := `
version: broken
cranial_nerves:
  - {id: CN III, name: Oculomotor, level: midbrain}
syndromes:
  - name: Weber Syndrome
    level: midbrain
    findings:
      - {refs: [CN III], role: ipsi}
      - {refs: [corticospinal], role: contra}
`
	if err := os.WriteFile(bad, []byte(doc), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	_, err = LoadFile(bad)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}
	if cfgErr.Source != bad {
		t.Errorf("Expected source %s, got %s", bad, cfgErr.Source)
	}
	if !strings.Contains(err.Error(), `"corticospinal"`) {
		t.Errorf("Expected unknown corticospinal reference, got %q", err.Error())
	}

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if IsConfigurationError(err) {
		t.Error("Expected a missing file to be an I/O error, not a configuration error")
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	b, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b != mustDefault(t) {
		t.Error("Expected empty path to return the default base")
	}
}
