package model

// Finding is the part shared by every detected clinical sign
type Finding struct {
	Name       string  `json:"name"`                // display name of the matched definition
	Side       Side    `json:"side"`                // detected body side
	Confidence float64 `json:"confidence"`          // 1.0 identity match, 0.8 trigger match
	Heuristic  string  `json:"heuristic,omitempty"` // which rule matched (e.g. "trigger:ptosis")
	Offset     int     `json:"offset"`              // byte offset used for side resolution
}

// NerveFinding is a cranial nerve deficit
type NerveFinding struct {
	CN    string `json:"cn"`
	Level Level  `json:"level"`
	Finding
}

// TractFinding is a long-tract sign
type TractFinding struct {
	Tract    string   `json:"tract"`
	Category Category `json:"type"`
	Finding
}

// SignFinding is an additional localizing sign
type SignFinding struct {
	Sign string `json:"sign"`
	Finding
}

// Laterality aggregates finding ids per detected side. Unknown sides are not listed.
type Laterality struct {
	Left      []string `json:"left"`
	Right     []string `json:"right"`
	Bilateral []string `json:"bilateral"`
}

// Add records id under side
func (l *Laterality) Add(side Side, id string) {
	switch side {
	case SideLeft:
		l.Left = appendUnique(l.Left, id)
	case SideRight:
		l.Right = appendUnique(l.Right, id)
	case SideBilateral:
		l.Bilateral = appendUnique(l.Bilateral, id)
	}
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// SyndromeMatch is the best-matching syndrome with its score
type SyndromeMatch struct {
	SyndromeDef
	MatchScore  float64  `json:"matchScore"`
	Matched     int      `json:"matched"`
	Required    int      `json:"required"`
	MatchedTags []string `json:"matchedTags"`
}

// DifferentialEntry is one ranked candidate of the differential diagnosis
type DifferentialEntry struct {
	Name       string  `json:"name"`
	Level      Level   `json:"level"`
	Location   string  `json:"location"`
	Vascular   string  `json:"vascular"`
	Matched    int     `json:"matched"`
	Required   int     `json:"required"`
	Confidence float64 `json:"confidence"`
}

// TerritoryHit is a vascular territory implicated by at least one finding
type TerritoryHit struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Findings []string `json:"findings"`
}

// ParsedResult is the structured outcome of localizing one text.
// It is built once per call and never mutated afterwards.
type ParsedResult struct {
	CranialNerves []NerveFinding      `json:"cranialNerves"`
	Tracts        []TractFinding      `json:"tracts"`
	Additional    []SignFinding       `json:"additional"`
	Laterality    Laterality          `json:"laterality"`
	Level         Level               `json:"level"`
	Syndrome      *SyndromeMatch      `json:"syndrome"`
	Differential  []DifferentialEntry `json:"differential"`
	Territories   []TerritoryHit      `json:"territories"`
	Confidence    float64             `json:"confidence"`
	Signals       []Signal            `json:"signals,omitempty"`
}

// NewParsedResult returns an empty result whose list fields render as [] in JSON
func NewParsedResult() *ParsedResult {
	return &ParsedResult{
		CranialNerves: []NerveFinding{},
		Tracts:        []TractFinding{},
		Additional:    []SignFinding{},
		Laterality: Laterality{
			Left:      []string{},
			Right:     []string{},
			Bilateral: []string{},
		},
		Differential: []DifferentialEntry{},
		Territories:  []TerritoryHit{},
	}
}

// FindingCount returns the total number of findings across all three lists
func (r *ParsedResult) FindingCount() int {
	return len(r.CranialNerves) + len(r.Tracts) + len(r.Additional)
}

// Sides returns every detected side per finding id, in list order
func (r *ParsedResult) Sides() map[string][]Side {
	sides := make(map[string][]Side, r.FindingCount())
	for _, f := range r.CranialNerves {
		sides[f.CN] = append(sides[f.CN], f.Side)
	}
	for _, f := range r.Tracts {
		sides[f.Tract] = append(sides[f.Tract], f.Side)
	}
	for _, f := range r.Additional {
		sides[f.Sign] = append(sides[f.Sign], f.Side)
	}
	return sides
}

// ClampUnit bounds v to [0,1]
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
