package entities

import "strings"

// Targets holds the recommended nutrient range per STVI class.
// A nil entry means the class is not applicable for the variety;
// a non-nil zero range is a real "apply nothing" recommendation.
type Targets map[STVIClass]*Range

// Variety is a crop cultivar group with its own nutrient-response recommendations.
type Variety struct {
	ID      string                   `json:"id"`    // stable lookup key, e.g. "aman_rice"
	Label   string                   `json:"label"` // display text, may span several lines
	Targets map[NutrientCode]Targets `json:"-"`
}

// ShortLabel is the first line of Label, for dropdowns and log lines.
func (v Variety) ShortLabel() string {
	if i := strings.IndexByte(v.Label, '\n'); i >= 0 {
		return strings.TrimRight(v.Label[:i], " ,")
	}
	return v.Label
}
