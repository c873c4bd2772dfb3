package entities

import "math"

// SoilTest is one laboratory soil analysis plus the variety to be grown.
// A nil reading means the nutrient was not measured.
type SoilTest struct {
	Variety string   `json:"variety"`
	N       *float64 `json:"soilN"`
	P       *float64 `json:"soilP"`
	K       *float64 `json:"soilK"`
	S       *float64 `json:"soilS"`
	Zn      *float64 `json:"soilZn"`
	B       *float64 `json:"soilB"`
}

// Reading returns the usable value for a nutrient. NaN, infinities and
// negative values are reported as absent.
func (t SoilTest) Reading(n NutrientCode) (float64, bool) {
	var p *float64
	switch n {
	case NutrientN:
		p = t.N
	case NutrientP:
		p = t.P
	case NutrientK:
		p = t.K
	case NutrientS:
		p = t.S
	case NutrientZn:
		p = t.Zn
	case NutrientB:
		p = t.B
	}
	if p == nil {
		return 0, false
	}
	v := *p
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// Set stores a reading for the nutrient; used by decoders and the simulator.
func (t *SoilTest) Set(n NutrientCode, v float64) {
	p := &v
	switch n {
	case NutrientN:
		t.N = p
	case NutrientP:
		t.P = p
	case NutrientK:
		t.K = p
	case NutrientS:
		t.S = p
	case NutrientZn:
		t.Zn = p
	case NutrientB:
		t.B = p
	}
}
