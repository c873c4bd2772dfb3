package fertilizer

import (
	"fmt"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// Sentinel caps the Very High band of every nutrient.
const Sentinel = 999.999

// Thresholds maps each nutrient to its STVI bands, declared in ascending order.
type Thresholds map[entities.NutrientCode][]entities.Band

// bands assigns consecutive [lo, hi] pairs to Very Low .. Very High.
func bands(edges ...float64) []entities.Band {
	out := make([]entities.Band, 0, len(edges)/2)
	for i := 0; i+1 < len(edges); i += 2 {
		out = append(out, entities.Band{
			Class: entities.STVIClasses[i/2],
			Range: entities.Range{Lo: edges[i], Hi: edges[i+1]},
		})
	}
	return out
}

// DefaultThresholds are the national STVI interpretation bands.
var DefaultThresholds = Thresholds{
	// total N, %
	entities.NutrientN: bands(
		0.00, 0.09,
		0.091, 0.18,
		0.181, 0.27,
		0.271, 0.36,
		0.361, 0.45,
		0.451, Sentinel,
	),
	// Olsen P, µg/g
	entities.NutrientP: bands(
		0.00, 6.0,
		6.1, 12.0,
		12.1, 18.0,
		18.1, 24.0,
		24.1, 30.0,
		30.1, Sentinel,
	),
	// exchangeable K, meq/100g
	entities.NutrientK: bands(
		0.00, 0.075,
		0.076, 0.15,
		0.151, 0.225,
		0.226, 0.30,
		0.31, 0.375,
		0.376, Sentinel,
	),
	// µg/g
	entities.NutrientS: bands(
		0.00, 9.0,
		9.1, 18.0,
		18.1, 27.0,
		27.1, 36.0,
		36.1, 45.0,
		45.1, Sentinel,
	),
	// µg/g
	entities.NutrientZn: bands(
		0.00, 0.45,
		0.451, 0.90,
		0.91, 1.35,
		1.351, 1.80,
		1.81, 2.25,
		2.251, Sentinel,
	),
	// µg/g
	entities.NutrientB: bands(
		0.00, 0.15,
		0.151, 0.30,
		0.31, 0.45,
		0.451, 0.60,
		0.61, 0.75,
		0.751, Sentinel,
	),
}

// Classify returns the first band, in declaration order, whose closed interval holds v.
func (t Thresholds) Classify(n entities.NutrientCode, v float64) (entities.Band, bool) {
	for _, b := range t[n] {
		if b.Contains(v) {
			return b, true
		}
	}
	return entities.Band{}, false
}

// Validate checks that every nutrient has ascending, non-overlapping bands starting at 0.
func (t Thresholds) Validate() error {
	for _, n := range entities.Nutrients {
		bs, ok := t[n]
		if !ok || len(bs) == 0 {
			return fmt.Errorf("thresholds: no bands for %s", n)
		}
		if bs[0].Lo != 0 {
			return fmt.Errorf("thresholds: %s starts at %v, not 0", n, bs[0].Lo)
		}
		for i, b := range bs {
			if b.Lo > b.Hi {
				return fmt.Errorf("thresholds: %s %s has lo %v > hi %v", n, b.Class, b.Lo, b.Hi)
			}
			if i > 0 && b.Lo <= bs[i-1].Hi {
				return fmt.Errorf("thresholds: %s %s overlaps %s", n, b.Class, bs[i-1].Class)
			}
		}
	}
	return nil
}

func (t Thresholds) clone() Thresholds {
	out := make(Thresholds, len(t))
	for n, bs := range t {
		out[n] = append([]entities.Band(nil), bs...)
	}
	return out
}

// Classify maps a reading to its STVI class using DefaultThresholds.
func Classify(n entities.NutrientCode, v float64) (entities.STVIClass, bool) {
	b, ok := DefaultThresholds.Classify(n, v)
	return b.Class, ok
}
