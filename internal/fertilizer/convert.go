package fertilizer

import "github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"

// Conversion turns an elemental nutrient mass into the mass of its carrier product.
type Conversion struct {
	Product string  `json:"product"`
	Ratio   float64 `json:"ratio"`
}

type Conversions map[entities.NutrientCode]Conversion

// DefaultConversions: 1 kg N is supplied by ~2.17 kg urea, and so on.
var DefaultConversions = Conversions{
	entities.NutrientN:  {Product: "Urea", Ratio: 2.17},
	entities.NutrientP:  {Product: "TSP", Ratio: 5.0},
	entities.NutrientK:  {Product: "MoP", Ratio: 2.0},
	entities.NutrientS:  {Product: "Gypsum", Ratio: 5.55},
	entities.NutrientZn: {Product: "Zinc sulphate (heptahydrate)", Ratio: 4.75},
	entities.NutrientB:  {Product: "Boric acid", Ratio: 5.88},
}

// Convert returns the product and its quantity for a dose in kg/ha.
// ok is false when the nutrient has no carrier product.
func (c Conversions) Convert(n entities.NutrientCode, dose float64) (conv Conversion, quantity float64, ok bool) {
	conv, ok = c[n]
	if !ok {
		return Conversion{}, 0, false
	}
	return conv, dose * conv.Ratio, true
}

func (c Conversions) clone() Conversions {
	out := make(Conversions, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
