package fertilizer

import "github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"

func rng(lo, hi float64) *entities.Range { return &entities.Range{Lo: lo, Hi: hi} }

// ladder builds the usual four-step recommendation; High and Very High soils need no addition
// and are left not applicable.
func ladder(optimum, medium, low, veryLow *entities.Range) entities.Targets {
	return entities.Targets{
		entities.Optimum:  optimum,
		entities.Medium:   medium,
		entities.Low:      low,
		entities.VeryLow:  veryLow,
		entities.High:     nil,
		entities.VeryHigh: nil,
	}
}

// Built-in variety IDs.
const (
	AmanRice = "aman_rice"
	BRRI5t   = "brri_5t"
	BRRI4t   = "brri_4t"
	BRRI3t   = "brri_3t"
)

// DefaultVarieties are the rice recommendation groups (kg/ha of nutrient) for the
// four yield goals.
var DefaultVarieties = []entities.Variety{
	{
		ID:    AmanRice,
		Label: "Aman Rice",
		Targets: map[entities.NutrientCode]entities.Targets{
			entities.NutrientN:  ladder(rng(0, 12), rng(13, 24), rng(25, 36), rng(37, 48)),
			entities.NutrientP:  ladder(rng(0, 3), rng(4, 6), rng(7, 9), rng(10, 12)),
			entities.NutrientK:  ladder(rng(0, 10), rng(11, 20), rng(21, 30), rng(31, 40)),
			entities.NutrientS:  ladder(rng(0, 2), rng(3, 4), rng(5, 6), rng(7, 8)),
			entities.NutrientZn: ladder(rng(0, 0), rng(0, 0.5), rng(0.6, 1.0), rng(1.1, 1.5)),
			entities.NutrientB:  ladder(rng(0, 0), rng(0, 0.5), rng(0.6, 1.0), rng(1.1, 1.5)),
		},
	},
	{
		ID: BRRI5t,
		Label: "BR 11, BR 22, BR 23, BRRI dhan40, BRRI dhan41, BRRI dhan44, BRRI dhan46, BRRI dhan49,\n" +
			"BRRI dhan51, BRRI dhan52, BRRI dhan53, BRRI dhan54, BRRI dhan56, BRRI dhan62,\n" +
			"BRRI dhan66, BRRI dhan70, BRRI dhan71, BRRI dhan72, BRRI dhan73, BRRI dhan75\n" +
			"BRRI dhan76, BRRI dhan78, BRRI dhan79, BRRI dhan80, BRRI hybrid dhan4, BRRI hybrid dhan6\n" +
			"and Binadhan-4, Binadhan-7, Binadhan-11, Binadhan-12, Binadhan-15, Binadhan-16, Binadhan-17, Binadhan-20",
		Targets: map[entities.NutrientCode]entities.Targets{
			entities.NutrientN:  ladder(rng(0, 30), rng(31, 60), rng(61, 90), rng(91, 120)),
			entities.NutrientP:  ladder(rng(0, 5), rng(6, 10), rng(11, 15), rng(16, 20)),
			entities.NutrientK:  ladder(rng(0, 25), rng(26, 50), rng(51, 75), rng(76, 100)),
			entities.NutrientS:  ladder(rng(0, 4), rng(5, 8), rng(9, 12), rng(13, 16)),
			entities.NutrientZn: ladder(rng(0, 0), rng(0, 0.8), rng(0.9, 1.6), rng(1.7, 2.4)),
			entities.NutrientB:  ladder(rng(0, 0), rng(0, 0.8), rng(0.9, 1.6), rng(1.7, 2.4)),
		},
	},
	{
		ID:    BRRI4t,
		Label: "BR25, BRRI dhan33, BRRI dhan34, BRRI dhan37, BRRI dhan38,\nBRRI dhan39, BRRI dhan56, BRRI dhan57 and Binadhan-12, Binadhan-13",
		Targets: map[entities.NutrientCode]entities.Targets{
			entities.NutrientN:  ladder(rng(0, 24), rng(25, 48), rng(49, 72), rng(73, 96)),
			entities.NutrientP:  ladder(rng(0, 4), rng(5, 8), rng(9, 12), rng(13, 16)),
			entities.NutrientK:  ladder(rng(0, 20), rng(21, 40), rng(41, 60), rng(61, 80)),
			entities.NutrientS:  ladder(rng(0, 3), rng(4, 6), rng(7, 9), rng(10, 12)),
			entities.NutrientZn: ladder(rng(0, 0), rng(0, 0.7), rng(0.8, 1.4), rng(1.5, 2.1)),
			entities.NutrientB:  ladder(rng(0, 0), rng(0, 0.7), rng(0.8, 1.4), rng(1.5, 2.1)),
		},
	},
	{
		ID:    BRRI3t,
		Label: "BR5, Binadhan-9; LIV: Kataribhog, Kalijira, Chinigura etc",
		Targets: map[entities.NutrientCode]entities.Targets{
			entities.NutrientN:  ladder(rng(0, 18), rng(19, 36), rng(37, 54), rng(55, 72)),
			entities.NutrientP:  ladder(rng(0, 3), rng(4, 6), rng(7, 9), rng(10, 12)),
			entities.NutrientK:  ladder(rng(0, 15), rng(16, 30), rng(31, 45), rng(46, 60)),
			entities.NutrientS:  ladder(rng(0, 3), rng(4, 6), rng(7, 9), rng(10, 12)),
			entities.NutrientZn: ladder(rng(0, 0), rng(0, 0.6), rng(0.7, 1.2), rng(1.3, 1.8)),
			entities.NutrientB:  ladder(rng(0, 0), rng(0, 0.6), rng(0.7, 1.2), rng(1.3, 1.8)),
		},
	},
}
