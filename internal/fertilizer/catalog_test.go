package fertilizer_test

import (
	"testing"

	"github.com/LeonardoBeccarini/agri_advisor/internal/fertilizer"
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

func TestCatalog_Resolve(t *testing.T) {
	cat := fertilizer.MustEngine().Catalog()

	theory := func(key, wantID string) func(*testing.T) {
		return func(t *testing.T) {
			v, ok := cat.Resolve(key)
			if wantID == "" {
				if ok {
					t.Errorf("Resolve(%q) = %s, want none", key, v.ID)
				}
				return
			}
			if !ok || v.ID != wantID {
				t.Errorf("Resolve(%q) = %q, %v, want %q", key, v.ID, ok, wantID)
			}
		}
	}

	t.Run("by id", theory("brri_4t", fertilizer.BRRI4t))
	t.Run("by id, any case", theory(" BRRI_3T ", fertilizer.BRRI3t))
	t.Run("by label", theory("Aman Rice", fertilizer.AmanRice))
	t.Run("by multi-line label with other spacing", theory(
		"BR25, BRRI dhan33, BRRI dhan34, BRRI dhan37, BRRI dhan38, BRRI dhan39, BRRI dhan56, BRRI dhan57 and Binadhan-12, Binadhan-13",
		fertilizer.BRRI4t,
	))
	t.Run("unknown", theory("Boro Rice", ""))
	t.Run("empty", theory("", ""))
}

func TestCatalog_Lookup(t *testing.T) {
	cat := fertilizer.MustEngine().Catalog()

	if r, ok := cat.Lookup(fertilizer.AmanRice, entities.NutrientN, entities.Medium); !ok || r != (entities.Range{Lo: 13, Hi: 24}) {
		t.Errorf("aman N medium = %v, %v", r, ok)
	}
	if r, ok := cat.Lookup(fertilizer.BRRI5t, entities.NutrientB, entities.Optimum); !ok || r != (entities.Range{}) {
		t.Errorf("brri_5t B optimum = %v, %v; want explicit zero range", r, ok)
	}
	if _, ok := cat.Lookup(fertilizer.BRRI5t, entities.NutrientP, entities.VeryHigh); ok {
		t.Error("very high should not be applicable")
	}
	if _, ok := cat.Lookup("nope", entities.NutrientP, entities.Low); ok {
		t.Error("unknown variety resolved")
	}
}

func TestCatalog_IsolatedFromCaller(t *testing.T) {
	v := entities.Variety{
		ID: "x",
		Targets: map[entities.NutrientCode]entities.Targets{
			entities.NutrientN: {entities.Low: &entities.Range{Lo: 1, Hi: 2}},
		},
	}
	cat, err := fertilizer.NewCatalog(v)
	if err != nil {
		t.Fatal(err)
	}
	v.Targets[entities.NutrientN][entities.Low].Hi = 99

	if r, _ := cat.Lookup("x", entities.NutrientN, entities.Low); r.Hi != 2 {
		t.Errorf("catalog changed through caller's pointer: %v", r)
	}
	if _, err := fertilizer.NewCatalog(v, v); err == nil {
		t.Error("duplicate id accepted")
	}
}

func TestDefaultVarieties_ShortLabel(t *testing.T) {
	cat := fertilizer.MustEngine().Catalog()
	v, _ := cat.Resolve(fertilizer.BRRI5t)
	want := "BR 11, BR 22, BR 23, BRRI dhan40, BRRI dhan41, BRRI dhan44, BRRI dhan46, BRRI dhan49"
	if got := v.ShortLabel(); got != want {
		t.Errorf("ShortLabel() = %q", got)
	}
}
