package fertilizer_test

import (
	"math"
	"testing"

	"github.com/LeonardoBeccarini/agri_advisor/internal/fertilizer"
)

func TestComputeDose(t *testing.T) {
	type When struct {
		uf, ci, cs, st, ls float64
	}
	theory := func(when When, then float64) func(*testing.T) {
		return func(t *testing.T) {
			got := fertilizer.ComputeDose(when.uf, when.ci, when.cs, when.st, when.ls)
			if math.Abs(got-then) > 1e-9 {
				t.Errorf("ComputeDose(%+v) = %v, want %v", when, got, then)
			}
		}
	}

	t.Run("at the lower edge the full ceiling is given",
		theory(When{uf: 24, ci: 11, cs: 0.089, st: 0.181, ls: 0.181}, 24))
	t.Run("at the upper edge the range floor is given",
		theory(When{uf: 24, ci: 11, cs: 10, st: 10, ls: 0}, 13))
	t.Run("zero-width band falls back to ceiling",
		theory(When{uf: 30, ci: 30, cs: 0, st: 123, ls: 4}, 30))
	t.Run("never negative",
		theory(When{uf: 5, ci: 50, cs: 1, st: 1, ls: 0}, 0))
	t.Run("zero range gives zero",
		theory(When{uf: 0, ci: 0, cs: 0.449, st: 1.5, ls: 1.351}, 0))
	t.Run("aman rice N medium",
		theory(When{uf: 24, ci: 11, cs: 0.27 - 0.181, st: 0.20, ls: 0.181}, 24-(11/(0.27-0.181))*(0.20-0.181)))
}

func TestComputeDose_MonotoneInSoilTest(t *testing.T) {
	const uf, ci, ls, cs = 60.0, 29.0, 12.1, 5.9
	prev := math.Inf(1)
	for i := 0; i <= 100; i++ {
		st := ls + cs*float64(i)/100
		got := fertilizer.ComputeDose(uf, ci, cs, st, ls)
		if got > prev {
			t.Fatalf("dose rose from %v to %v at St=%v", prev, got, st)
		}
		if got < 0 {
			t.Fatalf("negative dose %v at St=%v", got, st)
		}
		prev = got
	}
}

func TestConversions_Convert(t *testing.T) {
	conv, qty, ok := fertilizer.DefaultConversions.Convert("N", 10)
	if !ok {
		t.Fatal("no conversion for N")
	}
	if conv.Product != "Urea" || math.Abs(qty-21.7) > 1e-9 {
		t.Errorf("Convert(N, 10) = %s %v, want Urea 21.7", conv.Product, qty)
	}

	if _, _, ok := (fertilizer.Conversions{}).Convert("N", 10); ok {
		t.Error("empty table should not convert")
	}
}
