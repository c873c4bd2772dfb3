package entities

import (
	"fmt"
	"strings"
)

// NutrientCode identifies one of the six soil nutrients covered by a soil test.
type NutrientCode string

const (
	NutrientN  NutrientCode = "N"
	NutrientP  NutrientCode = "P"
	NutrientK  NutrientCode = "K"
	NutrientS  NutrientCode = "S"
	NutrientZn NutrientCode = "Zn"
	NutrientB  NutrientCode = "B"
)

// Nutrients is the fixed processing order: results are always emitted N, P, K, S, Zn, B.
var Nutrients = []NutrientCode{NutrientN, NutrientP, NutrientK, NutrientS, NutrientZn, NutrientB}

// ParseNutrient accepts the canonical code, case-insensitively.
func ParseNutrient(s string) (NutrientCode, error) {
	s = strings.TrimSpace(s)
	for _, n := range Nutrients {
		if strings.EqualFold(string(n), s) {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown nutrient %q", s)
}

// STVIClass is the soil test value index category of a reading.
type STVIClass int

const (
	VeryLow STVIClass = iota
	Low
	Medium
	Optimum
	High
	VeryHigh
)

// STVIClasses in ascending order of soil supply.
var STVIClasses = []STVIClass{VeryLow, Low, Medium, Optimum, High, VeryHigh}

var stviNames = [...]string{"Very Low", "Low", "Medium", "Optimum", "High", "Very High"}

func (c STVIClass) String() string {
	if c < VeryLow || c > VeryHigh {
		return fmt.Sprintf("STVIClass(%d)", int(c))
	}
	return stviNames[c]
}

// ParseSTVIClass accepts "Very Low", "very_low", "VeryLow" and the like.
func ParseSTVIClass(s string) (STVIClass, error) {
	norm := func(v string) string {
		v = strings.ToLower(v)
		return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(v)
	}
	want := norm(strings.TrimSpace(s))
	for i, name := range stviNames {
		if norm(name) == want {
			return STVIClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown STVI class %q", s)
}

// Range is a closed interval [Lo, Hi].
type Range struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

func (r Range) Contains(v float64) bool { return r.Lo <= v && v <= r.Hi }

func (r Range) Width() float64 { return r.Hi - r.Lo }

// Band is one row of a nutrient's STVI threshold table.
type Band struct {
	Class STVIClass
	Range
}
