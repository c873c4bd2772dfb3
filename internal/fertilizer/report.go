package fertilizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// NoInputsMessage is the whole result when no nutrient could be evaluated.
const NoInputsMessage = "No valid nutrient inputs given."

// OutcomeKind tells which step of the pipeline decided a nutrient's result.
type OutcomeKind int

const (
	KindDose OutcomeKind = iota
	KindOutOfRange
	KindNoVarietyData
	KindNoRange
	KindNoConversion
)

var kindNames = [...]string{"dose", "out_of_range", "no_variety_data", "no_range", "no_conversion"}

func (k OutcomeKind) String() string {
	if k < KindDose || k > KindNoConversion {
		return "unknown"
	}
	return kindNames[k]
}

func (k OutcomeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Outcome is the result for a single nutrient. Class is meaningful for every kind but
// KindOutOfRange; Dose for KindDose and KindNoConversion; Product and Quantity for KindDose.
type Outcome struct {
	Nutrient entities.NutrientCode `json:"nutrient"`
	Kind     OutcomeKind           `json:"kind"`
	Reading  float64               `json:"reading"`
	Class    entities.STVIClass    `json:"-"`
	Dose     float64               `json:"dose,omitempty"`
	Product  string                `json:"product,omitempty"`
	Quantity float64               `json:"quantity,omitempty"`
}

// HasDose reports whether a numeric nutrient dose was computed.
func (o Outcome) HasDose() bool { return o.Kind == KindDose || o.Kind == KindNoConversion }

// Report holds the outcomes of one request, in nutrient order.
type Report struct {
	Variety  entities.Variety
	Outcomes []Outcome
}

func (r Report) Empty() bool { return len(r.Outcomes) == 0 }

// Lines renders one line per outcome, or the single no-input sentence.
func (r Report) Lines() []string {
	if r.Empty() {
		return []string{NoInputsMessage}
	}
	out := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out = append(out, r.line(o))
	}
	return out
}

// Text is the newline-joined rendering returned to clients as "results".
func (r Report) Text() string { return strings.Join(r.Lines(), "\n") }

func (r Report) line(o Outcome) string {
	switch o.Kind {
	case KindOutOfRange:
		return fmt.Sprintf("%s: Soil test value %s out of range or no data.",
			o.Nutrient, strconv.FormatFloat(o.Reading, 'f', -1, 64))
	case KindNoVarietyData:
		return fmt.Sprintf("%s: No recommendation data for %s.", o.Nutrient, r.Variety.ShortLabel())
	case KindNoRange:
		return fmt.Sprintf("%s: No recommended range for STVI class '%s'.", o.Nutrient, o.Class)
	case KindNoConversion:
		return fmt.Sprintf("%s - STVI: %s | Recommended Nutrient = %.2f kg/ha | No fertilizer product data.",
			o.Nutrient, o.Class, o.Dose)
	default:
		return fmt.Sprintf("%s - STVI: %s | Recommended Nutrient = %.2f kg/ha | %s needed ≈ %.2f kg/ha",
			o.Nutrient, o.Class, o.Dose, o.Product, o.Quantity)
	}
}

// Doses maps nutrient code to the computed kg/ha for every outcome that has one.
func (r Report) Doses() map[string]float64 {
	m := map[string]float64{}
	for _, o := range r.Outcomes {
		if o.HasDose() {
			m[string(o.Nutrient)] = o.Dose
		}
	}
	return m
}

// Products maps nutrient code to the carrier product quantity in kg/ha.
func (r Report) Products() map[string]float64 {
	m := map[string]float64{}
	for _, o := range r.Outcomes {
		if o.Kind == KindDose {
			m[string(o.Nutrient)] = o.Quantity
		}
	}
	return m
}
