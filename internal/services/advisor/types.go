package advisor

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/agri_advisor/internal/fertilizer"
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// ---------- Requests ----------

// FertilizerRequest is the body of POST /api/fertilizer. Readings may arrive as
// numbers, numeric strings, empty strings or null; anything unusable is absent.
type FertilizerRequest struct {
	entities.SoilTest
}

func (r *FertilizerRequest) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	switch v := m["variety"].(type) {
	case string:
		r.Variety = v
	case float64:
		r.Variety = strconv.FormatFloat(v, 'f', -1, 64)
	}
	for _, n := range entities.Nutrients {
		if f, ok := lenientFloat(m["soil"+string(n)]); ok {
			r.Set(n, f)
		}
	}
	return nil
}

// YieldRequest is the body of POST /api/yield; form posts send everything as strings.
type YieldRequest struct {
	entities.YieldFeatures
}

func (y *YieldRequest) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if v, ok := m["Soil_Type"].(string); ok {
		y.SoilType = strings.TrimSpace(v)
	}
	if v, ok := m["Crop"].(string); ok {
		y.Crop = strings.TrimSpace(v)
	}
	y.RainfallMM = math.NaN()
	if f, ok := lenientFloat(m["Rainfall_mm"]); ok {
		y.RainfallMM = f
	}
	y.TemperatureC = math.NaN()
	if f, ok := lenientFloat(m["Temperature_Celsius"]); ok {
		y.TemperatureC = f
	}
	y.FertilizerUsed = lenientBool(m["Fertilizer_Used"])
	y.IrrigationUsed = lenientBool(m["Irrigation_Used"])
	return nil
}

func lenientFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func lenientBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1", "on":
			return true
		}
	}
	return false
}

// ---------- Responses ----------

type FertilizerResponse struct {
	Results  string       `json:"results"`
	Outcomes []OutcomeDTO `json:"outcomes,omitempty"`
}

// OutcomeDTO is the structured form of one result line, returned with ?detail=1.
type OutcomeDTO struct {
	Nutrient string   `json:"nutrient"`
	Kind     string   `json:"kind"`
	Reading  float64  `json:"reading"`
	Class    string   `json:"class,omitempty"`
	Dose     *float64 `json:"dose,omitempty"`
	Product  string   `json:"product,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
	Line     string   `json:"line"`
}

func outcomeDTOs(rep fertilizer.Report) []OutcomeDTO {
	lines := rep.Lines()
	out := make([]OutcomeDTO, 0, len(rep.Outcomes))
	for i, o := range rep.Outcomes {
		d := OutcomeDTO{
			Nutrient: string(o.Nutrient),
			Kind:     o.Kind.String(),
			Reading:  o.Reading,
			Line:     lines[i],
		}
		if o.Kind != fertilizer.KindOutOfRange {
			d.Class = o.Class.String()
		}
		if o.HasDose() {
			dose := o.Dose
			d.Dose = &dose
		}
		if o.Kind == fertilizer.KindDose {
			q := o.Quantity
			d.Product = o.Product
			d.Quantity = &q
		}
		out = append(out, d)
	}
	return out
}

type VarietyDTO struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	ShortLabel string `json:"short_label"`
}

func varietyDTOs(vs []entities.Variety) []VarietyDTO {
	out := make([]VarietyDTO, 0, len(vs))
	for _, v := range vs {
		out = append(out, VarietyDTO{ID: v.ID, Label: v.Label, ShortLabel: v.ShortLabel()})
	}
	return out
}

type YieldResponse struct {
	Prediction float64 `json:"prediction"`
	Unit       string  `json:"unit"`
}

type errorResponse struct {
	Error string `json:"error"`
}
