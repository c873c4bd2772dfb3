package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// YieldPredictor estimates crop yield from a feature record.
type YieldPredictor interface {
	Predict(ctx context.Context, f entities.YieldFeatures) (entities.YieldEstimate, error)
}

// HTTPYieldPredictor calls a model server that answers {"prediction": ...}.
type HTTPYieldPredictor struct {
	up *Upstream
}

func NewHTTPYieldPredictor(up *Upstream) *HTTPYieldPredictor {
	return &HTTPYieldPredictor{up: up}
}

func (p *HTTPYieldPredictor) Predict(ctx context.Context, f entities.YieldFeatures) (entities.YieldEstimate, error) {
	var resp yieldResponse
	if err := p.up.PostJSON(ctx, f, &resp); err != nil {
		return entities.YieldEstimate{}, err
	}
	if resp.Error != "" {
		return entities.YieldEstimate{}, fmt.Errorf("%s: %s", p.up.Name(), resp.Error)
	}
	if !resp.ok {
		return entities.YieldEstimate{}, fmt.Errorf("%s: no prediction in response", p.up.Name())
	}
	return entities.YieldEstimate{Prediction: resp.Prediction}, nil
}

// yieldResponse accepts the prediction as a number or as text such as
// "4.20 tons per hectare".
type yieldResponse struct {
	Prediction float64
	Error      string
	ok         bool
}

var leadingFloat = regexp.MustCompile(`^\s*([-+]?\d+(?:\.\d+)?)`)

func (y *yieldResponse) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if v, ok := m["error"].(string); ok {
		y.Error = v
	}
	switch x := m["prediction"].(type) {
	case float64:
		y.Prediction, y.ok = x, true
	case string:
		if sm := leadingFloat.FindStringSubmatch(x); sm != nil {
			if f, err := strconv.ParseFloat(sm[1], 64); err == nil {
				y.Prediction, y.ok = f, true
			}
		}
	}
	return nil
}

// SimulatedYieldPredictor is a rule-of-thumb estimate for when no model server is configured.
type SimulatedYieldPredictor struct{}

func (SimulatedYieldPredictor) Predict(_ context.Context, f entities.YieldFeatures) (entities.YieldEstimate, error) {
	y := 3.5
	if f.FertilizerUsed {
		y += 0.8
	}
	if f.IrrigationUsed {
		y += 0.6
	}
	switch f.SoilType {
	case "Loam":
		y += 0.4
	case "Clay":
		y += 0.2
	}
	if f.RainfallMM > 700 && f.RainfallMM < 1200 {
		y += 0.3
	}
	return entities.YieldEstimate{Prediction: math.Round(y*100) / 100}, nil
}

// ErrInvalidFeatures marks a yield request that fails validation.
var ErrInvalidFeatures = errors.New("invalid yield features")

// ValidateFeatures checks the categorical fields against the model's training set.
func ValidateFeatures(f entities.YieldFeatures) error {
	if !contains(entities.SoilTypes, f.SoilType) {
		return fmt.Errorf("%w: unknown soil type %q", ErrInvalidFeatures, f.SoilType)
	}
	if !contains(entities.Crops, f.Crop) {
		return fmt.Errorf("%w: unknown crop %q", ErrInvalidFeatures, f.Crop)
	}
	if math.IsNaN(f.RainfallMM) || math.IsInf(f.RainfallMM, 0) || f.RainfallMM < 0 {
		return fmt.Errorf("%w: rainfall %v", ErrInvalidFeatures, f.RainfallMM)
	}
	if math.IsNaN(f.TemperatureC) || math.IsInf(f.TemperatureC, 0) {
		return fmt.Errorf("%w: temperature %v", ErrInvalidFeatures, f.TemperatureC)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
