package soil_simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// DefaultSoilGridsURL queries topsoil total nitrogen (cg/kg). Fetched once at startup.
const DefaultSoilGridsURL = "https://rest.isric.org/soilgrids/v2.0/properties/query?lat=%f&lon=%f&property=nitrogen&depth=0-5cm&value=mean"

// drift describes how one nutrient wanders: hard bounds, starting value, the largest
// step per sample, and how much the reading rises per kg/ha of nutrient applied.
type drift struct {
	min, max float64
	start    float64
	step     float64
	perKg    float64
	decimals int
}

var drifts = map[entities.NutrientCode]drift{
	entities.NutrientN:  {min: 0.02, max: 0.50, start: 0.12, step: 0.004, perKg: 0.001, decimals: 3},
	entities.NutrientP:  {min: 1, max: 40, start: 10, step: 0.4, perKg: 0.15, decimals: 2},
	entities.NutrientK:  {min: 0.03, max: 0.45, start: 0.12, step: 0.004, perKg: 0.002, decimals: 3},
	entities.NutrientS:  {min: 3, max: 50, start: 14, step: 0.5, perKg: 0.3, decimals: 2},
	entities.NutrientZn: {min: 0.2, max: 3, start: 0.8, step: 0.03, perKg: 0.2, decimals: 2},
	entities.NutrientB:  {min: 0.05, max: 1, start: 0.25, step: 0.01, perKg: 0.3, decimals: 3},
}

// DataGenerator keeps the simulated soil state of one field.
type DataGenerator struct {
	mu         sync.Mutex
	rng        *rand.Rand
	state      map[entities.NutrientCode]float64
	seeded     bool
	httpClient *http.Client
	soilGrids  string
}

// NewDataGenerator starts every nutrient at its default value.
func NewDataGenerator(seed int64) *DataGenerator {
	g := &DataGenerator{
		rng:        rand.New(rand.NewSource(seed)),
		state:      make(map[entities.NutrientCode]float64, len(drifts)),
		httpClient: &http.Client{Timeout: 8 * time.Second},
		soilGrids:  DefaultSoilGridsURL,
	}
	for n, d := range drifts {
		g.state[n] = d.start
	}
	return g
}

// SetSoilGridsURL points the seed query elsewhere; the format takes lat then lon.
func (g *DataGenerator) SetSoilGridsURL(format string) { g.soilGrids = format }

// SeedFromSoilGrids replaces the N start value with the SoilGrids estimate for the
// location. It runs at most once; on failure the default stays.
func (g *DataGenerator) SeedFromSoilGrids(ctx context.Context, lat, lon float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.seeded {
		return nil
	}
	g.seeded = true
	if lat == 0 && lon == 0 {
		return nil
	}

	cgkg, err := g.fetchNitrogen(ctx, lat, lon)
	if err != nil {
		return err
	}
	d := drifts[entities.NutrientN]
	// cg/kg -> %
	g.state[entities.NutrientN] = clamp(cgkg/1000, d.min, d.max)
	return nil
}

// Next moves every nutrient one random step and returns the new readings.
func (g *DataGenerator) Next(variety string) entities.SoilTest {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := entities.SoilTest{Variety: variety}
	for _, n := range entities.Nutrients {
		d := drifts[n]
		v := g.state[n] + (g.rng.Float64()*2-1)*d.step
		v = clamp(v, d.min, d.max)
		g.state[n] = v
		t.Set(n, round(v, d.decimals))
	}
	return t
}

// ApplyDoses raises the state by the nutrient applied, in kg/ha, and returns the
// per-nutrient change actually made.
func (g *DataGenerator) ApplyDoses(doses map[string]float64) map[entities.NutrientCode]float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	changes := map[entities.NutrientCode]float64{}
	for key, kg := range doses {
		n, err := entities.ParseNutrient(key)
		if err != nil || kg <= 0 || math.IsNaN(kg) || math.IsInf(kg, 0) {
			continue
		}
		d := drifts[n]
		before := g.state[n]
		g.state[n] = clamp(before+kg*d.perKg, d.min, d.max)
		if delta := g.state[n] - before; delta > 0 {
			changes[n] = delta
		}
	}
	return changes
}

// Level returns the unrounded state of a nutrient.
func (g *DataGenerator) Level(n entities.NutrientCode) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state[n]
}

// ===== SoilGrids =====

var errNoValue = errors.New("soilgrids: nitrogen value not found")

func (g *DataGenerator) fetchNitrogen(ctx context.Context, lat, lon float64) (float64, error) {
	url := fmt.Sprintf(g.soilGrids, lat, lon)

	var val float64
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "agri-soil-simulator/1.0")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("soilgrids HTTP %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("soilgrids HTTP %d: %s", resp.StatusCode, string(body)))
		}

		var parsed any
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(err)
		}
		v := extractLayerValue(parsed)
		if v < 0 {
			return backoff.Permanent(errNoValue)
		}
		val = v
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 600 * time.Millisecond
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 1), ctx)); err != nil {
		return -1, err
	}
	return val, nil
}

// extractLayerValue finds the first layer's first depth value in a SoilGrids answer:
//
//	{"properties":{"layers":[{"name":"nitrogen","depths":[{"values":{"mean":150}}]}]}}
//
// The same layout may be wrapped in a GeoJSON feature.
func extractLayerValue(v any) float64 {
	m, ok := v.(map[string]any)
	if !ok {
		return -1
	}
	if feats, ok := m["features"].([]any); ok && len(feats) > 0 {
		if f0, ok := feats[0].(map[string]any); ok {
			if p, ok := f0["properties"].(map[string]any); ok {
				if x := extractFromProperties(p); x >= 0 {
					return x
				}
			}
		}
	}
	if p, ok := m["properties"].(map[string]any); ok {
		return extractFromProperties(p)
	}
	return -1
}

func extractFromProperties(p map[string]any) float64 {
	layers, ok := p["layers"].([]any)
	if !ok || len(layers) == 0 {
		return -1
	}
	l0, ok := layers[0].(map[string]any)
	if !ok {
		return -1
	}
	depths, ok := l0["depths"].([]any)
	if !ok || len(depths) == 0 {
		return -1
	}
	d0, ok := depths[0].(map[string]any)
	if !ok {
		return -1
	}
	vals, ok := d0["values"].(map[string]any)
	if !ok {
		return -1
	}
	for _, k := range []string{"mean", "Q0.5", "Q0.95", "Q0.05"} {
		if f, ok := vals[k].(float64); ok {
			return f
		}
	}
	return -1
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
