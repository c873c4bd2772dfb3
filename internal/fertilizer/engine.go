package fertilizer

import (
	"fmt"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// Engine turns soil tests into fertilizer recommendations.
// It is immutable once built and safe for concurrent use.
type Engine struct {
	thresholds  Thresholds
	catalog     *Catalog
	conversions Conversions
}

type engineConfig struct {
	thresholds  Thresholds
	varieties   []entities.Variety
	conversions Conversions
}

type Option func(*engineConfig)

// WithVarieties adds varieties to the built-in ones. A variety whose ID matches a
// built-in one replaces it.
func WithVarieties(vs ...entities.Variety) Option {
	return func(c *engineConfig) {
		c.varieties = mergeVarieties(c.varieties, vs)
	}
}

// WithThresholds replaces the STVI bands.
func WithThresholds(t Thresholds) Option {
	return func(c *engineConfig) { c.thresholds = t }
}

// WithConversions replaces the fertilizer product table.
func WithConversions(cv Conversions) Option {
	return func(c *engineConfig) { c.conversions = cv }
}

func NewEngine(opts ...Option) (*Engine, error) {
	cfg := engineConfig{
		thresholds:  DefaultThresholds,
		varieties:   DefaultVarieties,
		conversions: DefaultConversions,
	}
	for _, o := range opts {
		o(&cfg)
	}

	if err := cfg.thresholds.Validate(); err != nil {
		return nil, err
	}
	for n, cv := range cfg.conversions {
		if cv.Ratio <= 0 {
			return nil, fmt.Errorf("conversions: %s ratio %v must be positive", n, cv.Ratio)
		}
	}
	cat, err := NewCatalog(cfg.varieties...)
	if err != nil {
		return nil, err
	}
	return &Engine{
		thresholds:  cfg.thresholds.clone(),
		catalog:     cat,
		conversions: cfg.conversions.clone(),
	}, nil
}

// MustEngine builds the default engine and panics on a broken built-in table.
func MustEngine() *Engine {
	e, err := NewEngine()
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Engine) Catalog() *Catalog { return e.catalog }

func (e *Engine) Varieties() []entities.Variety { return e.catalog.Varieties() }

// Recommend evaluates every usable reading of t. Only an unknown variety is an error;
// every other problem becomes a per-nutrient outcome.
func (e *Engine) Recommend(t entities.SoilTest) (Report, error) {
	v, ok := e.catalog.Resolve(t.Variety)
	if !ok {
		return Report{}, fmt.Errorf("%w: %q", ErrInvalidVariety, t.Variety)
	}

	rep := Report{Variety: v}
	for _, n := range entities.Nutrients {
		st, ok := t.Reading(n)
		if !ok {
			continue
		}
		rep.Outcomes = append(rep.Outcomes, e.evaluate(v, n, st))
	}
	return rep, nil
}

func (e *Engine) evaluate(v entities.Variety, n entities.NutrientCode, st float64) Outcome {
	o := Outcome{Nutrient: n, Reading: st}

	band, ok := e.thresholds.Classify(n, st)
	if !ok {
		o.Kind = KindOutOfRange
		return o
	}
	o.Class = band.Class

	targets, ok := v.Targets[n]
	if !ok {
		o.Kind = KindNoVarietyData
		return o
	}
	r := targets[band.Class]
	if r == nil {
		o.Kind = KindNoRange
		return o
	}

	o.Dose = ComputeDose(r.Hi, r.Width(), band.Width(), st, band.Lo)

	conv, qty, ok := e.conversions.Convert(n, o.Dose)
	if !ok {
		o.Kind = KindNoConversion
		return o
	}
	o.Kind = KindDose
	o.Product = conv.Product
	o.Quantity = qty
	return o
}

func mergeVarieties(base, extra []entities.Variety) []entities.Variety {
	out := append([]entities.Variety(nil), base...)
	for _, v := range extra {
		replaced := false
		for i := range out {
			if equalID(out[i].ID, v.ID) {
				out[i] = v
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, v)
		}
	}
	return out
}
