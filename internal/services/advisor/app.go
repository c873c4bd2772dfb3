package advisor

import (
	"time"

	"github.com/LeonardoBeccarini/agri_advisor/internal/fertilizer"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/dedup"
)

type Config struct {
	// HTTPTimeout bounds each collaborator call made on behalf of a request.
	HTTPTimeout    time.Duration
	MaxUploadBytes int64
	CORSOrigins    []string

	// RecommendationTopicTmpl is where soil test results are published; {field} is replaced.
	RecommendationTopicTmpl string
}

// ConnState is the part of an MQTT client readiness needs.
type ConnState interface {
	IsConnectionOpen() bool
}

// Publisher sends recommendation events; *rabbitmq.Publisher satisfies it.
type Publisher interface {
	PublishTo(topic string, message any) error
}

type Advisor struct {
	cfg        Config
	engine     *fertilizer.Engine
	yield      YieldPredictor
	classifier ImageClassifier
	metrics    *Metrics
	upstreams  []*Upstream

	mqtt      ConnState
	publisher Publisher
	deduper   *dedup.Deduper
}

type Option func(*Advisor)

func WithYieldPredictor(p YieldPredictor) Option {
	return func(a *Advisor) { a.yield = p }
}

func WithImageClassifier(c ImageClassifier) Option {
	return func(a *Advisor) { a.classifier = c }
}

// WithUpstreams lists the collaborator upstreams whose breakers /readyz reports.
func WithUpstreams(us ...*Upstream) Option {
	return func(a *Advisor) { a.upstreams = append(a.upstreams, us...) }
}

// WithMQTT enables the soil test pipeline: results go out through pub and
// readiness follows conn.
func WithMQTT(conn ConnState, pub Publisher) Option {
	return func(a *Advisor) {
		a.mqtt = conn
		a.publisher = pub
	}
}

// NewAdvisor wires the engine to its surfaces. Collaborators default to the simulated ones.
func NewAdvisor(cfg Config, engine *fertilizer.Engine, m *Metrics, opts ...Option) *Advisor {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 3 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.RecommendationTopicTmpl == "" {
		cfg.RecommendationTopicTmpl = "event/fertilizerRecommendation/{field}"
	}
	a := &Advisor{
		cfg:        cfg,
		engine:     engine,
		yield:      SimulatedYieldPredictor{},
		classifier: SimulatedImageClassifier{},
		metrics:    m,
		deduper:    dedup.New(10*time.Minute, 20000),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Advisor) Engine() *fertilizer.Engine { return a.engine }
