package soil_simulator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/messages"
	soilSimulator "github.com/LeonardoBeccarini/agri_advisor/internal/soil-simulator"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/rabbitmq"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type recordingPublisher struct {
	mu     sync.Mutex
	sent   []any
	closed bool
}

func (p *recordingPublisher) PublishMessage(m any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, m)
	return nil
}

func (p *recordingPublisher) PublishTo(_ string, m any) error { return p.PublishMessage(m) }

func (p *recordingPublisher) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

type idleConsumer struct {
	mu      sync.Mutex
	handler rabbitmq.Handler
}

func (c *idleConsumer) ConsumeMessage(ctx context.Context) { <-ctx.Done() }

func (c *idleConsumer) SetHandler(h rabbitmq.Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func TestPublishSample(t *testing.T) {
	pub := &recordingPublisher{}
	sim := soilSimulator.NewSoilSimulator(nil, pub, soilSimulator.NewDataGenerator(3), "field_1", "brri_4t")

	evt, err := sim.PublishSample()
	if err != nil {
		t.Fatalf("PublishSample: %v", err)
	}
	if evt.FieldID != "field_1" || evt.Variety != "brri_4t" || evt.SampleID == "" || evt.Timestamp.IsZero() {
		t.Errorf("unexpected event %+v", evt)
	}
	for _, n := range entities.Nutrients {
		if _, ok := evt.Reading(n); !ok {
			t.Errorf("%s missing", n)
		}
	}
	if got, ok := pub.sent[0].(messages.SoilTestEvent); !ok || got.SampleID != evt.SampleID {
		t.Errorf("published %#v", pub.sent[0])
	}
}

func TestHandleRecommendation(t *testing.T) {
	theory := func(topic, payload string, wantRise bool) func(*testing.T) {
		return func(t *testing.T) {
			gen := soilSimulator.NewDataGenerator(3)
			sim := soilSimulator.NewSoilSimulator(nil, &recordingPublisher{}, gen, "field_1", "aman_rice")
			before := gen.Level(entities.NutrientN)

			_ = sim.HandleRecommendation("", fakeMessage{topic, []byte(payload)})

			if rose := gen.Level(entities.NutrientN) > before; rose != wantRise {
				t.Errorf("N rose = %v, want %v", rose, wantRise)
			}
		}
	}

	const topic = "event/fertilizerRecommendation/field_1"
	t.Run("when the recommendation is for this field, then N is applied",
		theory(topic, `{"field_id":"field_1","status":"ok","doses":{"N":40}}`, true))
	t.Run("when the field is only in the topic, then N is applied",
		theory(topic, `{"status":"ok","doses":{"N":40}}`, true))
	t.Run("when the recommendation is for another field, then it is ignored",
		theory(topic, `{"field_id":"field_2","status":"ok","doses":{"N":40}}`, false))
	t.Run("when the recommendation failed, then it is ignored",
		theory(topic, `{"field_id":"field_1","status":"invalid_variety"}`, false))
	t.Run("when the payload is garbage, then it is ignored",
		theory(topic, `not json`, false))
}

func TestHandleRecommendation_Redelivery(t *testing.T) {
	gen := soilSimulator.NewDataGenerator(3)
	sim := soilSimulator.NewSoilSimulator(nil, &recordingPublisher{}, gen, "field_1", "aman_rice")
	m := fakeMessage{"event/fertilizerRecommendation/field_1", []byte(`{"field_id":"field_1","status":"ok","doses":{"K":10}}`)}

	_ = sim.HandleRecommendation("", m)
	once := gen.Level(entities.NutrientK)
	_ = sim.HandleRecommendation("", m)

	if got := gen.Level(entities.NutrientK); got != once {
		t.Errorf("redelivery applied twice: %v -> %v", once, got)
	}
}

func TestStart(t *testing.T) {
	pub := &recordingPublisher{}
	cons := &idleConsumer{}
	sim := soilSimulator.NewSoilSimulator(cons, pub, soilSimulator.NewDataGenerator(3), "field_1", "aman_rice")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for pub.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if pub.count() < 2 {
		t.Errorf("want at least 2 samples, got %d", pub.count())
	}
	pub.mu.Lock()
	closed := pub.closed
	pub.mu.Unlock()
	if !closed {
		t.Error("publisher should be closed on shutdown")
	}
	cons.mu.Lock()
	defer cons.mu.Unlock()
	if cons.handler == nil {
		t.Error("recommendation handler was not installed")
	}
}
