package event

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
	msg "github.com/LeonardoBeccarini/agri_advisor/internal/model/messages"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/dedup"
)

const (
	TypeRecommendation = "fertilizer.recommendation"
	TypeSoilTest       = "soil.test"

	recommendationPrefix = "event/fertilizerRecommendation/"
	soilTestPrefix       = "soil/test/"
)

type CommonEvent struct {
	EventType     string // fertilizer.recommendation | soil.test
	SourceService string // advisor | soil-simulator
	FieldID       string
	SampleID      string
	Variety       string
	Severity      string // info|warning|error
	Fields        map[string]interface{}
	Timestamp     time.Time
}

// MQTTHandler turns MQTT deliveries into CommonEvent and hands them to sink.
type MQTTHandler struct {
	sink    func(CommonEvent)
	deduper *dedup.Deduper
	now     func() time.Time
}

// NewMQTTHandler builds a handler; d may be nil to disable redelivery filtering.
func NewMQTTHandler(sink func(CommonEvent), d *dedup.Deduper) *MQTTHandler {
	return &MQTTHandler{sink: sink, deduper: d, now: time.Now}
}

func (h *MQTTHandler) Handle(_ string, m mqtt.Message) error {
	topic := m.Topic()
	payload := m.Payload()

	var (
		evt CommonEvent
		err error
	)
	switch {
	case strings.HasPrefix(topic, recommendationPrefix):
		evt, err = decodeRecommendation(topic, payload)
	case strings.HasPrefix(topic, soilTestPrefix):
		evt, err = decodeSoilTest(topic, payload)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	// both topics are QoS 1: drop broker redeliveries
	if !h.deduper.ShouldProcessPayload(payload) {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = h.now().UTC()
	}
	if h.sink != nil {
		h.sink(evt)
	}
	return nil
}

func decodeRecommendation(topic string, payload []byte) (CommonEvent, error) {
	var r msg.RecommendationEvent
	if err := json.Unmarshal(payload, &r); err != nil {
		return CommonEvent{}, err
	}
	fieldID := pickField(topic, r.FieldID, recommendationPrefix)
	if fieldID == "" {
		return CommonEvent{}, errors.New("recommendation: missing field")
	}

	sev := "info"
	switch r.Status {
	case msg.StatusOK:
	case msg.StatusEmpty:
		sev = "warning"
	default:
		sev = "error"
	}

	fields := map[string]interface{}{
		"status": r.Status,
		"lines":  int64(len(r.Lines)),
	}
	for n, v := range r.Doses {
		fields["dose_"+n] = v
	}
	for n, v := range r.Products {
		fields["product_"+n] = v
	}

	return CommonEvent{
		EventType:     TypeRecommendation,
		SourceService: "advisor",
		FieldID:       fieldID,
		SampleID:      r.SampleID,
		Variety:       r.Variety,
		Severity:      sev,
		Fields:        fields,
		Timestamp:     r.Timestamp,
	}, nil
}

func decodeSoilTest(topic string, payload []byte) (CommonEvent, error) {
	var s msg.SoilTestEvent
	if err := json.Unmarshal(payload, &s); err != nil {
		return CommonEvent{}, err
	}
	fieldID := pickField(topic, s.FieldID, soilTestPrefix)
	if fieldID == "" {
		return CommonEvent{}, errors.New("soil test: missing field")
	}

	fields := map[string]interface{}{}
	for _, n := range entities.Nutrients {
		if v, ok := s.Reading(n); ok {
			fields["soil_"+string(n)] = v
		}
	}
	if len(fields) == 0 {
		return CommonEvent{}, errors.New("soil test: no readings")
	}

	return CommonEvent{
		EventType:     TypeSoilTest,
		SourceService: "soil-simulator",
		FieldID:       fieldID,
		SampleID:      s.SampleID,
		Variety:       s.Variety,
		Severity:      "info",
		Fields:        fields,
		Timestamp:     s.Timestamp,
	}, nil
}

// pickField prefers the payload, then the topic "prefix/{field}".
func pickField(topic, fieldID, prefix string) string {
	if f := strings.TrimSpace(fieldID); f != "" {
		return f
	}
	suffix := strings.Trim(strings.TrimPrefix(topic, prefix), "/")
	if suffix == "" {
		return ""
	}
	return strings.Split(suffix, "/")[0]
}
