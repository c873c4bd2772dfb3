package soil_simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/messages"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/dedup"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/rabbitmq"
)

// SoilSimulator publishes soil tests for one field and applies the fertilizer
// recommended back to it.
type SoilSimulator struct {
	fieldID   string
	variety   string
	generator *DataGenerator
	publisher rabbitmq.IPublisher
	consumer  rabbitmq.IConsumer
	deduper   *dedup.Deduper
	now       func() time.Time
}

func NewSoilSimulator(consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher,
	gen *DataGenerator, fieldID, variety string) *SoilSimulator {
	return &SoilSimulator{
		fieldID:   fieldID,
		variety:   variety,
		generator: gen,
		publisher: publisher,
		consumer:  consumer,
		deduper:   dedup.New(2*time.Minute, 10000),
		now:       time.Now,
	}
}

// Start listens for recommendations and publishes a sample every interval until
// ctx is cancelled.
func (s *SoilSimulator) Start(ctx context.Context, interval time.Duration) {
	if s.consumer != nil {
		s.consumer.SetHandler(s.HandleRecommendation)
		go s.consumer.ConsumeMessage(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-ticker.C:
			if _, err := s.PublishSample(); err != nil {
				log.Printf("soil-sim: publish error: %v", err)
			}
		}
	}
}

// PublishSample draws the next soil test and publishes it.
func (s *SoilSimulator) PublishSample() (model.SoilTestEvent, error) {
	evt := messages.SoilTestEvent{
		FieldID:   s.fieldID,
		SampleID:  uuid.NewString(),
		SoilTest:  s.generator.Next(s.variety),
		Timestamp: s.now().UTC(),
	}
	n, _ := evt.Reading(entities.NutrientN)
	k, _ := evt.Reading(entities.NutrientK)
	log.Printf("soil-sim: pub field=%s sample=%s N=%.3f%% K=%.3f", evt.FieldID, evt.SampleID, n, k)
	return evt, s.publisher.PublishMessage(evt)
}

// HandleRecommendation applies the doses of a recommendation for this field.
func (s *SoilSimulator) HandleRecommendation(_ string, msg mqtt.Message) error {
	if !s.deduper.ShouldProcessPayload(msg.Payload()) {
		return nil
	}

	var evt messages.RecommendationEvent
	if err := json.Unmarshal(msg.Payload(), &evt); err != nil {
		return fmt.Errorf("invalid RecommendationEvent: %w", err)
	}
	field := evt.FieldID
	if field == "" {
		field = rabbitmq.FieldFromTopic(msg.Topic())
	}
	if field != s.fieldID || evt.Status != messages.StatusOK {
		return nil
	}

	for n, delta := range s.generator.ApplyDoses(evt.Doses) {
		log.Printf("soil-sim: field %s applied %s, level +%.3f -> %.3f (sample %s)",
			s.fieldID, n, delta, s.generator.Level(n), evt.SampleID)
	}
	return nil
}
