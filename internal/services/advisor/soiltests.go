package advisor

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/messages"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/rabbitmq"
)

// HandleSoilTest consumes soil/test/{field}, runs the engine and publishes the
// recommendation on the field's recommendation topic.
func (a *Advisor) HandleSoilTest(_ string, msg mqtt.Message) error {
	if !a.deduper.ShouldProcessPayload(msg.Payload()) {
		return nil
	}

	var evt model.SoilTestEvent
	if err := json.Unmarshal(msg.Payload(), &evt); err != nil {
		log.Printf("advisor: soil test: bad payload on %s: %v", msg.Topic(), err)
		a.metrics.ObserveSoilTest("bad_payload")
		return nil
	}
	if evt.FieldID == "" {
		evt.FieldID = rabbitmq.FieldFromTopic(msg.Topic())
	}

	out := a.Recommendation(evt)
	a.metrics.ObserveSoilTest(out.Status)
	log.Printf("advisor: soil test %s/%s variety=%q status=%s lines=%d",
		out.FieldID, out.SampleID, evt.Variety, out.Status, len(out.Lines))

	if a.publisher == nil {
		return nil
	}
	return a.publisher.PublishTo(rabbitmq.TopicFor(a.cfg.RecommendationTopicTmpl, out.FieldID), out)
}

// Recommendation evaluates a soil test event into the event that is published for it.
func (a *Advisor) Recommendation(evt model.SoilTestEvent) model.RecommendationEvent {
	out := messages.RecommendationEvent{
		ID:        uuid.NewString(),
		FieldID:   evt.FieldID,
		SampleID:  evt.SampleID,
		Variety:   evt.Variety,
		Timestamp: time.Now().UTC(),
	}

	rep, err := a.engine.Recommend(evt.SoilTest)
	if err != nil {
		out.Status = messages.StatusInvalidVariety
		out.Lines = []string{msgInvalidVariety}
		return out
	}
	a.metrics.ObserveReport(rep)

	out.Variety = rep.Variety.ID
	out.Lines = rep.Lines()
	if rep.Empty() {
		out.Status = messages.StatusEmpty
		return out
	}
	out.Status = messages.StatusOK
	out.Doses = rep.Doses()
	out.Products = rep.Products()
	return out
}
