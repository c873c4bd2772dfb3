package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes to a fixed topic or to an explicit one.
type IPublisher interface {
	PublishMessage(message any) error
	PublishTo(topic string, message any) error
	Close()
}

type Publisher struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewPublisher binds a publisher to a default topic; topic may be empty when only
// PublishTo is used.
func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic, timeout: 5 * time.Second}
}

// PublishMessage publishes to the default topic.
func (p *Publisher) PublishMessage(message any) error {
	return p.PublishTo(p.topic, message)
}

// PublishTo sends message to topic. Strings and byte slices go out as-is,
// anything else is JSON encoded.
func (p *Publisher) PublishTo(topic string, message any) error {
	if topic == "" {
		return fmt.Errorf("publish: empty topic")
	}
	payload, err := encodePayload(message)
	if err != nil {
		return err
	}

	token := p.client.Publish(topic, qosFor(topic), false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish to %s: timeout after %s", topic, p.timeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %w", token.Error())
	}

	log.Printf("mqtt: published %d bytes to %s", len(payload), topic)
	return nil
}

func (p *Publisher) Close() {
	CloseRabbitMQConn(p.client)
}

func encodePayload(message any) ([]byte, error) {
	switch m := message.(type) {
	case string:
		return []byte(m), nil
	case []byte:
		return m, nil
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("publish: encode %T: %w", message, err)
		}
		return b, nil
	}
}

// TopicFor fills the {field} placeholder of a topic template.
func TopicFor(tmpl, field string) string {
	return strings.ReplaceAll(tmpl, "{field}", field)
}

// FieldFromTopic returns the last segment of topic, e.g. "field_1" for "soil/test/field_1".
func FieldFromTopic(topic string) string {
	topic = strings.TrimRight(topic, "/")
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
