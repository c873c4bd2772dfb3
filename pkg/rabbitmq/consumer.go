package rabbitmq

import (
	"context"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one delivery; topic is the subscription filter it arrived on.
type Handler func(topic string, message mqtt.Message) error

type IConsumer interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler Handler)
}

// Consumer subscribes one or more topic filters with a shared handler.
type Consumer struct {
	client  mqtt.Client
	topics  []string
	handler Handler
}

func NewConsumer(client mqtt.Client, topic string, handler Handler) *Consumer {
	return NewMultiConsumer(client, []string{topic}, handler)
}

func NewMultiConsumer(client mqtt.Client, topics []string, handler Handler) *Consumer {
	return &Consumer{client: client, topics: topics, handler: handler}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// qosFor: soil tests and recommendations must not be lost, everything else is best effort.
func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "soil/test") ||
		strings.HasPrefix(t, "event/fertilizerRecommendation") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes every topic and blocks until ctx is cancelled.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	for _, topic := range c.topics {
		topic := topic
		token := c.client.Subscribe(topic, qosFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if c.handler == nil {
				log.Printf("mqtt: no handler set for topic %s", topic)
				return
			}
			if err := c.handler(topic, msg); err != nil {
				log.Printf("mqtt: error handling message on %s: %v", msg.Topic(), err)
			}
		})
		if token.Wait() && token.Error() != nil {
			log.Printf("mqtt: subscribe %s: %v", topic, token.Error())
			continue
		}
		log.Printf("mqtt: subscribed to %s (qos %d)", topic, qosFor(topic))
	}

	<-ctx.Done()

	if c.client.IsConnected() {
		c.client.Unsubscribe(c.topics...).Wait()
	}
}
