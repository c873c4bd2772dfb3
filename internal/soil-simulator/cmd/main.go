package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	soilSimulator "github.com/LeonardoBeccarini/agri_advisor/internal/soil-simulator"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/rabbitmq"
)

func main() {
	fieldID := flag.String("field-id", "field_1", "unique field identifier")
	variety := flag.String("variety", "aman_rice", "variety grown on the field")
	clientID := flag.String("client-id", "soilPublisher1", "MQTT client ID")
	interval := flag.Duration("interval", 30*time.Second, "publish interval")
	lat := flag.Float64("lat", 23.8103, "latitude")
	lon := flag.Float64("lon", 90.4125, "longitude")
	host := flag.String("broker-host", "localhost", "MQTT broker host")
	port := flag.Int("broker-port", 1883, "MQTT broker port")
	flag.Parse()

	cfg := &rabbitmq.RabbitMQConfig{
		Host:     *host,
		Port:     *port,
		User:     "guest",
		Password: "guest",
		ClientID: *clientID,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := rabbitmq.NewRabbitMQConn(cfg, ctx)
	if err != nil {
		log.Fatal(err)
	}

	publisher := rabbitmq.NewPublisher(client, rabbitmq.TopicFor("soil/test/{field}", *fieldID))
	consumer := rabbitmq.NewConsumer(client, rabbitmq.TopicFor("event/fertilizerRecommendation/{field}", *fieldID), nil)

	generator := soilSimulator.NewDataGenerator(time.Now().UnixNano())
	if err := generator.SeedFromSoilGrids(ctx, *lat, *lon); err != nil {
		log.Printf("soil-sim: soilgrids seed failed, using defaults: %v", err)
	}

	sim := soilSimulator.NewSoilSimulator(consumer, publisher, generator, *fieldID, *variety)
	sim.Start(ctx, *interval)
}
