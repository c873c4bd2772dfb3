package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/LeonardoBeccarini/agri_advisor/internal/fertilizer"
	"github.com/LeonardoBeccarini/agri_advisor/internal/services/advisor"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/rabbitmq"
)

func main() {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === Engine ===
	var engineOpts []fertilizer.Option
	if cfg.VarietyTablePath != "" {
		extra, err := fertilizer.LoadVarietiesFile(cfg.VarietyTablePath)
		if err != nil {
			log.Fatalf("advisor: variety overlay %s: %v", cfg.VarietyTablePath, err)
		}
		engineOpts = append(engineOpts, fertilizer.WithVarieties(extra...))
		log.Printf("advisor: loaded %d varieties from %s", len(extra), cfg.VarietyTablePath)
	}
	engine, err := fertilizer.NewEngine(engineOpts...)
	if err != nil {
		log.Fatalf("advisor: engine: %v", err)
	}

	metrics := advisor.NewMetrics()

	// === Collaborators (one breaker each) ===
	opts := []advisor.Option{}
	if cfg.YieldURL != "" {
		up := advisor.NewUpstream(upstreamConfig(cfg, "yield-predictor", cfg.YieldURL, cfg.YieldPath, cfg.UpstreamRetries), metrics)
		opts = append(opts, advisor.WithYieldPredictor(advisor.NewHTTPYieldPredictor(up)), advisor.WithUpstreams(up))
		log.Printf("advisor: yield predictor at %s", up.URL())
	} else {
		log.Printf("advisor: YIELD_URL not set, yield predictions are simulated")
	}
	if cfg.DiseaseURL != "" {
		// image uploads are not retried
		up := advisor.NewUpstream(upstreamConfig(cfg, "image-classifier", cfg.DiseaseURL, cfg.DiseasePath, 0), metrics)
		opts = append(opts, advisor.WithImageClassifier(advisor.NewHTTPImageClassifier(up)), advisor.WithUpstreams(up))
		log.Printf("advisor: image classifier at %s", up.URL())
	} else {
		log.Printf("advisor: DISEASE_URL not set, image diagnosis is simulated")
	}

	// === MQTT (optional) ===
	var consumer *rabbitmq.Consumer
	if cfg.MQTTEnabled {
		client, err := rabbitmq.NewRabbitMQConn(&rabbitmq.RabbitMQConfig{
			Host:     cfg.RabbitHost,
			Port:     cfg.RabbitPort,
			User:     cfg.RabbitUser,
			Password: cfg.RabbitPassword,
			ClientID: cfg.MQTTClientID,
		}, ctx)
		if err != nil {
			log.Fatalf("advisor: mqtt: %v", err)
		}
		opts = append(opts, advisor.WithMQTT(client, rabbitmq.NewPublisher(client, "")))
		consumer = rabbitmq.NewConsumer(client, cfg.SoilTestSubTopic, nil)
	}

	app := advisor.NewAdvisor(advisor.Config{
		HTTPTimeout:             cfg.Timeout,
		MaxUploadBytes:          int64(cfg.MaxUploadMB) << 20,
		CORSOrigins:             cfg.CORSOrigins,
		RecommendationTopicTmpl: cfg.RecommendationTopic,
	}, engine, metrics, opts...)

	if consumer != nil {
		consumer.SetHandler(app.HandleSoilTest)
		go consumer.ConsumeMessage(ctx)
		log.Printf("advisor: soil tests from %s -> %s", cfg.SoilTestSubTopic, cfg.RecommendationTopic)
	}

	// === gRPC ===
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalf("advisor: listen grpc :%s: %v", cfg.GRPCPort, err)
	}
	gs := grpc.NewServer()
	advisor.RegisterFertilizerAdvisorServer(gs, advisor.NewGRPCServer(app))
	go func() {
		log.Printf("advisor: gRPC %s on :%s", advisor.GRPCServiceName, cfg.GRPCPort)
		if err := gs.Serve(lis); err != nil {
			log.Printf("advisor: grpc serve: %v", err)
		}
	}()

	// === HTTP ===
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("advisor: HTTP listening on :%s (%d varieties)", cfg.Port, len(engine.Varieties()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("advisor: http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("advisor: shutting down...")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	gs.GracefulStop()
}

func upstreamConfig(cfg Config, name, base, path string, retries int) advisor.UpstreamConfig {
	return advisor.UpstreamConfig{
		Name:            name,
		BaseURL:         base,
		Path:            path,
		Timeout:         cfg.Timeout,
		BreakerFailures: cfg.CBFails,
		BreakerOpenFor:  cfg.CBOpenFor,
		BreakerInterval: cfg.CBInterval,
		Retries:         retries,
	}
}
