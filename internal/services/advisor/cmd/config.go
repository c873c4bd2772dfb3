package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	GRPCPort string
	Timeout  time.Duration

	CORSOrigins      []string
	VarietyTablePath string
	MaxUploadMB      int

	// Collaborators; an empty URL selects the built-in simulation.
	YieldURL    string
	YieldPath   string
	DiseaseURL  string
	DiseasePath string

	CBFails         int
	CBOpenFor       time.Duration
	CBInterval      time.Duration
	UpstreamRetries int

	MQTTEnabled         bool
	RabbitHost          string
	RabbitPort          int
	RabbitUser          string
	RabbitPassword      string
	MQTTClientID        string
	SoilTestSubTopic    string
	RecommendationTopic string
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return d
}

func getenvMs(k string, d int) time.Duration {
	return time.Duration(getenvInt(k, d)) * time.Millisecond
}

func getenvBool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return d
}

func getenvList(k string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(k), ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func loadConfig() Config {
	return Config{
		Port:     getenv("PORT", "8080"),
		GRPCPort: getenv("GRPC_PORT", "50051"),
		Timeout:  getenvMs("TIMEOUT_MS", 3000),

		CORSOrigins:      getenvList("CORS_ORIGINS"),
		VarietyTablePath: getenv("VARIETY_TABLE_PATH", ""),
		MaxUploadMB:      getenvInt("MAX_UPLOAD_MB", 10),

		YieldURL:    getenv("YIELD_URL", ""),
		YieldPath:   getenv("YIELD_PATH", "/predict"),
		DiseaseURL:  getenv("DISEASE_URL", ""),
		DiseasePath: getenv("DISEASE_PATH", "/api/disease-python"),

		CBFails:         getenvInt("CB_FAILS", 3),
		CBOpenFor:       getenvMs("CB_OPEN_MS", 10000),
		CBInterval:      getenvMs("CB_INTERVAL_MS", 60000),
		UpstreamRetries: getenvInt("UPSTREAM_RETRIES", 2),

		MQTTEnabled:         getenvBool("MQTT_ENABLED", false),
		RabbitHost:          getenv("RABBITMQ_HOST", "localhost"),
		RabbitPort:          getenvInt("RABBITMQ_PORT", 1883),
		RabbitUser:          getenv("RABBITMQ_USER", "guest"),
		RabbitPassword:      getenv("RABBITMQ_PASSWORD", "guest"),
		MQTTClientID:        getenv("MQTT_CLIENT_ID", "advisor-"+getenv("HOSTNAME", "local")),
		SoilTestSubTopic:    getenv("SOIL_TEST_SUB_TOPIC", "soil/test/#"),
		RecommendationTopic: getenv("RECOMMENDATION_TOPIC_TEMPLATE", "event/fertilizerRecommendation/{field}"),
	}
}
