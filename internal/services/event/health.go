package event

import (
	"encoding/json"
	"net/http"
	"time"
)

// ConnState is the part of mqtt.Client the probes need.
type ConnState interface {
	IsConnectionOpen() bool
}

type healthHandler struct {
	mqtt     ConnState
	influxOK bool
	writer   *Writer
}

// NewHealthHandler reports ok, degraded or down. influxOK is whether a client was built.
func NewHealthHandler(m ConnState, influxOK bool, w *Writer) http.Handler {
	return &healthHandler{mqtt: m, influxOK: influxOK, writer: w}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status          string  `json:"status"`
		MQTTConnected   bool    `json:"mqtt_connected"`
		InfluxOK        bool    `json:"influx_ok"`
		LastWriteErrorS float64 `json:"last_write_error_age_sec"`
		Recommendations int64   `json:"recommendations_ingested"`
		SoilTests       int64   `json:"soil_tests_ingested"`
	}
	st := status{
		MQTTConnected:   h.mqtt != nil && h.mqtt.IsConnectionOpen(),
		InfluxOK:        h.influxOK,
		LastWriteErrorS: h.writer.LastErrorAge().Seconds(),
		Recommendations: h.writer.Count(TypeRecommendation),
		SoilTests:       h.writer.Count(TypeSoilTest),
	}

	switch {
	case st.MQTTConnected && st.InfluxOK && h.writer.LastErrorAge() > 30*time.Second:
		st.Status = "ok"
	case st.MQTTConnected || st.InfluxOK:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

type readyHandler struct {
	mqtt     ConnState
	influxOK bool
	writer   *Writer
	minError time.Duration
}

// NewReadyHandler answers 200 only when every dependency is up and no write
// failed within minOkErrorAge.
func NewReadyHandler(m ConnState, influxOK bool, w *Writer, minOkErrorAge time.Duration) http.Handler {
	return &readyHandler{mqtt: m, influxOK: influxOK, writer: w, minError: minOkErrorAge}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := h.mqtt != nil && h.mqtt.IsConnectionOpen() && h.influxOK && h.writer.LastErrorAge() > h.minError
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: ready})
}
