package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/LeonardoBeccarini/agri_advisor/internal/fertilizer"
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

const (
	msgInvalidBody      = "Invalid request body."
	msgInvalidVariety   = "Invalid variety selection."
	msgFertilizerFailed = "Failed to process fertilizer calculation."
	msgYieldFailed      = "Failed to generate yield prediction."
	msgImageRequired    = "Image is required."
	msgImageTooLarge    = "Image is too large."
	msgDiseaseFailed    = "Failed to analyze image."
	msgUnavailable      = "Service temporarily unavailable."
)

// Routes builds the advisor's HTTP API.
func (a *Advisor) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(2*a.cfg.HTTPTimeout + time.Second))

	origins := a.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", a.handleReady)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/fertilizer", a.instrument("fertilizer", a.handleFertilizer))
		r.Get("/fertilizer/varieties", a.instrument("varieties", a.handleVarieties))
		r.Post("/yield", a.instrument("yield", a.handleYield))
		r.Post("/disease", a.instrument("disease", a.handleDisease))
	})
	return r
}

func (a *Advisor) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		h(ww, r)
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		a.metrics.ObserveRequest(endpoint, code)
		log.Printf("advisor: %s %s -> %d [%dms]", r.Method, r.URL.Path, code, time.Since(start).Milliseconds())
	}
}

func (a *Advisor) handleFertilizer(w http.ResponseWriter, r *http.Request) {
	var req FertilizerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	rep, err := a.engine.Recommend(req.SoilTest)
	switch {
	case errors.Is(err, fertilizer.ErrInvalidVariety):
		log.Printf("advisor: fertilizer: %v", err)
		writeError(w, http.StatusBadRequest, msgInvalidVariety)
		return
	case err != nil:
		log.Printf("advisor: fertilizer: %v", err)
		writeError(w, http.StatusInternalServerError, msgFertilizerFailed)
		return
	}
	a.metrics.ObserveReport(rep)

	resp := FertilizerResponse{Results: rep.Text()}
	if detail, _ := strconv.ParseBool(r.URL.Query().Get("detail")); detail {
		resp.Outcomes = outcomeDTOs(rep)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Advisor) handleVarieties(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, varietyDTOs(a.engine.Varieties()))
}

func (a *Advisor) handleYield(w http.ResponseWriter, r *http.Request) {
	var req YieldRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := ValidateFeatures(req.YieldFeatures); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.cfg.HTTPTimeout)
	defer cancel()

	est, err := a.yield.Predict(ctx, req.YieldFeatures)
	if err != nil {
		log.Printf("advisor: yield prediction: %v", err)
		writeCollaboratorError(w, err, msgYieldFailed)
		return
	}
	writeJSON(w, http.StatusOK, YieldResponse{Prediction: est.Prediction, Unit: "t/ha"})
}

func (a *Advisor) handleDisease(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgImageTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgImageRequired)
		return
	}
	file, hdr, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, msgImageRequired)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, msgImageRequired)
		return
	}
	img := entities.Image{Name: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Data: data}
	model := NormalizeModel(r.FormValue("model"))

	ctx, cancel := context.WithTimeout(r.Context(), a.cfg.HTTPTimeout)
	defer cancel()

	diag, err := a.classifier.Classify(ctx, img, model)
	if err != nil {
		log.Printf("advisor: disease (%s, %s): %v", model, hdr.Filename, err)
		writeCollaboratorError(w, err, msgDiseaseFailed)
		return
	}
	writeJSON(w, http.StatusOK, diag)
}

func (a *Advisor) handleReady(w http.ResponseWriter, _ *http.Request) {
	type readiness struct {
		Ready         bool              `json:"ready"`
		MQTTConnected *bool             `json:"mqtt_connected,omitempty"`
		Breakers      map[string]string `json:"breakers"`
	}
	st := readiness{Ready: a.engine != nil, Breakers: map[string]string{}}
	if a.mqtt != nil {
		ok := a.mqtt.IsConnectionOpen()
		st.MQTTConnected = &ok
		st.Ready = st.Ready && ok
	}
	for _, u := range a.upstreams {
		st.Breakers[u.Name()] = u.State().String()
	}

	code := http.StatusOK
	if !st.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, st)
}

func writeCollaboratorError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, ErrUnavailable) {
		writeError(w, http.StatusServiceUnavailable, msgUnavailable)
		return
	}
	writeError(w, http.StatusBadGateway, msg)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
