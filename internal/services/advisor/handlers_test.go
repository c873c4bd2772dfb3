package advisor_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/LeonardoBeccarini/agri_advisor/internal/fertilizer"
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/agri_advisor/internal/services/advisor"
)

func newTestAdvisor(t *testing.T, opts ...advisor.Option) (*advisor.Advisor, *advisor.Metrics) {
	t.Helper()
	m := advisor.NewMetrics()
	return advisor.NewAdvisor(advisor.Config{}, fertilizer.MustEngine(), m, opts...), m
}

func do(t *testing.T, h http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFertilizerHandler(t *testing.T) {
	app, metrics := newTestAdvisor(t)
	h := app.Routes()

	type Then struct {
		code int
		body map[string]any
	}
	theory := func(body string, then Then) func(*testing.T) {
		return func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/fertilizer", "application/json", []byte(body))
			if rec.Code != then.code {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, then.code, rec.Body)
			}
			var got map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("bad json %q: %v", rec.Body, err)
			}
			for k, want := range then.body {
				if got[k] != want {
					t.Errorf("%s = %#v, want %#v", k, got[k], want)
				}
			}
		}
	}

	t.Run("nitrogen for aman rice", theory(
		`{"variety":"Aman Rice","soilN":0.20,"soilP":null}`,
		Then{http.StatusOK, map[string]any{
			"results": "N - STVI: Medium | Recommended Nutrient = 21.65 kg/ha | Urea needed ≈ 46.98 kg/ha",
		}},
	))
	t.Run("numeric strings and blanks", theory(
		`{"variety":"aman_rice","soilN":"0.20","soilK":"","soilS":"n/a"}`,
		Then{http.StatusOK, map[string]any{
			"results": "N - STVI: Medium | Recommended Nutrient = 21.65 kg/ha | Urea needed ≈ 46.98 kg/ha",
		}},
	))
	t.Run("no readings", theory(
		`{"variety":"brri_5t","soilN":null,"soilP":null,"soilK":null,"soilS":null,"soilZn":null,"soilB":null}`,
		Then{http.StatusOK, map[string]any{"results": "No valid nutrient inputs given."}},
	))
	t.Run("unknown variety", theory(
		`{"variety":"Boro","soilN":0.2}`,
		Then{http.StatusBadRequest, map[string]any{"error": "Invalid variety selection."}},
	))
	t.Run("missing variety", theory(
		`{"soilN":0.2}`,
		Then{http.StatusBadRequest, map[string]any{"error": "Invalid variety selection."}},
	))
	t.Run("malformed body", theory(
		`{"variety":`,
		Then{http.StatusBadRequest, map[string]any{"error": "Invalid request body."}},
	))

	n, err := testutil.GatherAndCount(metrics.Registry, "advisor_requests_total")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("request series = %d, want 2 (200 and 400)", n)
	}
}

func TestFertilizerHandler_Detail(t *testing.T) {
	app, _ := newTestAdvisor(t)
	rec := do(t, app.Routes(), http.MethodPost, "/api/fertilizer?detail=1", "application/json",
		[]byte(`{"variety":"aman_rice","soilN":0.2,"soilP":35,"soilK":1000}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got advisor.FertilizerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Outcomes) != 3 {
		t.Fatalf("outcomes = %+v", got.Outcomes)
	}
	n, p, k := got.Outcomes[0], got.Outcomes[1], got.Outcomes[2]
	if n.Kind != "dose" || n.Class != "Medium" || n.Product != "Urea" || n.Dose == nil || n.Quantity == nil {
		t.Errorf("N outcome = %+v", n)
	}
	if p.Kind != "no_range" || p.Class != "Very High" || p.Dose != nil {
		t.Errorf("P outcome = %+v", p)
	}
	if k.Kind != "out_of_range" || k.Class != "" || k.Line != "K: Soil test value 1000 out of range or no data." {
		t.Errorf("K outcome = %+v", k)
	}
	if lines := strings.Split(got.Results, "\n"); len(lines) != 3 || lines[2] != k.Line {
		t.Errorf("results = %q", got.Results)
	}
}

func TestVarietiesHandler(t *testing.T) {
	app, _ := newTestAdvisor(t)
	rec := do(t, app.Routes(), http.MethodGet, "/api/fertilizer/varieties", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []advisor.VarietyDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 || got[0].ID != fertilizer.AmanRice || got[3].ID != fertilizer.BRRI3t {
		t.Errorf("varieties = %+v", got)
	}
	if strings.Contains(got[1].ShortLabel, "\n") {
		t.Errorf("short label spans lines: %q", got[1].ShortLabel)
	}
}

type yieldFunc func(context.Context, entities.YieldFeatures) (entities.YieldEstimate, error)

func (f yieldFunc) Predict(ctx context.Context, in entities.YieldFeatures) (entities.YieldEstimate, error) {
	return f(ctx, in)
}

func TestYieldHandler(t *testing.T) {
	const body = `{"Soil_Type":"Loam","Crop":"Rice","Rainfall_mm":"900","Temperature_Celsius":27.5,"Fertilizer_Used":true,"Irrigation_Used":"false"}`

	t.Run("simulated", func(t *testing.T) {
		app, _ := newTestAdvisor(t)
		rec := do(t, app.Routes(), http.MethodPost, "/api/yield", "application/json", []byte(body))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}
		var got advisor.YieldResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.Prediction != 5.0 {
			t.Errorf("prediction = %v, want 5.0", got.Prediction)
		}
	})

	t.Run("features reach the predictor", func(t *testing.T) {
		var seen entities.YieldFeatures
		app, _ := newTestAdvisor(t, advisor.WithYieldPredictor(yieldFunc(
			func(_ context.Context, f entities.YieldFeatures) (entities.YieldEstimate, error) {
				seen = f
				return entities.YieldEstimate{Prediction: 4.2}, nil
			})))
		rec := do(t, app.Routes(), http.MethodPost, "/api/yield", "application/json", []byte(body))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		want := entities.YieldFeatures{SoilType: "Loam", Crop: "Rice", RainfallMM: 900, TemperatureC: 27.5, FertilizerUsed: true}
		if seen != want {
			t.Errorf("features = %+v, want %+v", seen, want)
		}
	})

	for name, tc := range map[string]struct {
		err  error
		code int
		msg  string
	}{
		"collaborator failure": {errors.New("boom"), http.StatusBadGateway, "Failed to generate yield prediction."},
		"breaker open":         {advisor.ErrUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable."},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			app, _ := newTestAdvisor(t, advisor.WithYieldPredictor(yieldFunc(
				func(context.Context, entities.YieldFeatures) (entities.YieldEstimate, error) {
					return entities.YieldEstimate{}, tc.err
				})))
			rec := do(t, app.Routes(), http.MethodPost, "/api/yield", "application/json", []byte(body))
			if rec.Code != tc.code || !strings.Contains(rec.Body.String(), tc.msg) {
				t.Errorf("got %d %s, want %d %s", rec.Code, rec.Body, tc.code, tc.msg)
			}
		})
	}

	t.Run("invalid features", func(t *testing.T) {
		app, _ := newTestAdvisor(t)
		for _, b := range []string{
			`{"Soil_Type":"Lava","Crop":"Rice","Rainfall_mm":900,"Temperature_Celsius":20}`,
			`{"Soil_Type":"Loam","Crop":"Rice","Temperature_Celsius":20}`,
			`not json`,
		} {
			rec := do(t, app.Routes(), http.MethodPost, "/api/yield", "application/json", []byte(b))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", b, rec.Code)
			}
		}
	})
}

func multipartImage(t *testing.T, filename string, data []byte, model string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(data)
	}
	if model != "" {
		_ = mw.WriteField("model", model)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

type classifierFunc func(context.Context, entities.Image, string) (entities.Diagnosis, error)

func (f classifierFunc) Classify(ctx context.Context, img entities.Image, model string) (entities.Diagnosis, error) {
	return f(ctx, img, model)
}

func TestDiseaseHandler(t *testing.T) {
	t.Run("simulated by file name", func(t *testing.T) {
		app, _ := newTestAdvisor(t)
		body, ct := multipartImage(t, "potato_early_01.jpg", []byte("jpegbytes"), "")
		rec := do(t, app.Routes(), http.MethodPost, "/api/disease", ct, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}
		var got entities.Diagnosis
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.Label != "Potato___Early_blight" || got.Confidence == nil || *got.Confidence != 0.92 {
			t.Errorf("diagnosis = %+v", got)
		}
	})

	t.Run("model selection", func(t *testing.T) {
		var model string
		app, _ := newTestAdvisor(t, advisor.WithImageClassifier(classifierFunc(
			func(_ context.Context, img entities.Image, m string) (entities.Diagnosis, error) {
				model = m
				return entities.Diagnosis{Label: "Rice___Brown_spot"}, nil
			})))
		body, ct := multipartImage(t, "leaf.png", []byte("png"), "ViT")
		rec := do(t, app.Routes(), http.MethodPost, "/api/disease", ct, body)
		if rec.Code != http.StatusOK || model != advisor.ModelViT {
			t.Errorf("status %d, model %q", rec.Code, model)
		}
		if strings.Contains(rec.Body.String(), "confidence") {
			t.Errorf("absent confidence rendered: %s", rec.Body)
		}
	})

	t.Run("missing image", func(t *testing.T) {
		app, _ := newTestAdvisor(t)
		body, ct := multipartImage(t, "", nil, "keras")
		rec := do(t, app.Routes(), http.MethodPost, "/api/disease", ct, body)
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Image is required.") {
			t.Errorf("got %d %s", rec.Code, rec.Body)
		}
		rec = do(t, app.Routes(), http.MethodPost, "/api/disease", "application/json", []byte(`{}`))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("non-multipart: got %d", rec.Code)
		}
	})

	t.Run("classifier failure", func(t *testing.T) {
		app, _ := newTestAdvisor(t, advisor.WithImageClassifier(classifierFunc(
			func(context.Context, entities.Image, string) (entities.Diagnosis, error) {
				return entities.Diagnosis{}, errors.New("model crashed")
			})))
		body, ct := multipartImage(t, "leaf.png", []byte("png"), "")
		rec := do(t, app.Routes(), http.MethodPost, "/api/disease", ct, body)
		if rec.Code != http.StatusBadGateway || !strings.Contains(rec.Body.String(), "Failed to analyze image.") {
			t.Errorf("got %d %s", rec.Code, rec.Body)
		}
	})
}

type connState bool

func (c connState) IsConnectionOpen() bool { return bool(c) }

func TestProbes(t *testing.T) {
	app, _ := newTestAdvisor(t)
	h := app.Routes()

	if rec := do(t, h, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz: %d %q", rec.Code, rec.Body)
	}
	if rec := do(t, h, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz without mqtt: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("metrics: %d", rec.Code)
	}

	down, _ := newTestAdvisor(t, advisor.WithMQTT(connState(false), nil))
	rec := do(t, down.Routes(), http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"mqtt_connected":false`) {
		t.Errorf("readyz with mqtt down: %d %s", rec.Code, rec.Body)
	}
}

func TestCORS(t *testing.T) {
	app := advisor.NewAdvisor(advisor.Config{CORSOrigins: []string{"https://farm.example"}}, fertilizer.MustEngine(), nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/fertilizer", nil)
	req.Header.Set("Origin", "https://farm.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	app.Routes().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://farm.example" {
		t.Errorf("allow origin = %q", got)
	}
}
