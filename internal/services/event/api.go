package event

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// Recommendation is one stored nutrient dose as served to dashboards.
type Recommendation struct {
	FieldID  string  `json:"field_id,omitempty"`
	SampleID string  `json:"sample_id,omitempty"`
	Nutrient string  `json:"nutrient"`
	Dose     float64 `json:"dose"` // kg/ha
	Time     string  `json:"time"` // RFC3339
}

type recQueryParams struct {
	Minutes   int
	Limit     int
	TimeoutMS int
	Field     string
}

var fieldIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

func parseRec(r *http.Request, defMin, defLim, defTOms int) recQueryParams {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if max > 0 && n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	p := recQueryParams{
		Minutes:   get("minutes", defMin, 1, 7*24*60),
		Limit:     get("limit", defLim, 1, 500),
		TimeoutMS: get("timeout_ms", defTOms, 200, 5000),
	}
	// the field ends up inside the Flux text
	if f := strings.TrimSpace(q.Get("field")); fieldIDPattern.MatchString(f) {
		p.Field = f
	}
	return p
}

func buildFlux(bucket string, p recQueryParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q and r.event_type == %q)
`, bucket, p.Minutes, Measurement, TypeRecommendation)
	if p.Field != "" {
		fmt.Fprintf(&b, "  |> filter(fn: (r) => r.field_id == %q)\n", p.Field)
	}
	fmt.Fprintf(&b, `  |> filter(fn: (r) => strings.hasPrefix(v: r._field, prefix: "dose_"))
  |> keep(columns: ["_time","_value","_field","field_id","sample_id"])
  |> group()
  |> sort(columns: ["_time"], desc: true)
  |> limit(n:%d)
`, p.Limit)
	return `import "strings"` + "\n" + b.String()
}

func runRec(w http.ResponseWriter, r *http.Request, query api.QueryAPI, bucket string, defMin, defLim int) {
	p := parseRec(r, defMin, defLim, 2000)

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	res, err := query.Query(ctx, buildFlux(bucket, p))
	if err != nil {
		w.Header().Set("X-Error", "influx-query-error")
		_, _ = w.Write([]byte("[]"))
		return
	}
	defer res.Close()

	out := make([]Recommendation, 0, p.Limit)
	for res.Next() {
		rec := res.Record()
		out = append(out, Recommendation{
			FieldID:  stringValue(rec.ValueByKey("field_id")),
			SampleID: stringValue(rec.ValueByKey("sample_id")),
			Nutrient: strings.TrimPrefix(rec.Field(), "dose_"),
			Dose:     floatValue(rec.Value()),
			Time:     rec.Time().UTC().Format(time.RFC3339),
		})
	}
	if res.Err() != nil {
		w.Header().Set("X-Error", "influx-iter-error")
	}

	_ = json.NewEncoder(w).Encode(out)
}

func floatValue(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
	}
	return 0
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// NewRecommendationsLatestHandler serves
// GET /events/recommendations/latest?limit=20[&minutes=1440][&field=...]
func NewRecommendationsLatestHandler(query api.QueryAPI, bucket string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runRec(w, r, query, bucket, 1440, 20)
	})
}

// Routes mounts the probes and the query API.
func Routes(query api.QueryAPI, bucket string, health, ready http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/healthz", health)
	r.Method(http.MethodGet, "/readyz", ready)
	r.Method(http.MethodGet, "/events/recommendations/latest", NewRecommendationsLatestHandler(query, bucket))
	return r
}
