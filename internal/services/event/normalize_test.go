package event_test

import (
	"testing"
	"time"

	"github.com/LeonardoBeccarini/agri_advisor/internal/services/event"
)

func TestEventToPoint(t *testing.T) {
	ts := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	p := event.EventToPoint(event.CommonEvent{
		EventType:     event.TypeRecommendation,
		SourceService: "advisor",
		FieldID:       "field_1",
		SampleID:      "s-1",
		Variety:       "aman_rice",
		Severity:      "info",
		Fields:        map[string]interface{}{"dose_N": 21.65},
		Timestamp:     ts,
	})

	if p.Name() != event.Measurement {
		t.Errorf("measurement = %q", p.Name())
	}
	if !p.Time().Equal(ts) {
		t.Errorf("time = %v", p.Time())
	}

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	want := map[string]string{
		"event_type":     event.TypeRecommendation,
		"source_service": "advisor",
		"severity":       "info",
		"field_id":       "field_1",
		"sample_id":      "s-1",
		"variety":        "aman_rice",
	}
	for k, v := range want {
		if tags[k] != v {
			t.Errorf("tag %s = %q, want %q", k, tags[k], v)
		}
	}

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["dose_N"] != 21.65 || fields["count"] != int64(1) {
		t.Errorf("unexpected fields %v", fields)
	}
}

func TestEventToPoint_OmitsEmptyTags(t *testing.T) {
	p := event.EventToPoint(event.CommonEvent{EventType: event.TypeSoilTest, Severity: "info"})
	for _, tag := range p.TagList() {
		switch tag.Key {
		case "field_id", "sample_id", "variety":
			t.Errorf("unexpected tag %s", tag.Key)
		}
	}
	if len(p.FieldList()) != 1 {
		t.Errorf("want only the count field, got %d", len(p.FieldList()))
	}
}
