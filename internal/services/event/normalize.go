package event

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const Measurement = "system_event"

// EventToPoint maps a CommonEvent onto a single InfluxDB point.
func EventToPoint(evt CommonEvent) *write.Point {
	tags := map[string]string{
		"event_type":     evt.EventType,
		"source_service": evt.SourceService,
		"severity":       evt.Severity,
	}
	if evt.FieldID != "" {
		tags["field_id"] = evt.FieldID
	}
	if evt.SampleID != "" {
		tags["sample_id"] = evt.SampleID
	}
	if evt.Variety != "" {
		tags["variety"] = evt.Variety
	}

	fields := make(map[string]interface{}, len(evt.Fields)+1)
	for k, v := range evt.Fields {
		fields[k] = v
	}
	// a point needs at least one field
	if _, ok := fields["count"]; !ok {
		fields["count"] = int64(1)
	}

	return influxdb2.NewPoint(Measurement, tags, fields, evt.Timestamp)
}
