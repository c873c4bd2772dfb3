package messages

import (
	"time"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// SoilTestEvent is published on soil/test/{field} when a lab result (or the simulator) has a new sample.
type SoilTestEvent struct {
	FieldID  string `json:"field_id"`
	SampleID string `json:"sample_id"`
	entities.SoilTest
	Timestamp time.Time `json:"timestamp"`
}
