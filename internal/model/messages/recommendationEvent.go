package messages

import "time"

// Recommendation statuses carried by RecommendationEvent.
const (
	StatusOK             = "ok"
	StatusInvalidVariety = "invalid_variety"
	StatusEmpty          = "empty"
)

// RecommendationEvent is published by the advisor on event/fertilizerRecommendation/{field}
// for every soil test it processed.
type RecommendationEvent struct {
	ID        string             `json:"id"`
	FieldID   string             `json:"field_id"`
	SampleID  string             `json:"sample_id"`
	Variety   string             `json:"variety"`
	Status    string             `json:"status"`
	Lines     []string           `json:"lines"`
	Doses     map[string]float64 `json:"doses,omitempty"`    // nutrient -> kg/ha
	Products  map[string]float64 `json:"products,omitempty"` // nutrient -> product kg/ha
	Timestamp time.Time          `json:"timestamp"`
}
