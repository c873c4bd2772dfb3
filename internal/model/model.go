package model

import (
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
	"github.com/LeonardoBeccarini/agri_advisor/internal/model/messages"
)

// Aliases for the types the services share.

type (
	SoilTest            = entities.SoilTest
	Variety             = entities.Variety
	NutrientCode        = entities.NutrientCode
	STVIClass           = entities.STVIClass
	SoilTestEvent       = messages.SoilTestEvent
	RecommendationEvent = messages.RecommendationEvent
)
