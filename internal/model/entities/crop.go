package entities

// YieldFeatures is the record sent to the yield predictor.
// JSON keys follow the training dataset column names.
type YieldFeatures struct {
	SoilType       string  `json:"Soil_Type"`
	Crop           string  `json:"Crop"`
	RainfallMM     float64 `json:"Rainfall_mm"`
	TemperatureC   float64 `json:"Temperature_Celsius"`
	FertilizerUsed bool    `json:"Fertilizer_Used"`
	IrrigationUsed bool    `json:"Irrigation_Used"`
}

// YieldEstimate is a predicted yield in tons per hectare.
type YieldEstimate struct {
	Prediction float64 `json:"prediction"`
}

var (
	SoilTypes = []string{"Sandy", "Clay", "Loam", "Silt", "Peaty", "Chalky"}
	Crops     = []string{"Cotton", "Rice", "Barley", "Soybean", "Wheat", "Maize"}
)

// Image is an uploaded leaf photo handed to the image classifier.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Diagnosis is the image classifier's verdict.
type Diagnosis struct {
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence,omitempty"`
	Treatment  string   `json:"treatment,omitempty"`
}
