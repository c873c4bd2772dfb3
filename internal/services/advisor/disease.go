package advisor

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// Supported classifier models.
const (
	ModelKeras = "keras"
	ModelViT   = "vit"
)

// ImageClassifier diagnoses a leaf photo with the given model.
type ImageClassifier interface {
	Classify(ctx context.Context, img entities.Image, model string) (entities.Diagnosis, error)
}

// NormalizeModel maps user input to a supported model, defaulting to keras.
func NormalizeModel(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), ModelViT) {
		return ModelViT
	}
	return ModelKeras
}

// HTTPImageClassifier posts the image as a base64 data URL.
type HTTPImageClassifier struct {
	up *Upstream
}

func NewHTTPImageClassifier(up *Upstream) *HTTPImageClassifier {
	return &HTTPImageClassifier{up: up}
}

type classifyRequest struct {
	Image string `json:"image"`
	Model string `json:"model"`
}

type classifyResponse struct {
	entities.Diagnosis
	Error string `json:"error,omitempty"`
}

func (c *HTTPImageClassifier) Classify(ctx context.Context, img entities.Image, model string) (entities.Diagnosis, error) {
	req := classifyRequest{Image: DataURL(img), Model: NormalizeModel(model)}
	var resp classifyResponse
	if err := c.up.PostJSON(ctx, req, &resp); err != nil {
		return entities.Diagnosis{}, err
	}
	if resp.Error != "" {
		return entities.Diagnosis{}, fmt.Errorf("%s: %s", c.up.Name(), resp.Error)
	}
	if resp.Label == "" {
		return entities.Diagnosis{}, fmt.Errorf("%s: empty label", c.up.Name())
	}
	return resp.Diagnosis, nil
}

// DataURL encodes an image as data:<type>;base64,<payload>.
func DataURL(img entities.Image) string {
	ct := img.ContentType
	if ct == "" {
		ct = http.DetectContentType(img.Data)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

const noTreatment = "No specific treatment available."

var demoTreatments = map[string]string{
	"Potato___Early_blight": "Use certified seeds and apply preventative fungicides like chlorothalonil.",
	"Tomato___Target_Spot":  "Use resistant varieties. Apply fungicides containing chlorothalonil.",
	"Corn___Common_rust":    "Plant rust-resistant hybrids. Apply fungicides at the first sign of rust.",
	"Grape___Black_rot":     "Remove and destroy infected leaves and fruits. Apply fungicides containing myclobutanil or captan.",
}

// SimulatedImageClassifier answers from the file name, for demos without a model server.
type SimulatedImageClassifier struct{}

func (SimulatedImageClassifier) Classify(_ context.Context, img entities.Image, _ string) (entities.Diagnosis, error) {
	name := strings.ToLower(filepath.Base(img.Name))

	var label string
	var conf float64
	switch {
	case strings.Contains(name, "potato") && strings.Contains(name, "early"):
		label, conf = "Potato___Early_blight", 0.92
	case strings.Contains(name, "tomato") && strings.Contains(name, "target"):
		label, conf = "Tomato___Target_Spot", 0.88
	case strings.Contains(name, "corn"):
		label, conf = "Corn___Common_rust", 0.85
	case strings.Contains(name, "grot"):
		label, conf = "Grape___Black_rot", 0.87
	default:
		return entities.Diagnosis{
			Label:      "Demo Mode - configure DISEASE_URL for real predictions",
			Confidence: &[]float64{0.75}[0],
			Treatment:  "This is a simulation. Point DISEASE_URL at a classifier service to enable real disease detection.",
		}, nil
	}

	treatment, ok := demoTreatments[label]
	if !ok {
		treatment = noTreatment
	}
	return entities.Diagnosis{Label: label, Confidence: &conf, Treatment: treatment}, nil
}
