package fertilizer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// overlay file layout:
//
//	varieties:
//	  - id: boro_6t
//	    label: "Boro Rice (6 t/ha)"
//	    targets:
//	      N: {Optimum: [0, 36], Medium: [37, 72], Low: [73, 108], Very Low: [109, 144]}
//
// A missing or null class is not applicable; [0, 0] recommends nothing.
type overlayFile struct {
	Varieties []overlayVariety `yaml:"varieties"`
}

type overlayVariety struct {
	ID      string                          `yaml:"id"`
	Label   string                          `yaml:"label"`
	Targets map[string]map[string][]float64 `yaml:"targets"`
}

// LoadVarieties parses a YAML variety overlay.
func LoadVarieties(r io.Reader) ([]entities.Variety, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f overlayFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("overlay: %w", err)
	}

	seen := map[string]bool{}
	out := make([]entities.Variety, 0, len(f.Varieties))
	for i, ov := range f.Varieties {
		v, err := ov.variety()
		if err != nil {
			return nil, fmt.Errorf("overlay: varieties[%d]: %w", i, err)
		}
		key := strings.ToLower(v.ID)
		if seen[key] {
			return nil, fmt.Errorf("overlay: duplicate variety id %q", v.ID)
		}
		seen[key] = true
		out = append(out, v)
	}
	return out, nil
}

// LoadVarietiesFile reads an overlay from disk.
func LoadVarietiesFile(path string) ([]entities.Variety, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadVarieties(f)
}

func (ov overlayVariety) variety() (entities.Variety, error) {
	id := strings.TrimSpace(ov.ID)
	if id == "" {
		return entities.Variety{}, errors.New("id is required")
	}
	v := entities.Variety{
		ID:      id,
		Label:   strings.TrimSpace(ov.Label),
		Targets: map[entities.NutrientCode]entities.Targets{},
	}
	if v.Label == "" {
		v.Label = id
	}

	for nk, classes := range ov.Targets {
		n, err := entities.ParseNutrient(nk)
		if err != nil {
			return entities.Variety{}, err
		}
		ts := entities.Targets{}
		for _, c := range entities.STVIClasses {
			ts[c] = nil
		}
		for ck, pair := range classes {
			c, err := entities.ParseSTVIClass(ck)
			if err != nil {
				return entities.Variety{}, fmt.Errorf("%s: %w", n, err)
			}
			if pair == nil {
				continue
			}
			if len(pair) != 2 {
				return entities.Variety{}, fmt.Errorf("%s %s: want [lo, hi], got %d values", n, c, len(pair))
			}
			lo, hi := pair[0], pair[1]
			if lo < 0 || hi < 0 || lo > hi {
				return entities.Variety{}, fmt.Errorf("%s %s: invalid range [%v, %v]", n, c, lo, hi)
			}
			ts[c] = &entities.Range{Lo: lo, Hi: hi}
		}
		v.Targets[n] = ts
	}
	return v, nil
}

func equalID(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
