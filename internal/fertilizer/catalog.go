package fertilizer

import (
	"fmt"
	"strings"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model/entities"
)

// Catalog is the read-only variety recommendation table.
type Catalog struct {
	list    []entities.Variety
	byID    map[string]int
	byLabel map[string]int
}

// NewCatalog copies vs into a catalog. IDs must be unique (case-insensitive).
func NewCatalog(vs ...entities.Variety) (*Catalog, error) {
	c := &Catalog{
		list:    make([]entities.Variety, 0, len(vs)),
		byID:    make(map[string]int, len(vs)),
		byLabel: make(map[string]int, len(vs)),
	}
	for _, v := range vs {
		id := strings.ToLower(strings.TrimSpace(v.ID))
		if id == "" {
			return nil, fmt.Errorf("catalog: variety %q has no id", v.ShortLabel())
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("catalog: duplicate variety id %q", v.ID)
		}
		if err := checkTargets(v); err != nil {
			return nil, err
		}
		c.byID[id] = len(c.list)
		if l := labelKey(v.Label); l != "" {
			if _, taken := c.byLabel[l]; !taken {
				c.byLabel[l] = len(c.list)
			}
		}
		c.list = append(c.list, cloneVariety(v))
	}
	return c, nil
}

// Resolve finds a variety by ID, or by its display label for clients that still send
// the full cultivar text. Whitespace and case are ignored.
func (c *Catalog) Resolve(key string) (entities.Variety, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return entities.Variety{}, false
	}
	if i, ok := c.byID[strings.ToLower(key)]; ok {
		return c.list[i], true
	}
	if i, ok := c.byLabel[labelKey(key)]; ok {
		return c.list[i], true
	}
	return entities.Variety{}, false
}

// Lookup returns the recommended range for a variety, nutrient and class.
// It reports false for an unknown variety, a nutrient the variety has no data for,
// or a class that is not applicable.
func (c *Catalog) Lookup(variety string, n entities.NutrientCode, class entities.STVIClass) (entities.Range, bool) {
	v, ok := c.Resolve(variety)
	if !ok {
		return entities.Range{}, false
	}
	r := v.Targets[n][class]
	if r == nil {
		return entities.Range{}, false
	}
	return *r, true
}

// Varieties lists the catalog in declaration order.
func (c *Catalog) Varieties() []entities.Variety {
	out := make([]entities.Variety, len(c.list))
	copy(out, c.list)
	return out
}

func (c *Catalog) Len() int { return len(c.list) }

func labelKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func checkTargets(v entities.Variety) error {
	for n, ts := range v.Targets {
		for class, r := range ts {
			if r == nil {
				continue
			}
			if r.Lo < 0 || r.Hi < 0 {
				return fmt.Errorf("catalog: %s %s %s: negative range [%v, %v]", v.ID, n, class, r.Lo, r.Hi)
			}
			if r.Lo > r.Hi {
				return fmt.Errorf("catalog: %s %s %s: lo %v > hi %v", v.ID, n, class, r.Lo, r.Hi)
			}
		}
	}
	return nil
}

// cloneVariety detaches the target maps and ranges from the caller's copy.
func cloneVariety(v entities.Variety) entities.Variety {
	out := v
	out.Targets = make(map[entities.NutrientCode]entities.Targets, len(v.Targets))
	for n, ts := range v.Targets {
		cp := make(entities.Targets, len(ts))
		for class, r := range ts {
			if r != nil {
				rr := *r
				cp[class] = &rr
			} else {
				cp[class] = nil
			}
		}
		out.Targets[n] = cp
	}
	return out
}
