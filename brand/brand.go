// Package brand defines the client organisations content is scheduled for.
package brand

import "math"

// Brand is a client organisation with its own content tasks and a monthly
// post target. Brands are read-only after start-up.
type Brand struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Logo   string `json:"logo" yaml:"logo"`     // short badge text, e.g. "DC"
	Target int    `json:"target" yaml:"target"` // posts per month
}

// Progress returns completed as a rounded percentage of the monthly target.
// A brand without a target reports 0.
func (b Brand) Progress(completed int) int {
	if b.Target <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(b.Target) * 100))
}

// Catalog is an ordered, immutable set of brands.
type Catalog struct {
	brands []Brand
	index  map[string]int
}

// NewCatalog builds a catalog from brands in display order. Later entries
// with a duplicate ID are ignored.
func NewCatalog(brands ...Brand) *Catalog {
	c := &Catalog{index: make(map[string]int, len(brands))}
	for _, b := range brands {
		if _, dup := c.index[b.ID]; dup || b.ID == "" {
			continue
		}
		c.index[b.ID] = len(c.brands)
		c.brands = append(c.brands, b)
	}
	return c
}

// Seed returns the fixed brand set the board starts with.
func Seed() *Catalog {
	return NewCatalog(
		Brand{ID: "dconsul", Name: "Dconsul", Logo: "DC", Target: 11},
		Brand{ID: "d2d", Name: "D2D", Logo: "D2", Target: 4},
	)
}

// List returns the brands in display order.
func (c *Catalog) List() []Brand {
	out := make([]Brand, len(c.brands))
	copy(out, c.brands)
	return out
}

// Get looks up a brand by ID.
func (c *Catalog) Get(id string) (Brand, bool) {
	i, ok := c.index[id]
	if !ok {
		return Brand{}, false
	}
	return c.brands[i], true
}

// Has reports whether id names a known brand.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Default returns the first brand, or the zero Brand for an empty catalog.
func (c *Catalog) Default() Brand {
	if len(c.brands) == 0 {
		return Brand{}
	}
	return c.brands[0]
}
