// Package intake decides whether a proposed collection event may enter the
// ledger. Validation is pure: no storage, no clock, no shared mutable state.
package intake

import (
	"github.com/sanrakshak/herbtrace/domain"
)

// GeoFence is an inclusive latitude/longitude rectangle.
type GeoFence struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

func (g GeoFence) Contains(c domain.Coordinates) bool {
	return c.Lat >= g.MinLat && c.Lat <= g.MaxLat &&
		c.Lon >= g.MinLon && c.Lon <= g.MaxLon
}

// Policy lists the permitted species and the collection area.
type Policy struct {
	Species []string
	Fence   GeoFence
	// AllowTestCoordinate admits the (0, 0) coordinate regardless of Fence,
	// for automated testing.
	AllowTestCoordinate bool
}

// DefaultPolicy is the Lucknow collection policy.
func DefaultPolicy() Policy {
	return Policy{
		Species:             []string{"Ashwagandha", "Brahmi", "Tulsi", "Neem", "Turmeric", "Ginger"},
		Fence:               GeoFence{MinLat: 26.8, MaxLat: 26.9, MinLon: 80.9, MaxLon: 81.0},
		AllowTestCoordinate: true,
	}
}

type Validator struct {
	species map[string]struct{}
	fence   GeoFence
	allow00 bool
}

func New(policy Policy) *Validator {
	species := make(map[string]struct{}, len(policy.Species))
	for _, s := range policy.Species {
		species[s] = struct{}{}
	}
	return &Validator{
		species: species,
		fence:   policy.Fence,
		allow00: policy.AllowTestCoordinate,
	}
}

// Validate applies the species rule and then the geo-fence rule, returning a
// *domain.RejectionError for the first one violated.
func (v *Validator) Validate(species string, coords domain.Coordinates) error {
	if _, ok := v.species[species]; !ok {
		return &domain.RejectionError{Reason: domain.ReasonSpeciesNotPermitted, Species: species}
	}
	if v.allow00 && coords.IsZero() {
		return nil
	}
	if !v.fence.Contains(coords) {
		return &domain.RejectionError{Reason: domain.ReasonOutsideGeoFence, Species: species}
	}
	return nil
}
