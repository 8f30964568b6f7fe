package domain

import "time"

// Farmer is a registered collector. Batches reference farmers by id only.
type Farmer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Village        string    `json:"village"`
	Contact        string    `json:"contact"`
	GeoFence       string    `json:"geoFence"`
	RegisteredDate time.Time `json:"registeredDate"`
}

// FarmerPatch carries a partial update. Nil fields are left unchanged; id and
// registration date are never patched.
type FarmerPatch struct {
	Name     *string `json:"name,omitempty"`
	Village  *string `json:"village,omitempty"`
	Contact  *string `json:"contact,omitempty"`
	GeoFence *string `json:"geoFence,omitempty"`
}

func (p FarmerPatch) Apply(f *Farmer) {
	if f == nil {
		return
	}
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Village != nil {
		f.Village = *p.Village
	}
	if p.Contact != nil {
		f.Contact = *p.Contact
	}
	if p.GeoFence != nil {
		f.GeoFence = *p.GeoFence
	}
}

func (f *Farmer) IsComplete() bool {
	return f != nil && f.ID != "" && f.Name != "" && f.Village != "" && f.Contact != "" && f.GeoFence != ""
}
