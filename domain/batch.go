package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Coordinates is a latitude/longitude pair. On the wire it is a two-element
// array [lat, lon].
type Coordinates struct {
	Lat float64
	Lon float64
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lon})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinates: expected [lat, lon], got %d values", len(pair))
	}
	c.Lat, c.Lon = pair[0], pair[1]
	return nil
}

// IsZero reports whether c is the (0, 0) coordinate.
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lon == 0
}

type Location struct {
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
}

// CollectionEvent is a farmer's submission of a harvested quantity. It is
// immutable once stored.
type CollectionEvent struct {
	ID              string    `json:"id"`
	BatchID         string    `json:"batchId"`
	FarmerID        string    `json:"farmerId,omitempty"`
	Species         string    `json:"species"`
	WeightKg        float64   `json:"weightKg"`
	PhotoCID        string    `json:"photoCid"`
	Location        Location  `json:"location"`
	CollectionDate  time.Time `json:"collectionDate"`
	FarmerSignature string    `json:"farmerSignature"`
}

type QualityTest struct {
	ID                string    `json:"id"`
	SampleID          string    `json:"sampleId"`
	BatchID           string    `json:"batchId"`
	MoisturePct       float64   `json:"moisturePct"`
	PesticideDetected bool      `json:"pesticideDetected"`
	ReportCID         string    `json:"reportCid"`
	TestDate          time.Time `json:"testDate"`
	LabSignature      string    `json:"labSignature"`
}

type ProcessingStep struct {
	ID                    string    `json:"id"`
	BatchID               string    `json:"batchId"`
	StepName              string    `json:"stepName"`
	Details               string    `json:"details"`
	Timestamp             time.Time `json:"timestamp"`
	ManufacturerSignature string    `json:"manufacturerSignature"`
}

// Batch is the aggregate root tracking one collection event through testing,
// processing and finalization.
type Batch struct {
	ID                 string            `json:"id"`
	Status             BatchStatus       `json:"status"`
	CollectionEvents   []CollectionEvent `json:"collectionEvents"`
	QualityTests       []QualityTest     `json:"qualityTests"`
	ProcessingSteps    []ProcessingStep  `json:"processingSteps"`
	FinalizedTimestamp *time.Time        `json:"finalizedTimestamp,omitempty"`
	QRCodeURL          string            `json:"qrCodeUrl,omitempty"`
	RejectionReason    string            `json:"rejectionReason,omitempty"`
}

// CollectedAt returns the collection date of the first collection event.
func (b *Batch) CollectedAt() time.Time {
	if b == nil || len(b.CollectionEvents) == 0 {
		return time.Time{}
	}
	return b.CollectionEvents[0].CollectionDate
}

// HasFarmer reports whether any collection event references farmerID.
func (b *Batch) HasFarmer(farmerID string) bool {
	if b == nil || farmerID == "" {
		return false
	}
	for _, ev := range b.CollectionEvents {
		if ev.FarmerID == farmerID {
			return true
		}
	}
	return false
}

// FarmerID returns the farmer of the first collection event.
func (b *Batch) FarmerID() string {
	if b == nil || len(b.CollectionEvents) == 0 {
		return ""
	}
	return b.CollectionEvents[0].FarmerID
}

// Clone returns a deep copy so callers never share list backing arrays with
// the ledger's stored state.
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	out := *b
	out.CollectionEvents = append(make([]CollectionEvent, 0, len(b.CollectionEvents)), b.CollectionEvents...)
	out.QualityTests = append(make([]QualityTest, 0, len(b.QualityTests)), b.QualityTests...)
	out.ProcessingSteps = append(make([]ProcessingStep, 0, len(b.ProcessingSteps)), b.ProcessingSteps...)
	if b.FinalizedTimestamp != nil {
		ts := *b.FinalizedTimestamp
		out.FinalizedTimestamp = &ts
	}
	return &out
}

// Normalize replaces nil lists with empty ones so JSON encodes them as [].
func (b *Batch) Normalize() {
	if b == nil {
		return
	}
	if b.CollectionEvents == nil {
		b.CollectionEvents = []CollectionEvent{}
	}
	if b.QualityTests == nil {
		b.QualityTests = []QualityTest{}
	}
	if b.ProcessingSteps == nil {
		b.ProcessingSteps = []ProcessingStep{}
	}
}
