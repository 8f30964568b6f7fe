package transport

import (
	"strings"
	"time"

	"github.com/sanrakshak/herbtrace/domain"
)

var errMissingFields = domain.Invalid("Missing required fields")

type CollectionRequest struct {
	FarmerID        string           `json:"farmerId"`
	Species         string           `json:"species"`
	WeightKg        float64          `json:"weightKg"`
	PhotoCID        string           `json:"photoCid"`
	Location        *domain.Location `json:"location"`
	FarmerSignature string           `json:"farmerSignature"`
}

func (r CollectionRequest) Validate() error {
	if strings.TrimSpace(r.Species) == "" || r.WeightKg == 0 || r.Location == nil {
		return errMissingFields
	}
	return nil
}

// QualityTestRequest uses pointers so an explicit zero moisture or false
// pesticide flag is told apart from a missing field.
type QualityTestRequest struct {
	BatchID           string     `json:"batchId"`
	SampleID          string     `json:"sampleId"`
	MoisturePct       *float64   `json:"moisturePct"`
	PesticideDetected *bool      `json:"pesticideDetected"`
	ReportCID         string     `json:"reportCid"`
	TestDate          *time.Time `json:"testDate"`
	LabSignature      string     `json:"labSignature"`
}

func (r QualityTestRequest) Validate() error {
	if r.BatchID == "" || r.MoisturePct == nil || r.PesticideDetected == nil {
		return errMissingFields
	}
	return nil
}

type ProcessingStepRequest struct {
	BatchID               string `json:"batchId"`
	StepName              string `json:"stepName"`
	Details               string `json:"details"`
	ManufacturerSignature string `json:"manufacturerSignature"`
}

func (r ProcessingStepRequest) Validate() error {
	if r.BatchID == "" || r.StepName == "" || r.Details == "" {
		return errMissingFields
	}
	return nil
}

type FinalizeRequest struct {
	BatchID string `json:"batchId"`
}

func (r FinalizeRequest) Validate() error {
	if r.BatchID == "" {
		return domain.Invalid("Batch ID is required")
	}
	return nil
}

type RejectRequest struct {
	BatchID string `json:"batchId"`
	Reason  string `json:"reason"`
}

func (r RejectRequest) Validate() error {
	if r.BatchID == "" || strings.TrimSpace(r.Reason) == "" {
		return errMissingFields
	}
	return nil
}

type FarmerRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Village  string `json:"village"`
	Contact  string `json:"contact"`
	GeoFence string `json:"geoFence"`
}

func (r FarmerRequest) Farmer() domain.Farmer {
	return domain.Farmer{
		ID:       r.ID,
		Name:     r.Name,
		Village:  r.Village,
		Contact:  r.Contact,
		GeoFence: r.GeoFence,
	}
}
