// Package models defines the land approval domain types.
package models

import (
	"time"

	id "graminsetu/pkg/domain"
)

// LandStatus is the approval state of a parcel. A parcel starts Pending
// and becomes Approved as a side effect of plan issuance, never directly.
type LandStatus string

const (
	LandPending  LandStatus = "Pending"
	LandApproved LandStatus = "Approved"
)

// DefaultNextAction is the advisory shown on fresh parcels.
const DefaultNextAction = "Fertilization"

// LandParcel is a farmer-registered plot. Latitude and Longitude are
// pointers because most registrations omit them; the geo layer jitters
// missing coordinates at read time rather than storing fakes.
type LandParcel struct {
	ID         id.LandID
	FarmerID   id.UserID
	Area       float64
	Crop       string
	SoilType   string
	Latitude   *float64
	Longitude  *float64
	Status     LandStatus
	NextAction string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SoilTest is a farmer-submitted soil reading awaiting admin approval.
// Approved is a plain flag, not a status enum; approval is monotonic at
// the service layer.
type SoilTest struct {
	ID         id.SoilTestID
	LandID     id.LandID
	Nitrogen   float64
	Phosphorus float64
	Potassium  float64
	PH         float64
	Approved   bool
	CreatedAt  time.Time
}

// FertilizerPlan is an admin-issued recommendation for a parcel. The
// free-text fields (duration "120 days", yieldIncrease "15%") are kept as
// strings; they are display copy, not quantities the engine computes with.
type FertilizerPlan struct {
	ID                    id.PlanID
	LandID                id.LandID
	RecommendedFertilizer string
	Quantity              string
	Schedule              string
	Duration              string
	YieldIncrease         string
	NextApplication       string
	NValue                float64
	PValue                float64
	KValue                float64
	CreatedBy             id.UserID
	CreatedAt             time.Time
}
