// Package models defines the housing application domain types.
package models

import (
	"time"

	id "graminsetu/pkg/domain"
)

// Status is the workflow state of an application. Transitions are not
// validated; the admin endpoint overwrites whatever is stored.
type Status string

const (
	StatusPending              Status = "Pending"
	StatusVerificationRequired Status = "Verification Required"
	StatusApproved             Status = "Approved"
	StatusRejected             Status = "Rejected"
)

// IsValid reports whether the status is one of the known workflow states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusVerificationRequired, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the workflow considers the state final.
// Leaving a terminal state is allowed but logged.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Category is the applicant's reservation category.
type Category string

const (
	CategoryGeneral Category = "General"
	CategorySC      Category = "SC"
	CategoryST      Category = "ST"
	CategoryOBC     Category = "OBC"
)

// IsValid reports whether the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryGeneral, CategorySC, CategoryST, CategoryOBC:
		return true
	}
	return false
}

// Address locates the applicant within the panchayat hierarchy.
// Coordinates are optional; the geo layer jitters missing ones.
type Address struct {
	State         string   `json:"state"`
	District      string   `json:"district"`
	Block         string   `json:"block"`
	GramPanchayat string   `json:"gramPanchayat"`
	Village       string   `json:"village"`
	HouseNumber   string   `json:"houseNumber,omitempty"`
	Landmark      string   `json:"landmark,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
}

// CurrentHousingStatus describes the applicant's present dwelling.
type CurrentHousingStatus struct {
	OwnsHouse      bool   `json:"ownsHouse"`
	HouseCondition string `json:"houseCondition,omitempty"`
	OwnsLand       bool   `json:"ownsLand"`
	LandParcelID   string `json:"landParcelId,omitempty"`
}

// Documents holds references to uploaded proofs. Values are URLs or paths;
// the engine never dereferences them.
type Documents struct {
	IdentityProof string `json:"identityProof,omitempty"`
	HousePhoto    string `json:"housePhoto,omitempty"`
}

// Application is a housing benefit request. ApplicationID is the human
// label ("H-101"); ID is the storage key.
type Application struct {
	ID            id.HousingApplicationID
	ApplicantID   id.UserID
	ApplicationID string
	FamilySize    int
	AnnualIncome  float64
	Category      Category
	Address       Address
	HousingStatus CurrentHousingStatus
	Status        Status
	Documents     Documents
	AdminRemarks  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
