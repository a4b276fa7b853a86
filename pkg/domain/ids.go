// Package domain defines typed identifiers shared across modules.
// Distinct types keep a land id from ever being passed where a user id is
// expected; the compiler enforces the distinction.
package domain

import (
	"github.com/google/uuid"

	dErrors "graminsetu/pkg/domain-errors"
)

type (
	// UserID identifies a farmer or admin account.
	UserID uuid.UUID
	// LandID identifies a land parcel.
	LandID uuid.UUID
	// SoilTestID identifies a soil test submission.
	SoilTestID uuid.UUID
	// PlanID identifies a fertilizer plan.
	PlanID uuid.UUID
	// HousingApplicationID identifies a housing benefit application.
	// Distinct from the human-readable "H-###" label, which is a
	// presentation concern.
	HousingApplicationID uuid.UUID
)

func (id UserID) String() string               { return uuid.UUID(id).String() }
func (id LandID) String() string               { return uuid.UUID(id).String() }
func (id SoilTestID) String() string           { return uuid.UUID(id).String() }
func (id PlanID) String() string               { return uuid.UUID(id).String() }
func (id HousingApplicationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool               { return uuid.UUID(id) == uuid.Nil }
func (id LandID) IsNil() bool               { return uuid.UUID(id) == uuid.Nil }
func (id SoilTestID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id PlanID) IsNil() bool               { return uuid.UUID(id) == uuid.Nil }
func (id HousingApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the invariant that ids must be valid, non-nil UUIDs at
// trust boundaries.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return u, nil
}

func ParseUserID(raw string) (UserID, error) {
	u, err := parseUUID(raw, "user")
	return UserID(u), err
}

func ParseLandID(raw string) (LandID, error) {
	u, err := parseUUID(raw, "land")
	return LandID(u), err
}

func ParseSoilTestID(raw string) (SoilTestID, error) {
	u, err := parseUUID(raw, "soil test")
	return SoilTestID(u), err
}

func ParsePlanID(raw string) (PlanID, error) {
	u, err := parseUUID(raw, "plan")
	return PlanID(u), err
}

func ParseHousingApplicationID(raw string) (HousingApplicationID, error) {
	u, err := parseUUID(raw, "application")
	return HousingApplicationID(u), err
}

func NewUserID() UserID                             { return UserID(uuid.New()) }
func NewLandID() LandID                             { return LandID(uuid.New()) }
func NewSoilTestID() SoilTestID                     { return SoilTestID(uuid.New()) }
func NewPlanID() PlanID                             { return PlanID(uuid.New()) }
func NewHousingApplicationID() HousingApplicationID { return HousingApplicationID(uuid.New()) }
