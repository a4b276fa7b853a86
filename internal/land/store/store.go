// Package store persists land parcels, soil tests and fertilizer plans.
package store

import (
	"context"
	"time"

	"graminsetu/internal/land/models"
	id "graminsetu/pkg/domain"
)

// LandStore persists parcels.
//
// Error contract: FindByID returns sentinel.ErrNotFound for an unknown
// parcel. SetStatus returns sentinel.ErrNotFound when no row matched; the
// caller decides whether that is fatal.
type LandStore interface {
	Create(ctx context.Context, land *models.LandParcel) error
	FindByID(ctx context.Context, landID id.LandID) (*models.LandParcel, error)
	ListByFarmer(ctx context.Context, farmerID id.UserID) ([]*models.LandParcel, error)
	ListAll(ctx context.Context) ([]*models.LandParcel, error)
	SetStatus(ctx context.Context, landID id.LandID, status models.LandStatus, updatedAt time.Time) error
	Count(ctx context.Context) (int, error)
}

// SoilTestStore persists soil readings.
//
// Error contract: Approve returns sentinel.ErrNotFound for an unknown test.
type SoilTestStore interface {
	Create(ctx context.Context, test *models.SoilTest) error
	ListByLands(ctx context.Context, landIDs []id.LandID) ([]*models.SoilTest, error)
	ListPending(ctx context.Context) ([]*models.SoilTest, error)
	Approve(ctx context.Context, testID id.SoilTestID) (*models.SoilTest, error)
	CountPending(ctx context.Context) (int, error)
}

// PlanStore persists fertilizer plans.
type PlanStore interface {
	Create(ctx context.Context, plan *models.FertilizerPlan) error
	ListByLand(ctx context.Context, landID id.LandID) ([]*models.FertilizerPlan, error)
}
