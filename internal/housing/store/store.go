// Package store persists housing applications and the label sequence.
package store

import (
	"context"

	"graminsetu/internal/housing/models"
	id "graminsetu/pkg/domain"
)

// ApplicationStore persists applications.
//
// Error contract: FindByID returns sentinel.ErrNotFound for an unknown
// application; Create returns sentinel.ErrConflict on a duplicate label.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, appID id.HousingApplicationID) (*models.Application, error)
	ListByApplicant(ctx context.Context, applicantID id.UserID) ([]*models.Application, error)
	ListAll(ctx context.Context, status models.Status) ([]*models.Application, error)
	Update(ctx context.Context, app *models.Application) error
}

// SequenceStore hands out strictly increasing values for application
// labels. Next must be atomic under concurrent callers; two calls never
// observe the same value.
type SequenceStore interface {
	Next(ctx context.Context) (int64, error)
}
