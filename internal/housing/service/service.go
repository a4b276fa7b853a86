// Package service implements the housing application workflow: label
// allocation, submission, listing and the admin status overwrite.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"graminsetu/internal/audit"
	"graminsetu/internal/housing/models"
	"graminsetu/internal/housing/store"
	"graminsetu/internal/platform/metrics"
	id "graminsetu/pkg/domain"
	dErrors "graminsetu/pkg/domain-errors"
	"graminsetu/pkg/platform/sentinel"
	"graminsetu/pkg/requestcontext"
)

// labelBase keeps the first label at H-101.
const labelBase = 100

// Service coordinates the housing application workflow.
type Service struct {
	apps     store.ApplicationStore
	sequence store.SequenceStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  *audit.Emitter
}

// Option configures a Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a *audit.Emitter) Option {
	return func(s *Service) { s.auditor = a }
}

// New constructs the housing service.
func New(apps store.ApplicationStore, sequence store.SequenceStore, logger *slog.Logger, opts ...Option) (*Service, error) {
	if apps == nil {
		return nil, fmt.Errorf("application store is required")
	}
	if sequence == nil {
		return nil, fmt.Errorf("sequence store is required")
	}
	s := &Service{apps: apps, sequence: sequence, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ApplyRequest carries a new application.
type ApplyRequest struct {
	ApplicantID   id.UserID
	FamilySize    int
	AnnualIncome  float64
	Category      models.Category
	Address       models.Address
	HousingStatus models.CurrentHousingStatus
	Documents     models.Documents
}

// Apply draws the next label from the shared sequence and records a
// Pending application. Labels keep the H-<n> format with n starting at
// 101; the sequence makes them unique under concurrent submissions.
func (s *Service) Apply(ctx context.Context, req ApplyRequest) (*models.Application, error) {
	if req.ApplicantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "missing required fields")
	}
	if req.Address == (models.Address{}) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "missing required fields")
	}
	if req.Category != "" && !req.Category.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid category")
	}

	n, err := s.sequence.Next(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate application id")
	}

	now := requestcontext.Now(ctx)
	app := &models.Application{
		ID:            id.NewHousingApplicationID(),
		ApplicantID:   req.ApplicantID,
		ApplicationID: fmt.Sprintf("H-%d", labelBase+n),
		FamilySize:    req.FamilySize,
		AnnualIncome:  req.AnnualIncome,
		Category:      req.Category,
		Address:       req.Address,
		HousingStatus: req.HousingStatus,
		Status:        models.StatusPending,
		Documents:     req.Documents,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}

	s.metrics.IncHousingApplications()
	s.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   audit.ActionHousingApplied,
		ActorID:  req.ApplicantID.String(),
		Subject:  app.ApplicationID,
	})
	return app, nil
}

// MyApplications lists the applicant's requests, newest first.
func (s *Service) MyApplications(ctx context.Context, applicantID id.UserID) ([]*models.Application, error) {
	apps, err := s.apps.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// All lists every application, optionally filtered by status.
func (s *Service) All(ctx context.Context, status models.Status) ([]*models.Application, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid status filter")
	}
	apps, err := s.apps.ListAll(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// SetStatus overwrites the status and, when provided, the remarks. There
// is no transition table: any known status can replace any other, and
// empty fields leave the stored value alone. Leaving a terminal state is
// permitted but logged and audited for later review.
func (s *Service) SetStatus(ctx context.Context, actor id.UserID, appID id.HousingApplicationID, status models.Status, remarks string) (*models.Application, error) {
	if status != "" && !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid status")
	}

	app, err := s.apps.FindByID(ctx, appID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up application")
	}

	previous := app.Status
	if status != "" {
		app.Status = status
	}
	if remarks != "" {
		app.AdminRemarks = remarks
	}
	app.UpdatedAt = requestcontext.Now(ctx)

	if err := s.apps.Update(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update application")
	}

	s.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   audit.ActionHousingStatusChanged,
		ActorID:  actor.String(),
		Subject:  app.ApplicationID,
		Detail:   string(previous) + " -> " + string(app.Status),
	})
	if previous.IsTerminal() && app.Status != previous {
		s.logger.WarnContext(ctx, "application left a terminal state",
			"application_id", app.ApplicationID,
			"from", previous,
			"to", app.Status,
		)
		s.auditor.Emit(ctx, audit.Event{
			Category: audit.CategoryOperations,
			Action:   audit.ActionHousingTerminalChange,
			ActorID:  actor.String(),
			Subject:  app.ApplicationID,
			Detail:   string(previous) + " -> " + string(app.Status),
		})
	}
	return app, nil
}
