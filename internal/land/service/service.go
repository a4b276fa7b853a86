// Package service implements the land approval chain: parcel registration,
// soil test submission and approval, and admin plan issuance.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"graminsetu/internal/audit"
	"graminsetu/internal/land/models"
	"graminsetu/internal/land/store"
	"graminsetu/internal/platform/metrics"
	id "graminsetu/pkg/domain"
	dErrors "graminsetu/pkg/domain-errors"
	"graminsetu/pkg/platform/sentinel"
	"graminsetu/pkg/requestcontext"
)

// FarmerCounter supplies the farmer headcount for the dashboard. The
// identity module satisfies it through a thin adapter; the land module
// never sees account internals.
type FarmerCounter interface {
	CountFarmers(ctx context.Context) (int, error)
}

// Service coordinates the land approval chain.
type Service struct {
	lands   store.LandStore
	soils   store.SoilTestStore
	plans   store.PlanStore
	farmers FarmerCounter
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor *audit.Emitter
}

// Option configures a Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a *audit.Emitter) Option {
	return func(s *Service) { s.auditor = a }
}

// New constructs the land service.
func New(lands store.LandStore, soils store.SoilTestStore, plans store.PlanStore, farmers FarmerCounter, logger *slog.Logger, opts ...Option) (*Service, error) {
	if lands == nil || soils == nil || plans == nil {
		return nil, fmt.Errorf("land, soil and plan stores are required")
	}
	if farmers == nil {
		return nil, fmt.Errorf("farmer counter is required")
	}
	s := &Service{lands: lands, soils: soils, plans: plans, farmers: farmers, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterLandRequest carries the parcel registration fields. Latitude and
// Longitude stay optional; most field registrations have no GPS fix.
type RegisterLandRequest struct {
	Area      float64
	Crop      string
	SoilType  string
	Latitude  *float64
	Longitude *float64
}

// RegisterLand creates a Pending parcel for the farmer.
func (s *Service) RegisterLand(ctx context.Context, farmerID id.UserID, req RegisterLandRequest) (*models.LandParcel, error) {
	if req.Area <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "area must be positive")
	}
	if req.Crop == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "crop is required")
	}

	now := requestcontext.Now(ctx)
	land := &models.LandParcel{
		ID:         id.NewLandID(),
		FarmerID:   farmerID,
		Area:       req.Area,
		Crop:       req.Crop,
		SoilType:   req.SoilType,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Status:     models.LandPending,
		NextAction: models.DefaultNextAction,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.lands.Create(ctx, land); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register land")
	}
	return land, nil
}

// MyLands lists the farmer's parcels.
func (s *Service) MyLands(ctx context.Context, farmerID id.UserID) ([]*models.LandParcel, error) {
	lands, err := s.lands.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list land")
	}
	return lands, nil
}

// SubmitSoilTestRequest carries a soil reading for one of the farmer's
// parcels.
type SubmitSoilTestRequest struct {
	LandID     id.LandID
	Nitrogen   float64
	Phosphorus float64
	Potassium  float64
	PH         float64
}

// SubmitSoilTest records an unapproved reading. Ownership is checked
// first; an unknown parcel and someone else's parcel report the same
// not-found so callers cannot probe the parcel space.
func (s *Service) SubmitSoilTest(ctx context.Context, farmerID id.UserID, req SubmitSoilTestRequest) (*models.SoilTest, error) {
	land, err := s.lands.FindByID(ctx, req.LandID)
	if errors.Is(err, sentinel.ErrNotFound) || (err == nil && land.FarmerID != farmerID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "land not found or unauthorized")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up land")
	}

	test := &models.SoilTest{
		ID:         id.NewSoilTestID(),
		LandID:     req.LandID,
		Nitrogen:   req.Nitrogen,
		Phosphorus: req.Phosphorus,
		Potassium:  req.Potassium,
		PH:         req.PH,
		Approved:   false,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.soils.Create(ctx, test); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit soil test")
	}
	return test, nil
}

// MySoilTests lists readings across all of the farmer's parcels.
func (s *Service) MySoilTests(ctx context.Context, farmerID id.UserID) ([]*models.SoilTest, error) {
	lands, err := s.lands.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list land")
	}
	landIDs := make([]id.LandID, len(lands))
	for i, l := range lands {
		landIDs[i] = l.ID
	}
	tests, err := s.soils.ListByLands(ctx, landIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list soil tests")
	}
	return tests, nil
}

// PlansForLand lists plans for a parcel. There is no ownership check on
// this read; plans carry no other farmer's data.
func (s *Service) PlansForLand(ctx context.Context, landID id.LandID) ([]*models.FertilizerPlan, error) {
	plans, err := s.plans.ListByLand(ctx, landID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list plans")
	}
	return plans, nil
}

// AllLands lists every parcel for the admin view.
func (s *Service) AllLands(ctx context.Context) ([]*models.LandParcel, error) {
	lands, err := s.lands.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list land")
	}
	return lands, nil
}

// PendingSoilTests lists unapproved readings for the admin queue.
func (s *Service) PendingSoilTests(ctx context.Context) ([]*models.SoilTest, error) {
	tests, err := s.soils.ListPending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending soil tests")
	}
	return tests, nil
}

// ApproveSoilTest flips the approval flag. Approval is monotonic: a
// request to un-approve is rejected rather than silently applied.
func (s *Service) ApproveSoilTest(ctx context.Context, actor id.UserID, testID id.SoilTestID, approved bool) (*models.SoilTest, error) {
	if !approved {
		return nil, dErrors.New(dErrors.CodeValidation, "approval cannot be revoked")
	}
	test, err := s.soils.Approve(ctx, testID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "soil test not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to approve soil test")
	}

	s.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   audit.ActionSoilTestApproved,
		ActorID:  actor.String(),
		Subject:  test.ID.String(),
	})
	return test, nil
}

// IssuePlanRequest carries the admin-entered recommendation.
type IssuePlanRequest struct {
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
}

// IssuePlan records a plan and then marks the parcel Approved.
//
// The two writes are deliberately not transactional, and an unknown parcel
// still receives a plan. When the status write fails the plan stands and
// the gap is surfaced through the log, a counter and an audit event so
// operators can reconcile it. Collapsing this into one transaction would
// change observable behavior for clients that create plans ahead of
// parcel registration.
func (s *Service) IssuePlan(ctx context.Context, actor id.UserID, req IssuePlanRequest) (*models.FertilizerPlan, error) {
	if req.RecommendedFertilizer == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "recommendedFertilizer is required")
	}

	plan := &models.FertilizerPlan{
		ID:                    id.NewPlanID(),
		LandID:                req.LandID,
		RecommendedFertilizer: req.RecommendedFertilizer,
		Quantity:              req.Quantity,
		Schedule:              req.Schedule,
		Duration:              req.Duration,
		YieldIncrease:         req.YieldIncrease,
		NextApplication:       req.NextApplication,
		NValue:                req.NValue,
		PValue:                req.PValue,
		KValue:                req.KValue,
		CreatedBy:             actor,
		CreatedAt:             requestcontext.Now(ctx),
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create plan")
	}
	s.metrics.IncPlansIssued()
	s.auditor.Emit(ctx, audit.Event{
		Category: audit.CategoryCompliance,
		Action:   audit.ActionPlanIssued,
		ActorID:  actor.String(),
		Subject:  plan.ID.String(),
		Detail:   req.LandID.String(),
	})

	if err := s.lands.SetStatus(ctx, req.LandID, models.LandApproved, requestcontext.Now(ctx)); err != nil {
		s.logger.WarnContext(ctx, "plan issued but land status not updated",
			"plan_id", plan.ID,
			"land_id", req.LandID,
			"error", err,
		)
		s.metrics.IncPlanLandInconsistencies()
		s.auditor.Emit(ctx, audit.Event{
			Category: audit.CategoryOperations,
			Action:   audit.ActionPlanLandInconsistent,
			ActorID:  actor.String(),
			Subject:  plan.ID.String(),
			Detail:   req.LandID.String(),
		})
	}
	return plan, nil
}

// Stats is the admin dashboard summary.
type Stats struct {
	UsersCount       int
	LandsCount       int
	PendingSoilCount int
}

// DashboardStats assembles the admin dashboard counts.
func (s *Service) DashboardStats(ctx context.Context) (Stats, error) {
	users, err := s.farmers.CountFarmers(ctx)
	if err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count farmers")
	}
	lands, err := s.lands.Count(ctx)
	if err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count land")
	}
	pending, err := s.soils.CountPending(ctx)
	if err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count pending soil tests")
	}
	return Stats{UsersCount: users, LandsCount: lands, PendingSoilCount: pending}, nil
}
