package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"graminsetu/internal/land/models"
	"graminsetu/internal/land/store"
	id "graminsetu/pkg/domain"
	dErrors "graminsetu/pkg/domain-errors"
)

type staticFarmerCounter int

func (c staticFarmerCounter) CountFarmers(context.Context) (int, error) {
	return int(c), nil
}

type LandServiceSuite struct {
	suite.Suite

	ctx     context.Context
	svc     *Service
	farmer  id.UserID
	admin   id.UserID
	another id.UserID
}

func TestLandServiceSuite(t *testing.T) {
	suite.Run(t, new(LandServiceSuite))
}

func (s *LandServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.farmer = id.NewUserID()
	s.admin = id.NewUserID()
	s.another = id.NewUserID()

	var err error
	s.svc, err = New(
		store.NewInMemoryLandStore(),
		store.NewInMemorySoilTestStore(),
		store.NewInMemoryPlanStore(),
		staticFarmerCounter(3),
		slog.New(slog.DiscardHandler),
	)
	s.Require().NoError(err)
}

func (s *LandServiceSuite) registerLand(farmer id.UserID) *models.LandParcel {
	land, err := s.svc.RegisterLand(s.ctx, farmer, RegisterLandRequest{
		Area: 2.5, Crop: "Wheat", SoilType: "Loamy",
	})
	s.Require().NoError(err)
	return land
}

func (s *LandServiceSuite) TestRegisterLand() {
	lat, lng := 26.85, 80.94
	land, err := s.svc.RegisterLand(s.ctx, s.farmer, RegisterLandRequest{
		Area: 2.5, Crop: "Wheat", SoilType: "Loamy",
		Latitude: &lat, Longitude: &lng,
	})
	s.Require().NoError(err)
	s.Equal(models.LandPending, land.Status)
	s.Equal("Fertilization", land.NextAction)
	s.Equal(lat, *land.Latitude)

	s.Run("area must be positive", func() {
		_, err := s.svc.RegisterLand(s.ctx, s.farmer, RegisterLandRequest{Area: 0, Crop: "Wheat"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("crop is required", func() {
		_, err := s.svc.RegisterLand(s.ctx, s.farmer, RegisterLandRequest{Area: 1})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *LandServiceSuite) TestMyLandsIsScopedToFarmer() {
	s.registerLand(s.farmer)
	s.registerLand(s.farmer)
	s.registerLand(s.another)

	mine, err := s.svc.MyLands(s.ctx, s.farmer)
	s.Require().NoError(err)
	s.Len(mine, 2)

	all, err := s.svc.AllLands(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *LandServiceSuite) TestSubmitSoilTest() {
	land := s.registerLand(s.farmer)

	test, err := s.svc.SubmitSoilTest(s.ctx, s.farmer, SubmitSoilTestRequest{
		LandID: land.ID, Nitrogen: 240, Phosphorus: 11, Potassium: 102, PH: 6.5,
	})
	s.Require().NoError(err)
	s.False(test.Approved)
	s.Equal(land.ID, test.LandID)

	s.Run("someone else's parcel looks unknown", func() {
		_, err := s.svc.SubmitSoilTest(s.ctx, s.another, SubmitSoilTestRequest{LandID: land.ID, PH: 7})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal("land not found or unauthorized", dErrors.MessageOf(err))
	})

	s.Run("unknown parcel reports the same message", func() {
		_, err := s.svc.SubmitSoilTest(s.ctx, s.farmer, SubmitSoilTestRequest{LandID: id.NewLandID(), PH: 7})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal("land not found or unauthorized", dErrors.MessageOf(err))
	})
}

func (s *LandServiceSuite) TestMySoilTestsSpansOwnParcelsOnly() {
	mine := s.registerLand(s.farmer)
	theirs := s.registerLand(s.another)

	_, err := s.svc.SubmitSoilTest(s.ctx, s.farmer, SubmitSoilTestRequest{LandID: mine.ID, PH: 6.5})
	s.Require().NoError(err)
	_, err = s.svc.SubmitSoilTest(s.ctx, s.another, SubmitSoilTestRequest{LandID: theirs.ID, PH: 7.1})
	s.Require().NoError(err)

	tests, err := s.svc.MySoilTests(s.ctx, s.farmer)
	s.Require().NoError(err)
	s.Require().Len(tests, 1)
	s.Equal(mine.ID, tests[0].LandID)
}

func (s *LandServiceSuite) TestApproveSoilTest() {
	land := s.registerLand(s.farmer)
	test, err := s.svc.SubmitSoilTest(s.ctx, s.farmer, SubmitSoilTestRequest{LandID: land.ID, PH: 6.5})
	s.Require().NoError(err)

	pending, err := s.svc.PendingSoilTests(s.ctx)
	s.Require().NoError(err)
	s.Len(pending, 1)

	approved, err := s.svc.ApproveSoilTest(s.ctx, s.admin, test.ID, true)
	s.Require().NoError(err)
	s.True(approved.Approved)

	pending, err = s.svc.PendingSoilTests(s.ctx)
	s.Require().NoError(err)
	s.Empty(pending)

	s.Run("approval cannot be revoked", func() {
		_, err := s.svc.ApproveSoilTest(s.ctx, s.admin, test.ID, false)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown test", func() {
		_, err := s.svc.ApproveSoilTest(s.ctx, s.admin, id.NewSoilTestID(), true)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *LandServiceSuite) TestIssuePlanApprovesLand() {
	land := s.registerLand(s.farmer)

	plan, err := s.svc.IssuePlan(s.ctx, s.admin, IssuePlanRequest{
		LandID:                land.ID,
		RecommendedFertilizer: "Urea",
		Quantity:              "50kg",
		Schedule:              "Split application",
		Duration:              "120 days",
		YieldIncrease:         "15%",
		NValue:                120,
	})
	s.Require().NoError(err)
	s.Equal(s.admin, plan.CreatedBy)

	lands, err := s.svc.MyLands(s.ctx, s.farmer)
	s.Require().NoError(err)
	s.Equal(models.LandApproved, lands[0].Status)

	plans, err := s.svc.PlansForLand(s.ctx, land.ID)
	s.Require().NoError(err)
	s.Require().Len(plans, 1)
	s.Equal("Urea", plans[0].RecommendedFertilizer)
}

func (s *LandServiceSuite) TestIssuePlanForUnknownLandStillCreatesPlan() {
	ghost := id.NewLandID()

	plan, err := s.svc.IssuePlan(s.ctx, s.admin, IssuePlanRequest{
		LandID:                ghost,
		RecommendedFertilizer: "DAP",
	})
	s.Require().NoError(err)

	plans, err := s.svc.PlansForLand(s.ctx, ghost)
	s.Require().NoError(err)
	s.Require().Len(plans, 1)
	s.Equal(plan.ID, plans[0].ID)
}

func (s *LandServiceSuite) TestDashboardStats() {
	land := s.registerLand(s.farmer)
	s.registerLand(s.another)
	test, err := s.svc.SubmitSoilTest(s.ctx, s.farmer, SubmitSoilTestRequest{LandID: land.ID, PH: 6.5})
	s.Require().NoError(err)
	_, err = s.svc.SubmitSoilTest(s.ctx, s.farmer, SubmitSoilTestRequest{LandID: land.ID, PH: 6.8})
	s.Require().NoError(err)
	_, err = s.svc.ApproveSoilTest(s.ctx, s.admin, test.ID, true)
	s.Require().NoError(err)

	stats, err := s.svc.DashboardStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, stats.UsersCount)
	s.Equal(2, stats.LandsCount)
	s.Equal(1, stats.PendingSoilCount)
}
