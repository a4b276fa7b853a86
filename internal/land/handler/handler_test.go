package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"graminsetu/internal/land/service"
	"graminsetu/internal/land/store"
	"graminsetu/internal/platform/middleware"
	id "graminsetu/pkg/domain"
	"graminsetu/pkg/requestcontext"
)

type staticFarmerCounter int

func (c staticFarmerCounter) CountFarmers(context.Context) (int, error) {
	return int(c), nil
}

type HandlerSuite struct {
	suite.Suite

	router chi.Router
	farmer id.UserID
	admin  id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.farmer = id.NewUserID()
	s.admin = id.NewUserID()

	svc, err := service.New(
		store.NewInMemoryLandStore(),
		store.NewInMemorySoilTestStore(),
		store.NewInMemoryPlanStore(),
		staticFarmerCounter(1),
		logger,
	)
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	s.router.Use(middleware.RequestTime)
	s.router.Use(s.stubAuth)
	s.router.Route("/fertilizer", New(svc, logger).Routes)
}

// stubAuth reads identity from plain test headers so routing tests do not
// need real tokens.
func (s *HandlerSuite) stubAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		switch r.Header.Get("X-Test-Role") {
		case "farmer":
			ctx = requestcontext.WithUserID(ctx, s.farmer)
			ctx = requestcontext.WithRole(ctx, "farmer")
		case "admin":
			ctx = requestcontext.WithUserID(ctx, s.admin)
			ctx = requestcontext.WithRole(ctx, "admin")
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HandlerSuite) do(method, path, role string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestRoleGuards() {
	s.Run("anonymous farmer route", func() {
		rec := s.do(http.MethodGet, "/fertilizer/land", "", nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("admin on farmer route", func() {
		rec := s.do(http.MethodGet, "/fertilizer/land", "admin", nil)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("farmer on admin route", func() {
		rec := s.do(http.MethodGet, "/fertilizer/admin/stats", "farmer", nil)
		s.Equal(http.StatusForbidden, rec.Code)
	})
}

func (s *HandlerSuite) TestLandLifecycle() {
	rec := s.do(http.MethodPost, "/fertilizer/land", "farmer", map[string]any{
		"area": 2.5, "crop": "Wheat", "soilType": "Loamy",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var land struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &land))
	s.Equal("Pending", land.Status)

	rec = s.do(http.MethodPost, "/fertilizer/soil", "farmer", map[string]any{
		"landId": land.ID, "nitrogen": 240, "phosphorus": 11, "potassium": 102, "ph": 6.5,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/fertilizer/admin/soil/pending", "admin", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var pending []struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &pending))
	s.Require().Len(pending, 1)

	rec = s.do(http.MethodPut, "/fertilizer/admin/soil/"+pending[0].ID+"/status", "admin", map[string]any{
		"approved": true,
	})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/fertilizer/admin/plan", "admin", map[string]any{
		"landId": land.ID, "recommendedFertilizer": "Urea", "quantity": "50kg",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/fertilizer/land", "farmer", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var lands []struct {
		Status string `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &lands))
	s.Require().Len(lands, 1)
	s.Equal("Approved", lands[0].Status)

	rec = s.do(http.MethodGet, "/fertilizer/plans/"+land.ID, "farmer", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/fertilizer/admin/stats", "admin", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stats struct {
		UsersCount       int `json:"usersCount"`
		LandsCount       int `json:"landsCount"`
		PendingSoilCount int `json:"pendingSoilCount"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
	s.Equal(1, stats.LandsCount)
	s.Equal(0, stats.PendingSoilCount)
}

func (s *HandlerSuite) TestBadLandID() {
	rec := s.do(http.MethodGet, "/fertilizer/plans/not-a-uuid", "farmer", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}
