package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"graminsetu/internal/housing/service"
	"graminsetu/internal/housing/store"
	"graminsetu/internal/platform/middleware"
	id "graminsetu/pkg/domain"
	"graminsetu/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite

	router    chi.Router
	applicant id.UserID
	admin     id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.applicant = id.NewUserID()
	s.admin = id.NewUserID()

	svc, err := service.New(
		store.NewInMemoryApplicationStore(),
		store.NewInMemorySequence(),
		logger,
	)
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	s.router.Use(middleware.RequestTime)
	s.router.Use(s.stubAuth)
	s.router.Route("/housing-apps", New(svc, logger).Routes)
}

func (s *HandlerSuite) stubAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		switch r.Header.Get("X-Test-Role") {
		case "farmer":
			ctx = requestcontext.WithUserID(ctx, s.applicant)
			ctx = requestcontext.WithRole(ctx, "farmer")
		case "admin":
			ctx = requestcontext.WithUserID(ctx, s.admin)
			ctx = requestcontext.WithRole(ctx, "admin")
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HandlerSuite) do(method, path, role string, body any) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		s.Require().NoError(err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func validApplication() map[string]any {
	return map[string]any{
		"familySize":   5,
		"annualIncome": 48000,
		"category":     "OBC",
		"address": map[string]any{
			"state": "Uttar Pradesh", "district": "Sitapur", "block": "Biswan",
			"gramPanchayat": "Rampur", "village": "Rampur",
		},
		"currentHousingStatus": map[string]any{
			"ownsHouse": true, "houseCondition": "Kutcha", "ownsLand": false,
		},
	}
}

func (s *HandlerSuite) TestApply() {
	rec := s.do(http.MethodPost, "/housing-apps/apply", "farmer", validApplication())
	s.Require().Equal(http.StatusCreated, rec.Code)

	var app struct {
		ApplicationID string `json:"applicationId"`
		ApplicantID   string `json:"applicantId"`
		Status        string `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &app))
	s.Equal("H-101", app.ApplicationID)
	s.Equal(s.applicant.String(), app.ApplicantID)
	s.Equal("Pending", app.Status)
}

func (s *HandlerSuite) TestApplyRequiresAuth() {
	rec := s.do(http.MethodPost, "/housing-apps/apply", "", validApplication())
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestMyApplications() {
	rec := s.do(http.MethodPost, "/housing-apps/apply", "farmer", validApplication())
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/housing-apps/my-applications/"+s.applicant.String(), "farmer", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var apps []json.RawMessage
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &apps))
	s.Len(apps, 1)
}

func (s *HandlerSuite) TestAdminStatusFlow() {
	rec := s.do(http.MethodPost, "/housing-apps/apply", "farmer", validApplication())
	s.Require().Equal(http.StatusCreated, rec.Code)
	var app struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &app))

	s.Run("farmer cannot list all", func() {
		rec := s.do(http.MethodGet, "/housing-apps/all", "farmer", nil)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("admin updates status", func() {
		rec := s.do(http.MethodPut, "/housing-apps/status/"+app.ID, "admin", map[string]any{
			"status": "Approved", "remarks": "verified on site",
		})
		s.Require().Equal(http.StatusOK, rec.Code)

		var updated struct {
			Status       string `json:"status"`
			AdminRemarks string `json:"adminRemarks"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &updated))
		s.Equal("Approved", updated.Status)
		s.Equal("verified on site", updated.AdminRemarks)
	})

	s.Run("admin filters by status", func() {
		rec := s.do(http.MethodGet, "/housing-apps/all?status=Approved", "admin", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var apps []json.RawMessage
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &apps))
		s.Len(apps, 1)

		rec = s.do(http.MethodGet, "/housing-apps/all?status=Pending", "admin", nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		apps = nil
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &apps))
		s.Empty(apps)
	})
}
