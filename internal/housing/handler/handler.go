// Package handler exposes the housing workflow over HTTP under
// /housing-apps.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"graminsetu/internal/housing/models"
	"graminsetu/internal/housing/service"
	"graminsetu/internal/platform/middleware"
	id "graminsetu/pkg/domain"
	"graminsetu/pkg/platform/httputil"
	"graminsetu/pkg/requestcontext"
)

// Handler serves the /housing-apps routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New constructs the housing handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the applicant and admin endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/apply", h.apply)
		r.Get("/my-applications/{userID}", h.myApplications)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole("admin"))
		r.Get("/all", h.all)
		r.Put("/status/{appID}", h.setStatus)
	})
}

type applicationResponse struct {
	ID            string                      `json:"id"`
	ApplicantID   string                      `json:"applicantId"`
	ApplicationID string                      `json:"applicationId"`
	FamilySize    int                         `json:"familySize"`
	AnnualIncome  float64                     `json:"annualIncome"`
	Category      string                      `json:"category"`
	Address       models.Address              `json:"address"`
	HousingStatus models.CurrentHousingStatus `json:"currentHousingStatus"`
	Status        string                      `json:"status"`
	Documents     models.Documents            `json:"documents"`
	AdminRemarks  string                      `json:"adminRemarks,omitempty"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

func toApplicationResponse(a *models.Application) applicationResponse {
	return applicationResponse{
		ID:            a.ID.String(),
		ApplicantID:   a.ApplicantID.String(),
		ApplicationID: a.ApplicationID,
		FamilySize:    a.FamilySize,
		AnnualIncome:  a.AnnualIncome,
		Category:      string(a.Category),
		Address:       a.Address,
		HousingStatus: a.HousingStatus,
		Status:        string(a.Status),
		Documents:     a.Documents,
		AdminRemarks:  a.AdminRemarks,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toApplicationResponses(apps []*models.Application) []applicationResponse {
	out := make([]applicationResponse, len(apps))
	for i, a := range apps {
		out[i] = toApplicationResponse(a)
	}
	return out
}

type applyRequest struct {
	ApplicantID   string                      `json:"applicantId"`
	FamilySize    int                         `json:"familySize"`
	AnnualIncome  float64                     `json:"annualIncome"`
	Category      string                      `json:"category"`
	Address       models.Address              `json:"address"`
	HousingStatus models.CurrentHousingStatus `json:"currentHousingStatus"`
	Documents     models.Documents            `json:"documents"`
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[applyRequest](w, r, h.logger)
	if !ok {
		return
	}

	// Existing clients submit applicantId in the body; it defaults to the
	// authenticated caller when absent.
	applicantID := requestcontext.UserID(r.Context())
	if req.ApplicantID != "" {
		parsed, err := id.ParseUserID(req.ApplicantID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		applicantID = parsed
	}

	app, err := h.svc.Apply(r.Context(), service.ApplyRequest{
		ApplicantID:   applicantID,
		FamilySize:    req.FamilySize,
		AnnualIncome:  req.AnnualIncome,
		Category:      models.Category(req.Category),
		Address:       req.Address,
		HousingStatus: req.HousingStatus,
		Documents:     req.Documents,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toApplicationResponse(app))
}

func (h *Handler) myApplications(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	apps, err := h.svc.MyApplications(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponses(apps))
}

func (h *Handler) all(w http.ResponseWriter, r *http.Request) {
	status := models.Status(r.URL.Query().Get("status"))
	apps, err := h.svc.All(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponses(apps))
}

type setStatusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	appID, err := id.ParseHousingApplicationID(chi.URLParam(r, "appID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[setStatusRequest](w, r, h.logger)
	if !ok {
		return
	}
	app, err := h.svc.SetStatus(r.Context(), requestcontext.UserID(r.Context()), appID, models.Status(req.Status), req.Remarks)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApplicationResponse(app))
}
