// Package handler exposes the land approval chain over HTTP under
// /fertilizer.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"graminsetu/internal/land/models"
	"graminsetu/internal/land/service"
	"graminsetu/internal/platform/middleware"
	id "graminsetu/pkg/domain"
	"graminsetu/pkg/platform/httputil"
	"graminsetu/pkg/requestcontext"
)

// Handler serves the /fertilizer routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New constructs the land handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Routes registers the farmer and admin endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole("farmer"))
		r.Post("/land", h.registerLand)
		r.Get("/land", h.myLands)
		r.Post("/soil", h.submitSoilTest)
		r.Get("/soil", h.mySoilTests)
		r.Get("/plans/{landID}", h.plansForLand)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole("admin"))
		r.Get("/lands", h.allLands)
		r.Get("/soil/pending", h.pendingSoilTests)
		r.Put("/soil/{testID}/status", h.approveSoilTest)
		r.Post("/plan", h.issuePlan)
		r.Get("/stats", h.stats)
	})
}

type landResponse struct {
	ID         string    `json:"id"`
	FarmerID   string    `json:"farmerId"`
	Area       float64   `json:"area"`
	Crop       string    `json:"crop"`
	SoilType   string    `json:"soilType,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Status     string    `json:"status"`
	NextAction string    `json:"nextAction"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toLandResponse(l *models.LandParcel) landResponse {
	return landResponse{
		ID:         l.ID.String(),
		FarmerID:   l.FarmerID.String(),
		Area:       l.Area,
		Crop:       l.Crop,
		SoilType:   l.SoilType,
		Latitude:   l.Latitude,
		Longitude:  l.Longitude,
		Status:     string(l.Status),
		NextAction: l.NextAction,
		CreatedAt:  l.CreatedAt,
	}
}

func toLandResponses(lands []*models.LandParcel) []landResponse {
	out := make([]landResponse, len(lands))
	for i, l := range lands {
		out[i] = toLandResponse(l)
	}
	return out
}

type soilTestResponse struct {
	ID         string    `json:"id"`
	LandID     string    `json:"landId"`
	Nitrogen   float64   `json:"nitrogen"`
	Phosphorus float64   `json:"phosphorus"`
	Potassium  float64   `json:"potassium"`
	PH         float64   `json:"ph"`
	Approved   bool      `json:"approved"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toSoilTestResponse(t *models.SoilTest) soilTestResponse {
	return soilTestResponse{
		ID:         t.ID.String(),
		LandID:     t.LandID.String(),
		Nitrogen:   t.Nitrogen,
		Phosphorus: t.Phosphorus,
		Potassium:  t.Potassium,
		PH:         t.PH,
		Approved:   t.Approved,
		CreatedAt:  t.CreatedAt,
	}
}

func toSoilTestResponses(tests []*models.SoilTest) []soilTestResponse {
	out := make([]soilTestResponse, len(tests))
	for i, t := range tests {
		out[i] = toSoilTestResponse(t)
	}
	return out
}

type planResponse struct {
	ID                    string    `json:"id"`
	LandID                string    `json:"landId"`
	RecommendedFertilizer string    `json:"recommendedFertilizer"`
	Quantity              string    `json:"quantity,omitempty"`
	Schedule              string    `json:"schedule,omitempty"`
	Duration              string    `json:"duration,omitempty"`
	YieldIncrease         string    `json:"yieldIncrease,omitempty"`
	NextApplication       string    `json:"nextApplication,omitempty"`
	NValue                float64   `json:"nValue"`
	PValue                float64   `json:"pValue"`
	KValue                float64   `json:"kValue"`
	CreatedBy             string    `json:"createdBy"`
	CreatedAt             time.Time `json:"createdAt"`
}

func toPlanResponse(p *models.FertilizerPlan) planResponse {
	return planResponse{
		ID:                    p.ID.String(),
		LandID:                p.LandID.String(),
		RecommendedFertilizer: p.RecommendedFertilizer,
		Quantity:              p.Quantity,
		Schedule:              p.Schedule,
		Duration:              p.Duration,
		YieldIncrease:         p.YieldIncrease,
		NextApplication:       p.NextApplication,
		NValue:                p.NValue,
		PValue:                p.PValue,
		KValue:                p.KValue,
		CreatedBy:             p.CreatedBy.String(),
		CreatedAt:             p.CreatedAt,
	}
}

type registerLandRequest struct {
	Area      float64  `json:"area"`
	Crop      string   `json:"crop"`
	SoilType  string   `json:"soilType"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (h *Handler) registerLand(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[registerLandRequest](w, r, h.logger)
	if !ok {
		return
	}
	land, err := h.svc.RegisterLand(r.Context(), requestcontext.UserID(r.Context()), service.RegisterLandRequest{
		Area:      req.Area,
		Crop:      req.Crop,
		SoilType:  req.SoilType,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toLandResponse(land))
}

func (h *Handler) myLands(w http.ResponseWriter, r *http.Request) {
	lands, err := h.svc.MyLands(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLandResponses(lands))
}

type submitSoilTestRequest struct {
	LandID     string  `json:"landId"`
	Nitrogen   float64 `json:"nitrogen"`
	Phosphorus float64 `json:"phosphorus"`
	Potassium  float64 `json:"potassium"`
	PH         float64 `json:"ph"`
}

func (h *Handler) submitSoilTest(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[submitSoilTestRequest](w, r, h.logger)
	if !ok {
		return
	}
	landID, err := id.ParseLandID(req.LandID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	test, err := h.svc.SubmitSoilTest(r.Context(), requestcontext.UserID(r.Context()), service.SubmitSoilTestRequest{
		LandID:     landID,
		Nitrogen:   req.Nitrogen,
		Phosphorus: req.Phosphorus,
		Potassium:  req.Potassium,
		PH:         req.PH,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSoilTestResponse(test))
}

func (h *Handler) mySoilTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.svc.MySoilTests(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSoilTestResponses(tests))
}

func (h *Handler) plansForLand(w http.ResponseWriter, r *http.Request) {
	landID, err := id.ParseLandID(chi.URLParam(r, "landID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	plans, err := h.svc.PlansForLand(r.Context(), landID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]planResponse, len(plans))
	for i, p := range plans {
		out[i] = toPlanResponse(p)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) allLands(w http.ResponseWriter, r *http.Request) {
	lands, err := h.svc.AllLands(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLandResponses(lands))
}

func (h *Handler) pendingSoilTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.svc.PendingSoilTests(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSoilTestResponses(tests))
}

type approveSoilTestRequest struct {
	Approved bool `json:"approved"`
}

func (h *Handler) approveSoilTest(w http.ResponseWriter, r *http.Request) {
	testID, err := id.ParseSoilTestID(chi.URLParam(r, "testID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[approveSoilTestRequest](w, r, h.logger)
	if !ok {
		return
	}
	test, err := h.svc.ApproveSoilTest(r.Context(), requestcontext.UserID(r.Context()), testID, req.Approved)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSoilTestResponse(test))
}

type issuePlanRequest struct {
	LandID                string  `json:"landId"`
	RecommendedFertilizer string  `json:"recommendedFertilizer"`
	Quantity              string  `json:"quantity"`
	Schedule              string  `json:"schedule"`
	Duration              string  `json:"duration"`
	YieldIncrease         string  `json:"yieldIncrease"`
	NextApplication       string  `json:"nextApplication"`
	NValue                float64 `json:"nValue"`
	PValue                float64 `json:"pValue"`
	KValue                float64 `json:"kValue"`
}

func (h *Handler) issuePlan(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[issuePlanRequest](w, r, h.logger)
	if !ok {
		return
	}
	landID, err := id.ParseLandID(req.LandID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	plan, err := h.svc.IssuePlan(r.Context(), requestcontext.UserID(r.Context()), service.IssuePlanRequest{
		LandID:                landID,
		RecommendedFertilizer: req.RecommendedFertilizer,
		Quantity:              req.Quantity,
		Schedule:              req.Schedule,
		Duration:              req.Duration,
		YieldIncrease:         req.YieldIncrease,
		NextApplication:       req.NextApplication,
		NValue:                req.NValue,
		PValue:                req.PValue,
		KValue:                req.KValue,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPlanResponse(plan))
}

type statsResponse struct {
	UsersCount       int `json:"usersCount"`
	LandsCount       int `json:"landsCount"`
	PendingSoilCount int `json:"pendingSoilCount"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.DashboardStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statsResponse{
		UsersCount:       stats.UsersCount,
		LandsCount:       stats.LandsCount,
		PendingSoilCount: stats.PendingSoilCount,
	})
}
