package gis

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "graminsetu/pkg/domain"
	"graminsetu/pkg/platform/httputil"
)

// Handler serves the /gis routes.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewHandler constructs the gis handler.
func NewHandler(aggregator *Aggregator, logger *slog.Logger) *Handler {
	return &Handler{aggregator: aggregator, logger: logger}
}

// Routes registers the layer endpoint.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/layers", h.layers)
}

// layers is public: role and userId come from query parameters, as the
// frontend sends them, and only widen or narrow the land layer. An
// unparseable userId degrades to the anonymous view instead of failing
// the whole map.
func (h *Handler) layers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")

	var userID id.UserID
	if raw := r.URL.Query().Get("userId"); raw != "" {
		parsed, err := id.ParseUserID(raw)
		if err != nil {
			h.logger.WarnContext(r.Context(), "ignoring invalid userId on layer request", "error", err)
		} else {
			userID = parsed
		}
	}

	layers, err := h.aggregator.Layers(r.Context(), role, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, layers)
}
