package gis

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	housingstore "graminsetu/internal/housing/store"
	landmodels "graminsetu/internal/land/models"
	landstore "graminsetu/internal/land/store"
	id "graminsetu/pkg/domain"
)

func TestLayersEndpoint(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	lands := landstore.NewInMemoryLandStore()
	farmer := id.NewUserID()
	require.NoError(t, lands.Create(t.Context(), &landmodels.LandParcel{
		ID: id.NewLandID(), FarmerID: farmer, Crop: "Rice", Area: 1, Status: landmodels.LandPending,
	}))

	aggregator, err := New(lands, housingstore.NewInMemoryApplicationStore(), stubNames{}, logger)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Route("/gis", NewHandler(aggregator, logger).Routes)

	get := func(path string) []Layer {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var layers []Layer
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layers))
		return layers
	}

	t.Run("anonymous hides pending land", func(t *testing.T) {
		layers := get("/gis/layers")
		require.Equal(t, 0, layerByID(layers, LayerAgricultural).Count)
	})

	t.Run("farmer query widens to own parcels", func(t *testing.T) {
		layers := get("/gis/layers?role=farmer&userId=" + farmer.String())
		require.Equal(t, 1, layerByID(layers, LayerAgricultural).Count)
	})

	t.Run("invalid userId degrades to anonymous view", func(t *testing.T) {
		layers := get("/gis/layers?role=farmer&userId=garbage")
		require.Equal(t, 0, layerByID(layers, LayerAgricultural).Count)
	})
}
