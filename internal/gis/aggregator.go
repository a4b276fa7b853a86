// Package gis builds the map layer projection served to the frontend. It
// is read-only: every request re-reads the land and housing stores and
// projects them into fixed layers.
package gis

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	housingmodels "graminsetu/internal/housing/models"
	landmodels "graminsetu/internal/land/models"
	"graminsetu/internal/platform/metrics"
	id "graminsetu/pkg/domain"
	dErrors "graminsetu/pkg/domain-errors"
)

// Centroid and spread for jittered placeholder coordinates. Records with
// no GPS fix are scattered around the country centroid so the map still
// shows them; stored coordinates always pass through untouched.
const (
	centroidLat = 20.5937
	centroidLng = 78.9629

	landSpread    = 1.0
	housingSpread = 5.0
)

// Fixed layer identity, mirrored by the frontend.
const (
	LayerAgricultural   = "agricultural"
	LayerHousing        = "housing"
	LayerPendingHousing = "pending_housing"
)

// Point is one map marker.
type Point struct {
	Lat        float64        `json:"lat"`
	Lng        float64        `json:"lng"`
	Properties map[string]any `json:"properties"`
}

// Layer is one toggleable map overlay. Count is the number of matched
// records, jittered or not.
type Layer struct {
	ID      string  `json:"id"`
	LayerID string  `json:"layerId"`
	Name    string  `json:"name"`
	Active  bool    `json:"active"`
	Color   string  `json:"color"`
	Count   int     `json:"count"`
	Data    []Point `json:"data"`
}

// LandReader is the slice of the land store the projection needs.
type LandReader interface {
	ListAll(ctx context.Context) ([]*landmodels.LandParcel, error)
	ListByFarmer(ctx context.Context, farmerID id.UserID) ([]*landmodels.LandParcel, error)
}

// HousingReader is the slice of the housing store the projection needs.
type HousingReader interface {
	ListAll(ctx context.Context, status housingmodels.Status) ([]*housingmodels.Application, error)
}

// NameResolver turns an applicant id into a display name. Failures fall
// back to "Unknown"; a map that loads beats one blocked on a lookup.
type NameResolver interface {
	DisplayName(ctx context.Context, userID id.UserID) (string, error)
}

// Aggregator assembles the layer projection.
type Aggregator struct {
	lands   LandReader
	housing HousingReader
	names   NameResolver
	logger  *slog.Logger
	metrics *metrics.Metrics
	rnd     func() float64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithRand overrides the jitter source. Tests pin it; production uses
// math/rand/v2.
func WithRand(rnd func() float64) Option {
	return func(a *Aggregator) { a.rnd = rnd }
}

// New constructs the aggregator.
func New(lands LandReader, housing HousingReader, names NameResolver, logger *slog.Logger, opts ...Option) (*Aggregator, error) {
	if lands == nil || housing == nil {
		return nil, fmt.Errorf("land and housing readers are required")
	}
	if names == nil {
		return nil, fmt.Errorf("name resolver is required")
	}
	a := &Aggregator{lands: lands, housing: housing, names: names, logger: logger, rnd: rand.Float64}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Layers builds the three fixed layers for the caller's view.
//
// Land predicate: admin sees all parcels, a farmer with a user id sees
// only their own, anyone else sees Approved parcels. The two housing
// layers are always role-unfiltered; they mirror public beneficiary
// lists.
func (a *Aggregator) Layers(ctx context.Context, role string, userID id.UserID) ([]Layer, error) {
	start := time.Now()
	defer func() {
		a.metrics.ObserveLayerBuild(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var (
		lands    []*landmodels.LandParcel
		approved []*housingmodels.Application
		pending  []*housingmodels.Application
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lands, err = a.loadLands(gctx, role, userID)
		return err
	})
	g.Go(func() error {
		var err error
		approved, err = a.housing.ListAll(gctx, housingmodels.StatusApproved)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = a.housing.ListAll(gctx, housingmodels.StatusPending)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build layers")
	}

	return []Layer{
		{
			ID:      LayerAgricultural,
			LayerID: LayerAgricultural,
			Name:    "Agricultural Lands",
			Active:  true,
			Color:   "bg-primary",
			Count:   len(lands),
			Data:    a.landPoints(lands),
		},
		{
			ID:      LayerHousing,
			LayerID: LayerHousing,
			Name:    "Housing Beneficiaries",
			Active:  true,
			Color:   "bg-teal",
			Count:   len(approved),
			Data:    a.housingPoints(ctx, approved),
		},
		{
			ID:      LayerPendingHousing,
			LayerID: LayerPendingHousing,
			Name:    "Pending Applications",
			Active:  false,
			Color:   "bg-yellow",
			Count:   len(pending),
			Data:    a.housingPoints(ctx, pending),
		},
	}, nil
}

func (a *Aggregator) loadLands(ctx context.Context, role string, userID id.UserID) ([]*landmodels.LandParcel, error) {
	switch {
	case role == "admin":
		return a.lands.ListAll(ctx)
	case role == "farmer" && !userID.IsNil():
		return a.lands.ListByFarmer(ctx, userID)
	default:
		all, err := a.lands.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		approved := all[:0]
		for _, l := range all {
			if l.Status == landmodels.LandApproved {
				approved = append(approved, l)
			}
		}
		return approved, nil
	}
}

func (a *Aggregator) landPoints(lands []*landmodels.LandParcel) []Point {
	points := make([]Point, len(lands))
	for i, l := range lands {
		points[i] = Point{
			Lat: a.coordinate(l.Latitude, centroidLat, landSpread),
			Lng: a.coordinate(l.Longitude, centroidLng, landSpread),
			Properties: map[string]any{
				"crop":   l.Crop,
				"area":   l.Area,
				"status": string(l.Status),
			},
		}
	}
	return points
}

func (a *Aggregator) housingPoints(ctx context.Context, apps []*housingmodels.Application) []Point {
	points := make([]Point, len(apps))
	for i, app := range apps {
		name, err := a.names.DisplayName(ctx, app.ApplicantID)
		if err != nil {
			name = "Unknown"
		}
		points[i] = Point{
			Lat: a.coordinate(app.Address.Latitude, centroidLat, housingSpread),
			Lng: a.coordinate(app.Address.Longitude, centroidLng, housingSpread),
			Properties: map[string]any{
				"status":      string(app.Status),
				"village":     app.Address.Village,
				"beneficiary": name,
			},
		}
	}
	return points
}

// coordinate passes stored values through bit-exact and jitters only
// missing ones.
func (a *Aggregator) coordinate(stored *float64, centroid, spread float64) float64 {
	if stored != nil {
		return *stored
	}
	return centroid + (a.rnd()-0.5)*spread
}
