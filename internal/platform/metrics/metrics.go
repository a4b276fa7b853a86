// Package metrics holds the Prometheus metrics for the application.
// Services receive *Metrics optionally; all methods are nil-safe so unit
// tests can pass nil without registering collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated            prometheus.Counter
	CodesIssued             prometheus.Counter
	CodesVerified           *prometheus.CounterVec
	PlansIssued             prometheus.Counter
	PlanLandInconsistencies prometheus.Counter
	HousingApplications     prometheus.Counter
	LayerBuildDuration      prometheus.Histogram
}

// New creates and registers all Prometheus metrics. Call once per process.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "graminsetu_users_created_total",
			Help: "Total number of user accounts created",
		}),
		CodesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "graminsetu_codes_issued_total",
			Help: "Total number of one-time codes issued",
		}),
		CodesVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "graminsetu_codes_verified_total",
			Help: "One-time code verification attempts by result",
		}, []string{"result"}),
		PlansIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "graminsetu_plans_issued_total",
			Help: "Total number of fertilizer plans issued",
		}),
		PlanLandInconsistencies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "graminsetu_plan_land_inconsistencies_total",
			Help: "Plan issuances where the land status write did not take effect",
		}),
		HousingApplications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "graminsetu_housing_applications_total",
			Help: "Total number of housing applications submitted",
		}),
		LayerBuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "graminsetu_layer_build_duration_ms",
			Help:    "Latency of map layer aggregation in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250},
		}),
	}
}

func (m *Metrics) IncUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}

func (m *Metrics) IncCodesIssued() {
	if m != nil {
		m.CodesIssued.Inc()
	}
}

func (m *Metrics) IncCodesVerified(result string) {
	if m != nil {
		m.CodesVerified.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncPlansIssued() {
	if m != nil {
		m.PlansIssued.Inc()
	}
}

func (m *Metrics) IncPlanLandInconsistencies() {
	if m != nil {
		m.PlanLandInconsistencies.Inc()
	}
}

func (m *Metrics) IncHousingApplications() {
	if m != nil {
		m.HousingApplications.Inc()
	}
}

func (m *Metrics) ObserveLayerBuild(ms float64) {
	if m != nil {
		m.LayerBuildDuration.Observe(ms)
	}
}
