// Command server wires the GraminSetu service: identity registration, the
// land approval chain, the housing workflow and the map layer projection,
// behind one HTTP router. Business logic lives in the internal service
// packages; this file only builds dependencies and owns the lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"graminsetu/internal/audit"
	"graminsetu/internal/gis"
	housinghandler "graminsetu/internal/housing/handler"
	housingservice "graminsetu/internal/housing/service"
	housingstore "graminsetu/internal/housing/store"
	identityhandler "graminsetu/internal/identity/handler"
	identitymodels "graminsetu/internal/identity/models"
	identityservice "graminsetu/internal/identity/service"
	identitystore "graminsetu/internal/identity/store"
	landhandler "graminsetu/internal/land/handler"
	landservice "graminsetu/internal/land/service"
	landstore "graminsetu/internal/land/store"
	"graminsetu/internal/notify"
	"graminsetu/internal/otc"
	"graminsetu/internal/platform/config"
	"graminsetu/internal/platform/httpserver"
	"graminsetu/internal/platform/kafka"
	"graminsetu/internal/platform/logger"
	"graminsetu/internal/platform/metrics"
	"graminsetu/internal/platform/middleware"
	"graminsetu/internal/platform/postgres"
	"graminsetu/internal/platform/redis"
	id "graminsetu/pkg/domain"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backing stores degrade gracefully: no Postgres DSN means in-memory
	// stores, no Redis URL means in-memory code stores, no Kafka brokers
	// means log-only audit.
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		log.Info("postgres connected")
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	auditor, closeProducer, err := buildAuditor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeProducer()

	// Identity.
	var users identitystore.UserStore
	if db != nil {
		users = identitystore.NewPostgres(db)
	} else {
		users = identitystore.NewInMemory()
	}

	emailCodes, err := buildRegistry(redisClient, "otc:email:", cfg.CodeTTL, m)
	if err != nil {
		return err
	}
	phoneCodes, err := buildRegistry(redisClient, "otc:phone:", cfg.CodeTTL, m)
	if err != nil {
		return err
	}

	dispatcher := notify.NewDispatcher(cfg.NotifyTimeout, log,
		notify.NewEmailChannel(cfg.SMTP),
		notify.NewSMSChannel(cfg.SMS),
	)
	tokens := identityservice.NewTokenManager(cfg.JWTSigningKey, cfg.TokenTTL)

	registrar, err := identityservice.NewRegistrar(
		users, emailCodes, phoneCodes, dispatcher, tokens, log,
		identityservice.WithAdminSecret(cfg.AdminSecret),
		identityservice.WithMetrics(m),
		identityservice.WithAuditor(auditor),
	)
	if err != nil {
		return err
	}

	// Land approval chain.
	var (
		lands landstore.LandStore
		soils landstore.SoilTestStore
		plans landstore.PlanStore
	)
	if db != nil {
		lands = landstore.NewPostgresLandStore(db)
		soils = landstore.NewPostgresSoilTestStore(db)
		plans = landstore.NewPostgresPlanStore(db)
	} else {
		lands = landstore.NewInMemoryLandStore()
		soils = landstore.NewInMemorySoilTestStore()
		plans = landstore.NewInMemoryPlanStore()
	}
	landSvc, err := landservice.New(lands, soils, plans, farmerCounter{users}, log,
		landservice.WithMetrics(m),
		landservice.WithAuditor(auditor),
	)
	if err != nil {
		return err
	}

	// Housing workflow.
	var (
		apps     housingstore.ApplicationStore
		sequence housingstore.SequenceStore
	)
	if db != nil {
		apps = housingstore.NewPostgresApplicationStore(db)
		sequence = housingstore.NewPostgresSequence(db)
	} else {
		apps = housingstore.NewInMemoryApplicationStore()
		sequence = housingstore.NewInMemorySequence()
	}
	housingSvc, err := housingservice.New(apps, sequence, log,
		housingservice.WithMetrics(m),
		housingservice.WithAuditor(auditor),
	)
	if err != nil {
		return err
	}

	// Map layers read from the same stores the workflows write.
	aggregator, err := gis.New(lands, apps, nameResolver{users}, log, gis.WithMetrics(m))
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Authenticate(tokens, registrar, log, auditor))

	router.Route("/auth", identityhandler.New(registrar, log).Routes)
	router.Route("/fertilizer", landhandler.New(landSvc, log).Routes)
	router.Route("/housing-apps", housinghandler.New(housingSvc, log).Routes)
	router.Route("/gis", gis.NewHandler(aggregator, log).Routes)

	router.Get("/healthz", healthz(db, redisClient))
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting graminsetu", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildRegistry picks the Redis-backed code store when Redis is
// configured, falling back to process-local memory.
func buildRegistry(client *redis.Client, prefix string, ttl time.Duration, m *metrics.Metrics) (*otc.Registry, error) {
	var store otc.Store
	if client != nil {
		store = otc.NewRedisStore(client.Client, prefix)
	} else {
		store = otc.NewInMemoryStore()
	}
	return otc.NewRegistry(store, ttl, otc.WithMetrics(m))
}

// buildAuditor attaches the Kafka publisher when brokers are configured.
func buildAuditor(ctx context.Context, cfg config.Config, log *slog.Logger) (*audit.Emitter, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewEmitter(log, nil), func() {}, nil
	}
	producer, err := kafka.NewProducer(ctx, cfg.KafkaBrokers, audit.Topics(""), log)
	if err != nil {
		return nil, nil, err
	}
	publisher := audit.NewKafkaPublisher(producer, "")
	log.Info("kafka audit pipeline enabled", "brokers", cfg.KafkaBrokers)
	return audit.NewEmitter(log, publisher), producer.Close, nil
}

// healthz reports liveness plus the health of whichever backing stores
// are configured.
func healthz(db *sql.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := `{"status":"ok"}`
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body = `{"status":"postgres unavailable"}`
			}
		}
		if status == http.StatusOK && redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body = `{"status":"redis unavailable"}`
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// farmerCounter adapts the identity store to the land dashboard's
// headcount query.
type farmerCounter struct {
	users identitystore.UserStore
}

func (c farmerCounter) CountFarmers(ctx context.Context) (int, error) {
	return c.users.CountByRole(ctx, identitymodels.RoleFarmer)
}

// nameResolver adapts the identity store to the map layer's beneficiary
// labels.
type nameResolver struct {
	users identitystore.UserStore
}

func (n nameResolver) DisplayName(ctx context.Context, userID id.UserID) (string, error) {
	user, err := n.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Name, nil
}
