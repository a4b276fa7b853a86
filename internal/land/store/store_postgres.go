package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"graminsetu/internal/land/models"
	id "graminsetu/pkg/domain"
	"graminsetu/pkg/platform/sentinel"
)

// PostgresLandStore persists parcels in PostgreSQL.
type PostgresLandStore struct {
	db *sql.DB
}

// NewPostgresLandStore constructs a PostgreSQL-backed land store.
func NewPostgresLandStore(db *sql.DB) *PostgresLandStore {
	return &PostgresLandStore{db: db}
}

const landColumns = `id, farmer_id, area, crop, soil_type, latitude, longitude, status, next_action, created_at, updated_at`

func (s *PostgresLandStore) Create(ctx context.Context, land *models.LandParcel) error {
	query := `
		INSERT INTO land_parcels (` + landColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(land.ID), uuid.UUID(land.FarmerID), land.Area, land.Crop,
		land.SoilType, land.Latitude, land.Longitude, string(land.Status),
		land.NextAction, land.CreatedAt, land.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create land parcel: %w", err)
	}
	return nil
}

func (s *PostgresLandStore) FindByID(ctx context.Context, landID id.LandID) (*models.LandParcel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+landColumns+` FROM land_parcels WHERE id = $1`, uuid.UUID(landID))
	land, err := scanLand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("land parcel not found: %w", sentinel.ErrNotFound)
	}
	return land, err
}

func (s *PostgresLandStore) ListByFarmer(ctx context.Context, farmerID id.UserID) ([]*models.LandParcel, error) {
	return s.list(ctx,
		`SELECT `+landColumns+` FROM land_parcels WHERE farmer_id = $1 ORDER BY created_at, id`,
		uuid.UUID(farmerID))
}

func (s *PostgresLandStore) ListAll(ctx context.Context) ([]*models.LandParcel, error) {
	return s.list(ctx, `SELECT `+landColumns+` FROM land_parcels ORDER BY created_at, id`)
}

func (s *PostgresLandStore) list(ctx context.Context, query string, args ...any) ([]*models.LandParcel, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list land parcels: %w", err)
	}
	defer rows.Close()

	var out []*models.LandParcel
	for rows.Next() {
		land, err := scanLand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, land)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list land parcels: %w", err)
	}
	return out, nil
}

func (s *PostgresLandStore) SetStatus(ctx context.Context, landID id.LandID, status models.LandStatus, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE land_parcels SET status = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(landID), string(status), updatedAt)
	if err != nil {
		return fmt.Errorf("update land status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update land status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("land parcel not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresLandStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM land_parcels`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count land parcels: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLand(row rowScanner) (*models.LandParcel, error) {
	var (
		land     models.LandParcel
		landID   uuid.UUID
		farmerID uuid.UUID
		lat, lng sql.NullFloat64
		status   string
	)
	err := row.Scan(
		&landID, &farmerID, &land.Area, &land.Crop, &land.SoilType,
		&lat, &lng, &status, &land.NextAction, &land.CreatedAt, &land.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan land parcel: %w", err)
	}
	land.ID = id.LandID(landID)
	land.FarmerID = id.UserID(farmerID)
	land.Status = models.LandStatus(status)
	if lat.Valid {
		land.Latitude = &lat.Float64
	}
	if lng.Valid {
		land.Longitude = &lng.Float64
	}
	return &land, nil
}

// PostgresSoilTestStore persists soil readings in PostgreSQL.
type PostgresSoilTestStore struct {
	db *sql.DB
}

// NewPostgresSoilTestStore constructs a PostgreSQL-backed soil test store.
func NewPostgresSoilTestStore(db *sql.DB) *PostgresSoilTestStore {
	return &PostgresSoilTestStore{db: db}
}

const soilColumns = `id, land_id, nitrogen, phosphorus, potassium, ph, approved, created_at`

func (s *PostgresSoilTestStore) Create(ctx context.Context, test *models.SoilTest) error {
	query := `
		INSERT INTO soil_tests (` + soilColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(test.ID), uuid.UUID(test.LandID), test.Nitrogen,
		test.Phosphorus, test.Potassium, test.PH, test.Approved, test.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create soil test: %w", err)
	}
	return nil
}

func (s *PostgresSoilTestStore) ListByLands(ctx context.Context, landIDs []id.LandID) ([]*models.SoilTest, error) {
	raw := make([]uuid.UUID, len(landIDs))
	for i, lid := range landIDs {
		raw[i] = uuid.UUID(lid)
	}
	return s.list(ctx,
		`SELECT `+soilColumns+` FROM soil_tests WHERE land_id = ANY($1) ORDER BY created_at, id`,
		pq.Array(raw))
}

func (s *PostgresSoilTestStore) ListPending(ctx context.Context) ([]*models.SoilTest, error) {
	return s.list(ctx,
		`SELECT `+soilColumns+` FROM soil_tests WHERE approved = FALSE ORDER BY created_at, id`)
}

func (s *PostgresSoilTestStore) list(ctx context.Context, query string, args ...any) ([]*models.SoilTest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list soil tests: %w", err)
	}
	defer rows.Close()

	var out []*models.SoilTest
	for rows.Next() {
		test, err := scanSoilTest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, test)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list soil tests: %w", err)
	}
	return out, nil
}

func (s *PostgresSoilTestStore) Approve(ctx context.Context, testID id.SoilTestID) (*models.SoilTest, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE soil_tests SET approved = TRUE WHERE id = $1 RETURNING `+soilColumns,
		uuid.UUID(testID))
	test, err := scanSoilTest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("soil test not found: %w", sentinel.ErrNotFound)
	}
	return test, err
}

func (s *PostgresSoilTestStore) CountPending(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM soil_tests WHERE approved = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending soil tests: %w", err)
	}
	return count, nil
}

func scanSoilTest(row rowScanner) (*models.SoilTest, error) {
	var (
		test   models.SoilTest
		testID uuid.UUID
		landID uuid.UUID
	)
	err := row.Scan(
		&testID, &landID, &test.Nitrogen, &test.Phosphorus,
		&test.Potassium, &test.PH, &test.Approved, &test.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan soil test: %w", err)
	}
	test.ID = id.SoilTestID(testID)
	test.LandID = id.LandID(landID)
	return &test, nil
}

// PostgresPlanStore persists fertilizer plans in PostgreSQL.
type PostgresPlanStore struct {
	db *sql.DB
}

// NewPostgresPlanStore constructs a PostgreSQL-backed plan store.
func NewPostgresPlanStore(db *sql.DB) *PostgresPlanStore {
	return &PostgresPlanStore{db: db}
}

const planColumns = `id, land_id, recommended_fertilizer, quantity, schedule, duration, yield_increase, next_application, n_value, p_value, k_value, created_by, created_at`

func (s *PostgresPlanStore) Create(ctx context.Context, plan *models.FertilizerPlan) error {
	query := `
		INSERT INTO fertilizer_plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(plan.ID), uuid.UUID(plan.LandID), plan.RecommendedFertilizer,
		plan.Quantity, plan.Schedule, plan.Duration, plan.YieldIncrease,
		plan.NextApplication, plan.NValue, plan.PValue, plan.KValue,
		uuid.UUID(plan.CreatedBy), plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create fertilizer plan: %w", err)
	}
	return nil
}

func (s *PostgresPlanStore) ListByLand(ctx context.Context, landID id.LandID) ([]*models.FertilizerPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM fertilizer_plans WHERE land_id = $1 ORDER BY created_at, id`,
		uuid.UUID(landID))
	if err != nil {
		return nil, fmt.Errorf("list fertilizer plans: %w", err)
	}
	defer rows.Close()

	var out []*models.FertilizerPlan
	for rows.Next() {
		var (
			plan      models.FertilizerPlan
			planID    uuid.UUID
			lid       uuid.UUID
			createdBy uuid.UUID
		)
		err := rows.Scan(
			&planID, &lid, &plan.RecommendedFertilizer, &plan.Quantity,
			&plan.Schedule, &plan.Duration, &plan.YieldIncrease,
			&plan.NextApplication, &plan.NValue, &plan.PValue, &plan.KValue,
			&createdBy, &plan.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fertilizer plan: %w", err)
		}
		plan.ID = id.PlanID(planID)
		plan.LandID = id.LandID(lid)
		plan.CreatedBy = id.UserID(createdBy)
		out = append(out, &plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fertilizer plans: %w", err)
	}
	return out, nil
}
