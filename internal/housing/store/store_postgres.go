package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"graminsetu/internal/housing/models"
	id "graminsetu/pkg/domain"
	"graminsetu/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresApplicationStore persists applications in PostgreSQL. The
// nested address, housing status and documents blocks are stored as JSONB;
// the workflow only filters on applicant and status, which have their own
// columns.
type PostgresApplicationStore struct {
	db *sql.DB
}

// NewPostgresApplicationStore constructs a PostgreSQL-backed application
// store.
func NewPostgresApplicationStore(db *sql.DB) *PostgresApplicationStore {
	return &PostgresApplicationStore{db: db}
}

const appColumns = `id, applicant_id, application_id, family_size, annual_income, category, address, housing_status, status, documents, admin_remarks, created_at, updated_at`

func (s *PostgresApplicationStore) Create(ctx context.Context, app *models.Application) error {
	address, housingStatus, documents, err := marshalBlocks(app)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO housing_applications (` + appColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(app.ID), uuid.UUID(app.ApplicantID), app.ApplicationID,
		app.FamilySize, app.AnnualIncome, string(app.Category),
		address, housingStatus, string(app.Status), documents,
		app.AdminRemarks, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("application id %s already taken: %w", app.ApplicationID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *PostgresApplicationStore) FindByID(ctx context.Context, appID id.HousingApplicationID) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+appColumns+` FROM housing_applications WHERE id = $1`, uuid.UUID(appID))
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application not found: %w", sentinel.ErrNotFound)
	}
	return app, err
}

func (s *PostgresApplicationStore) ListByApplicant(ctx context.Context, applicantID id.UserID) ([]*models.Application, error) {
	return s.list(ctx,
		`SELECT `+appColumns+` FROM housing_applications WHERE applicant_id = $1 ORDER BY created_at DESC, id`,
		uuid.UUID(applicantID))
}

func (s *PostgresApplicationStore) ListAll(ctx context.Context, status models.Status) ([]*models.Application, error) {
	if status == "" {
		return s.list(ctx,
			`SELECT `+appColumns+` FROM housing_applications ORDER BY created_at DESC, id`)
	}
	return s.list(ctx,
		`SELECT `+appColumns+` FROM housing_applications WHERE status = $1 ORDER BY created_at DESC, id`,
		string(status))
}

func (s *PostgresApplicationStore) list(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}

func (s *PostgresApplicationStore) Update(ctx context.Context, app *models.Application) error {
	address, housingStatus, documents, err := marshalBlocks(app)
	if err != nil {
		return err
	}
	query := `
		UPDATE housing_applications
		SET family_size = $2, annual_income = $3, category = $4, address = $5,
		    housing_status = $6, status = $7, documents = $8, admin_remarks = $9,
		    updated_at = $10
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(app.ID), app.FamilySize, app.AnnualIncome, string(app.Category),
		address, housingStatus, string(app.Status), documents,
		app.AdminRemarks, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("application not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func marshalBlocks(app *models.Application) (address, housingStatus, documents []byte, err error) {
	if address, err = json.Marshal(app.Address); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal address: %w", err)
	}
	if housingStatus, err = json.Marshal(app.HousingStatus); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal housing status: %w", err)
	}
	if documents, err = json.Marshal(app.Documents); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal documents: %w", err)
	}
	return address, housingStatus, documents, nil
}

func scanApplication(row interface{ Scan(...any) error }) (*models.Application, error) {
	var (
		app           models.Application
		appID         uuid.UUID
		applicantID   uuid.UUID
		category      string
		status        string
		address       []byte
		housingStatus []byte
		documents     []byte
	)
	err := row.Scan(
		&appID, &applicantID, &app.ApplicationID, &app.FamilySize,
		&app.AnnualIncome, &category, &address, &housingStatus,
		&status, &documents, &app.AdminRemarks, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}
	app.ID = id.HousingApplicationID(appID)
	app.ApplicantID = id.UserID(applicantID)
	app.Category = models.Category(category)
	app.Status = models.Status(status)
	if err := json.Unmarshal(address, &app.Address); err != nil {
		return nil, fmt.Errorf("unmarshal address: %w", err)
	}
	if err := json.Unmarshal(housingStatus, &app.HousingStatus); err != nil {
		return nil, fmt.Errorf("unmarshal housing status: %w", err)
	}
	if err := json.Unmarshal(documents, &app.Documents); err != nil {
		return nil, fmt.Errorf("unmarshal documents: %w", err)
	}
	return &app, nil
}

// PostgresSequence backs the label sequence with a single-row upsert so
// concurrent applicants never draw the same value.
type PostgresSequence struct {
	db *sql.DB
}

// NewPostgresSequence constructs a PostgreSQL-backed sequence.
func NewPostgresSequence(db *sql.DB) *PostgresSequence {
	return &PostgresSequence{db: db}
}

func (s *PostgresSequence) Next(ctx context.Context) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO housing_sequence (id, value) VALUES (1, 1)
		ON CONFLICT (id) DO UPDATE SET value = housing_sequence.value + 1
		RETURNING value
	`).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("next sequence value: %w", err)
	}
	return value, nil
}
