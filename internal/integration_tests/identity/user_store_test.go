//go:build integration

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graminsetu/internal/identity/models"
	"graminsetu/internal/identity/store"
	id "graminsetu/pkg/domain"
	"graminsetu/pkg/platform/sentinel"
	"graminsetu/pkg/testutil/containers"
)

func newUser(email, phone string, role models.Role) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.User{
		ID:           id.NewUserID(),
		Name:         "Ramesh Kumar",
		Email:        email,
		Phone:        phone,
		Village:      "Rampur",
		District:     "Sitapur",
		PasswordHash: "$2a$10$notarealhashbutlongenough",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPostgresUserStore(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	users := store.NewPostgres(pg.DB)

	t.Run("create and find", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))

		user := newUser("ramesh@example.com", "9876543210", models.RoleFarmer)
		require.NoError(t, users.Create(ctx, user))

		byID, err := users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
		assert.Equal(t, user.Role, byID.Role)

		byEmail, err := users.FindByEmail(ctx, "RAMESH@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		byPhone, err := users.FindByPhone(ctx, "9876543210")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byPhone.ID)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))

		require.NoError(t, users.Create(ctx, newUser("sita@example.com", "9876500001", models.RoleFarmer)))
		err := users.Create(ctx, newUser("Sita@Example.com", "9876500002", models.RoleFarmer))
		require.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("unknown lookups report not found", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))

		_, err := users.FindByID(ctx, id.NewUserID())
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = users.FindByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = users.FindByPhone(ctx, "9000000000")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("count by role", func(t *testing.T) {
		require.NoError(t, pg.TruncateAll(ctx))

		require.NoError(t, users.Create(ctx, newUser("a@example.com", "9876500003", models.RoleFarmer)))
		require.NoError(t, users.Create(ctx, newUser("b@example.com", "9876500004", models.RoleFarmer)))
		require.NoError(t, users.Create(ctx, newUser("c@example.com", "9876500005", models.RoleAdmin)))

		farmers, err := users.CountByRole(ctx, models.RoleFarmer)
		require.NoError(t, err)
		assert.Equal(t, 2, farmers)
	})
}
