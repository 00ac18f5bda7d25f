//go:build integration

package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
	"github.com/IgnacioAroza/reservation-api/internal/repository"
)

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL must be set for integration tests")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, repository.Migrate(context.Background(), pool))
	return pool
}

func TestPostgresUserLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := setupDB(t)
	companies := repository.NewPostgresCompanyRepo(pool)
	users := repository.NewPostgresUserRepo(pool)

	slug := "it-" + uuid.NewString()[:8]
	company, err := companies.Create(ctx, domain.Company{Name: "Integration Co", Slug: slug})
	require.NoError(t, err)
	assert.True(t, company.IsActive)

	_, err = companies.Create(ctx, domain.Company{Name: "Duplicate", Slug: slug})
	require.ErrorIs(t, err, repository.ErrUniqueViolation)

	email := slug + "@integration.test"
	user, err := users.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: "$2a$10$integration",
		FirstName:    "Int",
		LastName:     "Test",
		CompanyID:    company.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, user.Role)
	require.NotNil(t, user.Company)
	assert.Equal(t, slug, user.Company.Slug)

	_, err = users.Create(ctx, domain.User{Email: email, PasswordHash: "x", CompanyID: company.ID})
	require.ErrorIs(t, err, repository.ErrUniqueViolation)

	found, err := users.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	deactivated, err := users.Deactivate(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	_, err = companies.Deactivate(ctx, company.ID)
	require.NoError(t, err)
	_, err = companies.GetActiveBySlug(ctx, slug)
	require.ErrorIs(t, err, pgx.ErrNoRows)
}
