package repository

import (
	"context"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
)

// UserRepository exposes persistence for platform users. Lookups return
// inactive rows too; pgx.ErrNoRows signals absence.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID string) (domain.User, error)
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Update(ctx context.Context, userID string, patch domain.UserPatch) (domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	Deactivate(ctx context.Context, userID string) (domain.User, error)
}

// CompanyRepository exposes persistence for tenants.
type CompanyRepository interface {
	GetByID(ctx context.Context, companyID string) (domain.Company, error)
	GetActiveByID(ctx context.Context, companyID string) (domain.Company, error)
	GetActiveBySlug(ctx context.Context, slug string) (domain.Company, error)
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	List(ctx context.Context) ([]domain.Company, error)
	Create(ctx context.Context, company domain.Company) (domain.Company, error)
	Update(ctx context.Context, companyID string, patch domain.CompanyPatch) (domain.Company, error)
	Deactivate(ctx context.Context, companyID string) (domain.Company, error)
}
