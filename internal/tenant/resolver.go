package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
)

// CompanyLookup is the subset of the company store the resolver needs.
type CompanyLookup interface {
	GetActiveByID(ctx context.Context, companyID string) (domain.Company, error)
	GetActiveBySlug(ctx context.Context, slug string) (domain.Company, error)
}

// Resolver answers whether a referenced company exists and is active.
type Resolver struct {
	repo CompanyLookup
}

// NewResolver creates a tenant resolver.
func NewResolver(repo CompanyLookup) *Resolver {
	return &Resolver{repo: repo}
}

// FindActive loads an active company by id. A missing or inactive company
// yields ok=false; err is reserved for store failures.
func (r *Resolver) FindActive(ctx context.Context, companyID string) (domain.Company, bool, error) {
	cleaned := strings.TrimSpace(companyID)
	if cleaned == "" {
		return domain.Company{}, false, nil
	}

	company, err := r.repo.GetActiveByID(ctx, cleaned)
	if errors.Is(err, pgx.ErrNoRows) {
		zap.L().Debug("company not active", zap.String("company_id", cleaned))
		return domain.Company{}, false, nil
	}
	if err != nil {
		zap.L().Error("failed to resolve company", zap.String("company_id", cleaned), zap.Error(err))
		return domain.Company{}, false, fmt.Errorf("resolve company: %w", err)
	}
	return company, true, nil
}

// FindActiveBySlug loads an active company by slug with the same contract as FindActive.
func (r *Resolver) FindActiveBySlug(ctx context.Context, slug string) (domain.Company, bool, error) {
	cleaned := strings.ToLower(strings.TrimSpace(slug))
	if cleaned == "" {
		return domain.Company{}, false, nil
	}

	company, err := r.repo.GetActiveBySlug(ctx, cleaned)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, false, nil
	}
	if err != nil {
		zap.L().Error("failed to resolve company by slug", zap.String("slug", cleaned), zap.Error(err))
		return domain.Company{}, false, fmt.Errorf("resolve company by slug: %w", err)
	}
	return company, true, nil
}
