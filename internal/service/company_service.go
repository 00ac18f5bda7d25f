package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/IgnacioAroza/reservation-api/internal/adapter/cache"
	"github.com/IgnacioAroza/reservation-api/internal/domain"
	"github.com/IgnacioAroza/reservation-api/internal/repository"
)

// CreateCompanyInput carries the fields accepted when creating a company.
// An empty Slug is derived from Name.
type CreateCompanyInput struct {
	Name string
	Slug string
}

// UpdateCompanyInput carries the mutable company fields. Nil means unchanged.
type UpdateCompanyInput struct {
	Name *string
	Slug *string
}

// CompanyService manages tenants.
type CompanyService struct {
	instrumented
	companies repository.CompanyRepository
	tenants   TenantResolver
	locker    Locker
	lockTTL   time.Duration
}

// NewCompanyService wires dependencies.
func NewCompanyService(companies repository.CompanyRepository, tenants TenantResolver, locker Locker, lockTTL time.Duration, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		instrumented: newInstrumented(logger),
		companies:    companies,
		tenants:      tenants,
		locker:       locker,
		lockTTL:      lockTTL,
	}
}

// Create inserts a company after checking its slug under a distributed lock.
func (s *CompanyService) Create(ctx context.Context, input CreateCompanyInput) (domain.Company, error) {
	ctx, span := s.startSpan(ctx, "CompanyService.Create")
	defer span.End()

	name := strings.TrimSpace(input.Name)
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = GenerateSlug(name)
	}
	if !ValidSlug(slug) {
		return domain.Company{}, fail(span, errInvalidSlug(slug))
	}

	var created domain.Company
	err := s.withSlugLock(ctx, slug, func(ctx context.Context) error {
		if err := s.ensureSlugFree(ctx, slug, ""); err != nil {
			return err
		}
		company, err := s.companies.Create(ctx, domain.Company{Name: name, Slug: slug})
		if errors.Is(err, repository.ErrUniqueViolation) {
			return slugConflict(slug, err)
		}
		if err != nil {
			return fmt.Errorf("create company: %w", err)
		}
		created = company
		return nil
	})
	if err != nil {
		return domain.Company{}, fail(span, err)
	}

	s.audit("company.created", "company_id", created.ID, "slug", created.Slug)
	return created, nil
}

// List returns active companies, newest first.
func (s *CompanyService) List(ctx context.Context) ([]domain.Company, error) {
	ctx, span := s.startSpan(ctx, "CompanyService.List")
	defer span.End()

	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list companies: %w", err))
	}
	return companies, nil
}

// Get returns an active company by id.
func (s *CompanyService) Get(ctx context.Context, companyID string) (domain.Company, error) {
	ctx, span := s.startSpan(ctx, "CompanyService.Get")
	defer span.End()

	company, err := s.companies.GetActiveByID(ctx, companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, fail(span, errCompanyNotFound())
	}
	if err != nil {
		return domain.Company{}, fail(span, fmt.Errorf("get company: %w", err))
	}
	return company, nil
}

// GetBySlug returns the active company using slug, if any.
func (s *CompanyService) GetBySlug(ctx context.Context, slug string) (domain.Company, bool, error) {
	ctx, span := s.startSpan(ctx, "CompanyService.GetBySlug")
	defer span.End()

	company, ok, err := s.tenants.FindActiveBySlug(ctx, slug)
	if err != nil {
		return domain.Company{}, false, fail(span, err)
	}
	return company, ok, nil
}

// Update renames a company or changes its slug. A new name without an
// explicit slug regenerates the slug from the name.
func (s *CompanyService) Update(ctx context.Context, companyID string, input UpdateCompanyInput) (domain.Company, error) {
	ctx, span := s.startSpan(ctx, "CompanyService.Update")
	defer span.End()

	current, err := s.Get(ctx, companyID)
	if err != nil {
		return domain.Company{}, fail(span, err)
	}

	var patch domain.CompanyPatch
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		patch.Name = &name
	}
	switch {
	case input.Slug != nil && strings.TrimSpace(*input.Slug) != "":
		slug := strings.TrimSpace(*input.Slug)
		patch.Slug = &slug
	case patch.Name != nil:
		slug := GenerateSlug(*patch.Name)
		patch.Slug = &slug
	}
	if patch.Name == nil && patch.Slug == nil {
		return current, nil
	}

	if patch.Slug == nil || *patch.Slug == current.Slug {
		return s.applyUpdate(ctx, companyID, patch)
	}

	slug := *patch.Slug
	if !ValidSlug(slug) {
		return domain.Company{}, fail(span, errInvalidSlug(slug))
	}

	var updated domain.Company
	err = s.withSlugLock(ctx, slug, func(ctx context.Context) error {
		if err := s.ensureSlugFree(ctx, slug, companyID); err != nil {
			return err
		}
		var err error
		updated, err = s.applyUpdate(ctx, companyID, patch)
		return err
	})
	if err != nil {
		return domain.Company{}, fail(span, err)
	}
	return updated, nil
}

// Remove soft-deletes an active company.
func (s *CompanyService) Remove(ctx context.Context, companyID string) (domain.Company, error) {
	ctx, span := s.startSpan(ctx, "CompanyService.Remove")
	defer span.End()

	if _, err := s.Get(ctx, companyID); err != nil {
		return domain.Company{}, fail(span, err)
	}
	company, err := s.companies.Deactivate(ctx, companyID)
	if err != nil {
		return domain.Company{}, fail(span, fmt.Errorf("deactivate company: %w", err))
	}

	s.audit("company.deactivated", "company_id", company.ID)
	return company, nil
}

func (s *CompanyService) applyUpdate(ctx context.Context, companyID string, patch domain.CompanyPatch) (domain.Company, error) {
	updated, err := s.companies.Update(ctx, companyID, patch)
	switch {
	case errors.Is(err, repository.ErrUniqueViolation):
		return domain.Company{}, slugConflict(*patch.Slug, err)
	case errors.Is(err, pgx.ErrNoRows):
		return domain.Company{}, errCompanyNotFound()
	case err != nil:
		return domain.Company{}, fmt.Errorf("update company: %w", err)
	}
	s.audit("company.updated", "company_id", updated.ID, "slug", updated.Slug)
	return updated, nil
}

func (s *CompanyService) ensureSlugFree(ctx context.Context, slug, excludeID string) error {
	taken, err := s.companies.SlugTaken(ctx, slug, excludeID)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return slugConflict(slug, nil)
	}
	return nil
}

func (s *CompanyService) withSlugLock(ctx context.Context, slug string, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, "company-slug:"+slug, s.lockTTL, fn)
	if errors.Is(err, cache.ErrLockNotAcquired) {
		return domain.Conflict(domain.CodeSlugLocked, "Company slug is being claimed, retry shortly")
	}
	return err
}

func slugConflict(slug string, cause error) error {
	return &domain.Error{
		Kind:    domain.KindConflict,
		Code:    domain.CodeSlugExists,
		Message: "Company with slug already exists: " + slug,
		Cause:   cause,
	}
}

func errInvalidSlug(slug string) error {
	return domain.InvalidInput(domain.CodeInvalidSlug, fmt.Sprintf("Invalid slug %q", slug))
}

func errCompanyNotFound() error {
	return domain.NotFound(domain.CodeCompanyNotFound, "Company not found")
}
