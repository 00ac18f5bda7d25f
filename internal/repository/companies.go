package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
)

// PostgresCompanyRepo implements CompanyRepository with raw SQL over pgx.
type PostgresCompanyRepo struct {
	db DB
}

func NewPostgresCompanyRepo(db DB) *PostgresCompanyRepo {
	return &PostgresCompanyRepo{db: db}
}

const companyColumns = `c.id::text, c.name, c.slug, c.is_active, c.created_at, c.updated_at,
(SELECT count(*) FROM users cu WHERE cu.company_id = c.id)`

const selectCompanySQL = `SELECT ` + companyColumns + `
FROM companies c`

func (r *PostgresCompanyRepo) GetByID(ctx context.Context, companyID string) (domain.Company, error) {
	company, err := scanCompany(r.db.QueryRow(ctx, selectCompanySQL+`
WHERE c.id = $1
LIMIT 1`, companyID))
	if err != nil {
		return domain.Company{}, fmt.Errorf("get company: %w", err)
	}
	return company, nil
}

func (r *PostgresCompanyRepo) GetActiveByID(ctx context.Context, companyID string) (domain.Company, error) {
	company, err := scanCompany(r.db.QueryRow(ctx, selectCompanySQL+`
WHERE c.id = $1 AND c.is_active
LIMIT 1`, companyID))
	if err != nil {
		return domain.Company{}, fmt.Errorf("get active company: %w", err)
	}
	return company, nil
}

func (r *PostgresCompanyRepo) GetActiveBySlug(ctx context.Context, slug string) (domain.Company, error) {
	company, err := scanCompany(r.db.QueryRow(ctx, selectCompanySQL+`
WHERE c.slug = $1 AND c.is_active
LIMIT 1`, slug))
	if err != nil {
		return domain.Company{}, fmt.Errorf("get company by slug: %w", err)
	}
	return company, nil
}

// SlugTaken reports whether an active company other than excludeID uses slug.
func (r *PostgresCompanyRepo) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (
SELECT 1 FROM companies
WHERE slug = $1 AND is_active AND ($2 = '' OR id::text <> $2)
)`
	var taken bool
	if err := r.db.QueryRow(ctx, query, slug, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return taken, nil
}

func (r *PostgresCompanyRepo) List(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.db.Query(ctx, selectCompanySQL+`
WHERE c.is_active
ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	companies := make([]domain.Company, 0)
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

const insertCompanySQL = `INSERT INTO companies AS c (id, name, slug, is_active)
VALUES ($1, $2, $3, TRUE)
RETURNING ` + companyColumns

func (r *PostgresCompanyRepo) Create(ctx context.Context, company domain.Company) (domain.Company, error) {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	created, err := scanCompany(r.db.QueryRow(ctx, insertCompanySQL, company.ID, company.Name, company.Slug))
	if err != nil {
		return domain.Company{}, wrapErr("create company", err)
	}
	return created, nil
}

const updateCompanySQL = `UPDATE companies AS c SET
    name = COALESCE($2, c.name),
    slug = COALESCE($3, c.slug),
    updated_at = now()
WHERE c.id = $1
RETURNING ` + companyColumns

func (r *PostgresCompanyRepo) Update(ctx context.Context, companyID string, patch domain.CompanyPatch) (domain.Company, error) {
	updated, err := scanCompany(r.db.QueryRow(ctx, updateCompanySQL, companyID, patch.Name, patch.Slug))
	if err != nil {
		return domain.Company{}, wrapErr("update company", err)
	}
	return updated, nil
}

const deactivateCompanySQL = `UPDATE companies AS c SET is_active = FALSE, updated_at = now()
WHERE c.id = $1
RETURNING ` + companyColumns

func (r *PostgresCompanyRepo) Deactivate(ctx context.Context, companyID string) (domain.Company, error) {
	company, err := scanCompany(r.db.QueryRow(ctx, deactivateCompanySQL, companyID))
	if err != nil {
		return domain.Company{}, fmt.Errorf("deactivate company: %w", err)
	}
	return company, nil
}

func scanCompany(row pgx.Row) (domain.Company, error) {
	var (
		company domain.Company
		count   int64
	)
	if err := row.Scan(
		&company.ID,
		&company.Name,
		&company.Slug,
		&company.IsActive,
		&company.CreatedAt,
		&company.UpdatedAt,
		&count,
	); err != nil {
		return domain.Company{}, err
	}
	company.UserCount = int(count)
	return company, nil
}
