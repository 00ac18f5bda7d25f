package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
)

// PostgresUserRepo implements UserRepository with raw SQL over pgx.
type PostgresUserRepo struct {
	db DB
}

func NewPostgresUserRepo(db DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `u.id::text, u.email, u.password_hash, u.first_name, u.last_name, u.role, u.company_id::text,
u.is_active, u.created_at, u.updated_at,
c.id::text, c.name, c.slug, c.is_active, c.created_at, c.updated_at`

const selectUserSQL = `SELECT ` + userColumns + `
FROM users u
JOIN companies c ON c.id = u.company_id`

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, selectUserSQL+`
WHERE u.email = $1
LIMIT 1`, email))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID string) (domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, selectUserSQL+`
WHERE u.id = $1
LIMIT 1`, userID))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	var (
		where = []string{"u.is_active"}
		args  []any
	)
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		where = append(where, fmt.Sprintf("u.company_id = $%d", len(args)))
	}

	query := selectUserSQL + `
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY u.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

const insertUserSQL = `WITH u AS (
INSERT INTO users (id, email, password_hash, first_name, last_name, role, company_id, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
RETURNING *
)
SELECT ` + userColumns + `
FROM u
JOIN companies c ON c.id = u.company_id`

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.DefaultRole
	}

	created, err := scanUser(r.db.QueryRow(ctx, insertUserSQL,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role.String(),
		user.CompanyID,
	))
	if err != nil {
		return domain.User{}, wrapErr("create user", err)
	}
	return created, nil
}

const updateUserSQL = `WITH u AS (
UPDATE users SET
    email = COALESCE($2, email),
    first_name = COALESCE($3, first_name),
    last_name = COALESCE($4, last_name),
    role = COALESCE($5, role),
    is_active = COALESCE($6, is_active),
    updated_at = now()
WHERE id = $1
RETURNING *
)
SELECT ` + userColumns + `
FROM u
JOIN companies c ON c.id = u.company_id`

func (r *PostgresUserRepo) Update(ctx context.Context, userID string, patch domain.UserPatch) (domain.User, error) {
	var role *string
	if patch.Role != nil {
		value := patch.Role.String()
		role = &value
	}

	updated, err := scanUser(r.db.QueryRow(ctx, updateUserSQL,
		userID,
		patch.Email,
		patch.FirstName,
		patch.LastName,
		role,
		patch.IsActive,
	))
	if err != nil {
		return domain.User{}, wrapErr("update user", err)
	}
	return updated, nil
}

func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update password: %w", pgx.ErrNoRows)
	}
	return nil
}

const deactivateUserSQL = `WITH u AS (
UPDATE users SET is_active = FALSE, updated_at = now()
WHERE id = $1
RETURNING *
)
SELECT ` + userColumns + `
FROM u
JOIN companies c ON c.id = u.company_id`

func (r *PostgresUserRepo) Deactivate(ctx context.Context, userID string) (domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, deactivateUserSQL, userID))
	if err != nil {
		return domain.User{}, fmt.Errorf("deactivate user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		user    domain.User
		role    string
		company domain.Company
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&role,
		&user.CompanyID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
		&company.ID,
		&company.Name,
		&company.Slug,
		&company.IsActive,
		&company.CreatedAt,
		&company.UpdatedAt,
	); err != nil {
		return domain.User{}, err
	}

	user.Role = domain.Role(role)
	user.Company = &company
	return user, nil
}
