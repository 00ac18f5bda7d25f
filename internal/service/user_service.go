package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/IgnacioAroza/reservation-api/internal/authz"
	"github.com/IgnacioAroza/reservation-api/internal/domain"
	"github.com/IgnacioAroza/reservation-api/internal/password"
	"github.com/IgnacioAroza/reservation-api/internal/repository"
)

// UpdateUserInput carries the fields an administrator may change.
type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *domain.Role
	IsActive  *bool
}

// UserService manages users on behalf of authenticated principals.
type UserService struct {
	instrumented
	users   repository.UserRepository
	tenants TenantResolver
	hasher  Hasher
}

// NewUserService wires dependencies.
func NewUserService(users repository.UserRepository, tenants TenantResolver, hasher Hasher, logger *zap.Logger) *UserService {
	return &UserService{
		instrumented: newInstrumented(logger),
		users:        users,
		tenants:      tenants,
		hasher:       hasher,
	}
}

// Create adds a user with the same rules as registration, without issuing a token.
func (s *UserService) Create(ctx context.Context, input RegisterInput) (UserView, error) {
	ctx, span := s.startSpan(ctx, "UserService.Create")
	defer span.End()

	user, err := createUser(ctx, s.users, s.tenants, s.hasher, input)
	if err != nil {
		return UserView{}, fail(span, err)
	}
	s.audit("user.created", "user_id", user.ID, "company_id", user.CompanyID, "role", user.Role)
	return NewUserView(user), nil
}

// List returns active users, newest first. Principals without the
// cross-tenant role only see their own company.
func (s *UserService) List(ctx context.Context, principal *domain.Principal) ([]UserView, error) {
	ctx, span := s.startSpan(ctx, "UserService.List")
	defer span.End()

	if err := authz.Authorize(principal, nil, ""); err != nil {
		return nil, fail(span, err)
	}

	var filter domain.UserFilter
	if !principal.Role.CrossTenant() {
		filter.CompanyID = principal.CompanyID
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list users: %w", err))
	}
	return NewUserViews(users), nil
}

// Get returns an active user the principal is allowed to see.
func (s *UserService) Get(ctx context.Context, principal *domain.Principal, userID string) (UserView, error) {
	ctx, span := s.startSpan(ctx, "UserService.Get")
	defer span.End()

	if err := authz.Authorize(principal, nil, ""); err != nil {
		return UserView{}, fail(span, err)
	}
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return UserView{}, fail(span, err)
	}
	if err := authz.Authorize(principal, nil, user.CompanyID); err != nil {
		return UserView{}, fail(span, err)
	}
	return NewUserView(user), nil
}

// Update changes profile, role or activation of an active user.
func (s *UserService) Update(ctx context.Context, userID string, input UpdateUserInput) (UserView, error) {
	ctx, span := s.startSpan(ctx, "UserService.Update")
	defer span.End()

	current, err := s.activeUser(ctx, userID)
	if err != nil {
		return UserView{}, fail(span, err)
	}

	patch := domain.UserPatch{IsActive: input.IsActive}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email != current.Email {
			if err := s.ensureEmailFree(ctx, email); err != nil {
				return UserView{}, fail(span, err)
			}
			patch.Email = &email
		}
	}
	if input.FirstName != nil {
		first := strings.TrimSpace(*input.FirstName)
		patch.FirstName = &first
	}
	if input.LastName != nil {
		last := strings.TrimSpace(*input.LastName)
		patch.LastName = &last
	}
	if input.Role != nil {
		role, ok := domain.ParseRole(input.Role.String())
		if !ok {
			return UserView{}, fail(span, domain.InvalidInput(domain.CodeInvalidRole, "Role must be one of ADMIN, AGENT, VIEWER"))
		}
		patch.Role = &role
	}
	if patch.Empty() {
		return NewUserView(current), nil
	}

	updated, err := s.users.Update(ctx, userID, patch)
	switch {
	case errors.Is(err, repository.ErrUniqueViolation):
		return UserView{}, fail(span, &domain.Error{Kind: domain.KindConflict, Code: domain.CodeEmailExists, Message: "Email already exists", Cause: err})
	case errors.Is(err, pgx.ErrNoRows):
		return UserView{}, fail(span, errUserNotFound())
	case err != nil:
		return UserView{}, fail(span, fmt.Errorf("update user: %w", err))
	}

	s.audit("user.updated", "user_id", updated.ID)
	return NewUserView(updated), nil
}

// UpdatePassword replaces the password of userID. Principals may change
// their own password; administrators may change anyone's.
func (s *UserService) UpdatePassword(ctx context.Context, principal *domain.Principal, userID, newPassword string) error {
	ctx, span := s.startSpan(ctx, "UserService.UpdatePassword")
	defer span.End()

	if !authz.Self(principal, userID) {
		if err := authz.Authorize(principal, []domain.Role{domain.RoleAdmin}, ""); err != nil {
			return fail(span, err)
		}
	}
	if _, err := s.activeUser(ctx, userID); err != nil {
		return fail(span, err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if errors.Is(err, password.ErrPasswordTooLong) {
		return fail(span, domain.InvalidInput(domain.CodeInvalidPassword, "Password is too long"))
	}
	if err != nil {
		return fail(span, err)
	}

	err = s.users.UpdatePassword(ctx, userID, hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return fail(span, errUserNotFound())
	}
	if err != nil {
		return fail(span, fmt.Errorf("update password: %w", err))
	}

	s.audit("user.password_changed", "user_id", userID, "actor_id", principal.UserID)
	return nil
}

// Remove soft-deletes a user.
func (s *UserService) Remove(ctx context.Context, userID string) (UserView, error) {
	ctx, span := s.startSpan(ctx, "UserService.Remove")
	defer span.End()

	user, err := s.users.Deactivate(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserView{}, fail(span, errUserNotFound())
	}
	if err != nil {
		return UserView{}, fail(span, fmt.Errorf("deactivate user: %w", err))
	}

	s.audit("user.deactivated", "user_id", user.ID, "company_id", user.CompanyID)
	return NewUserView(user), nil
}

func (s *UserService) activeUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !user.IsActive) {
		return domain.User{}, errUserNotFound()
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.Conflict(domain.CodeEmailExists, "Email already exists")
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	default:
		return fmt.Errorf("check email: %w", err)
	}
}

func errUserNotFound() error {
	return domain.NotFound(domain.CodeUserNotFound, "User not found")
}
