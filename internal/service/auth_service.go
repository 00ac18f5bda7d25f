package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
	"github.com/IgnacioAroza/reservation-api/internal/jwt"
	"github.com/IgnacioAroza/reservation-api/internal/password"
	"github.com/IgnacioAroza/reservation-api/internal/repository"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	CompanyID string
	Role      domain.Role
}

// AuthService handles registration, login and per-request authentication.
type AuthService struct {
	instrumented
	users   repository.UserRepository
	tenants TenantResolver
	hasher  Hasher
	tokens  TokenIssuer
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, tenants TenantResolver, hasher Hasher, tokens TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{
		instrumented: newInstrumented(logger),
		users:        users,
		tenants:      tenants,
		hasher:       hasher,
		tokens:       tokens,
	}
}

// Register creates a user in an active company and returns a session token for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	user, err := createUser(ctx, s.users, s.tenants, s.hasher, input)
	if err != nil {
		return nil, fail(span, err)
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, fail(span, err)
	}
	s.audit("auth.register.success", "user_id", user.ID, "company_id", user.CompanyID, "role", user.Role)
	return resp, nil
}

// Login checks credentials and account state. Unknown email and wrong
// password fail with the same error.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*AuthResponse, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, pgx.ErrNoRows) {
		s.audit("auth.login.failure", "reason", domain.CodeInvalidCredentials)
		return nil, fail(span, errInvalidCredentials())
	}
	if err != nil {
		return nil, fail(span, fmt.Errorf("login load user: %w", err))
	}

	if !user.IsActive {
		s.audit("auth.login.failure", "user_id", user.ID, "reason", domain.CodeAccountInactive)
		return nil, fail(span, domain.Unauthorized(domain.CodeAccountInactive, "User account is inactive"))
	}
	if user.Company == nil || !user.Company.IsActive {
		s.audit("auth.login.failure", "user_id", user.ID, "reason", domain.CodeCompanyInactive)
		return nil, fail(span, domain.Unauthorized(domain.CodeCompanyInactive, "Company is inactive"))
	}
	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		s.audit("auth.login.failure", "user_id", user.ID, "reason", domain.CodeInvalidCredentials)
		return nil, fail(span, errInvalidCredentials())
	}
	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, plaintext)
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, fail(span, err)
	}
	s.audit("auth.login.success", "user_id", user.ID, "company_id", user.CompanyID)
	return resp, nil
}

// ValidateCredentials reports whether email and password match a stored user.
// Account and company state are not consulted and no token is issued.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, plaintext string) (UserView, bool) {
	ctx, span := s.startSpan(ctx, "AuthService.ValidateCredentials")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.log().Warn("validate credentials lookup failed", zap.Error(err))
		}
		return UserView{}, false
	}
	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		return UserView{}, false
	}
	return NewUserView(user), true
}

// Authenticate verifies token and re-validates the user and company behind
// it. The returned principal reflects the current stored role and company.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Authenticate")
	defer span.End()

	claim, err := s.tokens.Verify(token)
	if err != nil {
		message := "Invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			message = "Token expired"
		}
		return nil, fail(span, &domain.Error{Kind: domain.KindUnauthorized, Code: domain.CodeInvalidToken, Message: message, Cause: err})
	}

	user, err := s.users.GetByID(ctx, claim.Subject)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fail(span, domain.Unauthorized(domain.CodeInvalidToken, "User not found or inactive"))
	}
	if err != nil {
		return nil, fail(span, fmt.Errorf("authenticate load user: %w", err))
	}
	if !user.IsActive {
		return nil, fail(span, domain.Unauthorized(domain.CodeAccountInactive, "User not found or inactive"))
	}

	company, ok, err := s.tenants.FindActive(ctx, user.CompanyID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("authenticate resolve company: %w", err))
	}
	if !ok {
		return nil, fail(span, domain.Unauthorized(domain.CodeCompanyInactive, "Company is inactive"))
	}

	return &domain.Principal{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		Company:   company,
	}, nil
}

// Profile returns the current view of the authenticated user.
func (s *AuthService) Profile(ctx context.Context, principal *domain.Principal) (UserView, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Profile")
	defer span.End()

	if principal == nil {
		return UserView{}, fail(span, domain.Unauthorized(domain.CodeInvalidToken, "Authentication required"))
	}
	user, err := s.users.GetByID(ctx, principal.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserView{}, fail(span, domain.Unauthorized(domain.CodeInvalidToken, "User not found or inactive"))
	}
	if err != nil {
		return UserView{}, fail(span, fmt.Errorf("profile load user: %w", err))
	}
	return NewUserView(user), nil
}

func (s *AuthService) issue(user domain.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(domain.SessionClaim{
		Subject:   user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        NewUserView(user),
	}, nil
}

// rehash upgrades a verified password to the current algorithm and cost.
// Failures are logged; the login itself still succeeds.
func (s *AuthService) rehash(ctx context.Context, user domain.User, plaintext string) {
	hash, err := s.hasher.Hash(plaintext)
	if err == nil {
		err = s.users.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		s.log().Warn("password rehash failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	s.audit("auth.password.rehashed", "user_id", user.ID)
}

func errInvalidCredentials() error {
	return domain.Unauthorized(domain.CodeInvalidCredentials, "Invalid credentials")
}

// createUser runs the checks shared by registration and admin user creation:
// email must be free and the company active, both before hashing.
func createUser(ctx context.Context, users repository.UserRepository, tenants TenantResolver, hasher Hasher, input RegisterInput) (domain.User, error) {
	email := strings.TrimSpace(input.Email)

	role := domain.DefaultRole
	if input.Role != "" {
		parsed, ok := domain.ParseRole(input.Role.String())
		if !ok {
			return domain.User{}, domain.InvalidInput(domain.CodeInvalidRole, "Role must be one of ADMIN, AGENT, VIEWER")
		}
		role = parsed
	}

	_, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.User{}, domain.Conflict(domain.CodeEmailExists, "Email already exists")
	case !errors.Is(err, pgx.ErrNoRows):
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}

	company, ok, err := tenants.FindActive(ctx, input.CompanyID)
	if err != nil {
		return domain.User{}, fmt.Errorf("resolve company: %w", err)
	}
	if !ok {
		return domain.User{}, domain.InvalidInput(domain.CodeCompanyNotFound, "Company not found")
	}

	hash, err := hasher.Hash(input.Password)
	if errors.Is(err, password.ErrPasswordTooLong) {
		return domain.User{}, domain.InvalidInput(domain.CodeInvalidPassword, "Password is too long")
	}
	if err != nil {
		return domain.User{}, err
	}

	created, err := users.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
		CompanyID:    company.ID,
	})
	if errors.Is(err, repository.ErrUniqueViolation) {
		return domain.User{}, &domain.Error{Kind: domain.KindConflict, Code: domain.CodeEmailExists, Message: "Email already exists", Cause: err}
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	if created.Company == nil {
		created.Company = &company
	}
	return created, nil
}
