package service_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
	"github.com/IgnacioAroza/reservation-api/internal/password"
	"github.com/IgnacioAroza/reservation-api/internal/repository"
	"github.com/IgnacioAroza/reservation-api/internal/service"
)

func requireNoSecretFields(t *testing.T, typ reflect.Type) {
	t.Helper()
	for typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Slice {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct || typ.PkgPath() == "time" {
		return
	}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name := strings.ToLower(field.Name + " " + field.Tag.Get("json"))
		require.NotContains(t, name, "password", "%s.%s", typ.Name(), field.Name)
		require.NotContains(t, name, "hash", "%s.%s", typ.Name(), field.Name)
		requireNoSecretFields(t, field.Type)
	}
}

func requireNoSecretJSON(t *testing.T, value any) {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	lowered := strings.ToLower(string(raw))
	require.NotContains(t, lowered, "password")
	require.NotContains(t, lowered, "$2a$")
}

func TestResponseShapesCarryNoSecret(t *testing.T) {
	requireNoSecretFields(t, reflect.TypeOf(service.AuthResponse{}))
	requireNoSecretFields(t, reflect.TypeOf(service.UserView{}))
	requireNoSecretFields(t, reflect.TypeOf([]service.UserView{}))
}

func TestRegisterAndLoginScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.company(t, "Tenant One", "")

	registered := f.register(t, "a@x.com", t1.ID, "")
	require.NotEmpty(t, registered.AccessToken)
	require.Equal(t, domain.RoleAgent, registered.User.Role)
	require.Equal(t, t1.ID, registered.User.CompanyID)
	require.NotNil(t, registered.User.Company)
	require.Equal(t, "tenant-one", registered.User.Company.Slug)
	requireNoSecretJSON(t, registered)

	stored, ok := f.store.RawUser(registered.User.ID)
	require.True(t, ok)
	require.NotEqual(t, "SecurePass123", stored.PasswordHash)

	loggedIn, err := f.auth.Login(ctx, "a@x.com", "SecurePass123")
	require.NoError(t, err)
	requireNoSecretJSON(t, loggedIn)

	claim, err := f.tokens.Verify(loggedIn.AccessToken)
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, claim.Subject)
	require.Equal(t, t1.ID, claim.CompanyID)
	require.Equal(t, domain.RoleAgent, claim.Role)
	require.Equal(t, "a@x.com", claim.Email)
	require.Equal(t, f.clock.now.Add(7*24*time.Hour), claim.ExpiresAt)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	t1 := f.company(t, "Tenant One", "")
	t2 := f.company(t, "Tenant Two", "")

	f.register(t, "dup@x.com", t1.ID, domain.RoleViewer)
	hashesBefore := f.hasher.hashes

	_, err := f.auth.Register(context.Background(), service.RegisterInput{
		Email:     "dup@x.com",
		Password:  "AnotherPass456",
		FirstName: "Other",
		LastName:  "Person",
		CompanyID: t2.ID,
		Role:      domain.RoleAdmin,
	})
	require.ErrorIs(t, err, domain.Conflict(domain.CodeEmailExists, ""))
	require.Equal(t, hashesBefore, f.hasher.hashes, "conflict must be detected before hashing")
}

func TestRegisterRequiresActiveCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive := f.company(t, "Gone Corp", "")
	_, err := f.companies.Remove(ctx, inactive.ID)
	require.NoError(t, err)

	for _, companyID := range []string{inactive.ID, "0b0c6f0e-5d5e-4d0b-8f1e-000000000000"} {
		_, err := f.auth.Register(ctx, service.RegisterInput{
			Email:     "new@x.com",
			Password:  "SecurePass123",
			FirstName: "New",
			LastName:  "User",
			CompanyID: companyID,
		})
		require.ErrorIs(t, err, domain.InvalidInput(domain.CodeCompanyNotFound, ""))
	}
	require.Zero(t, f.hasher.hashes)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)
	t1 := f.company(t, "Tenant One", "")

	_, err := f.auth.Register(context.Background(), service.RegisterInput{
		Email:     "a@x.com",
		Password:  "SecurePass123",
		CompanyID: t1.ID,
		Role:      domain.Role("OWNER"),
	})
	require.ErrorIs(t, err, domain.InvalidInput(domain.CodeInvalidRole, ""))
}

func TestRegisterKeepsExplicitRole(t *testing.T) {
	f := newFixture(t)
	t1 := f.company(t, "Tenant One", "")

	resp := f.register(t, "boss@x.com", t1.ID, domain.RoleAdmin)
	require.Equal(t, domain.RoleAdmin, resp.User.Role)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.company(t, "Tenant One", "")
	resp := f.register(t, "a@x.com", t1.ID, "")

	_, err := f.auth.Login(ctx, "nobody@x.com", "SecurePass123")
	require.ErrorIs(t, err, domain.Unauthorized(domain.CodeInvalidCredentials, ""))
	unknown, _ := domain.AsError(err)

	_, err = f.auth.Login(ctx, "a@x.com", "WrongPass999")
	require.ErrorIs(t, err, domain.Unauthorized(domain.CodeInvalidCredentials, ""))
	wrong, _ := domain.AsError(err)
	require.Equal(t, unknown.Message, wrong.Message)

	_, err = f.users.Remove(ctx, resp.User.ID)
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, "a@x.com", "SecurePass123")
	require.ErrorIs(t, err, domain.Unauthorized(domain.CodeAccountInactive, ""))
}

func TestLoginRejectsInactiveCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.company(t, "Tenant One", "")
	f.register(t, "a@x.com", t1.ID, "")

	_, err := f.companies.Remove(ctx, t1.ID)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "a@x.com", "SecurePass123")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.ErrorIs(t, err, domain.Unauthorized(domain.CodeCompanyInactive, ""))
}

func TestValidateCredentialsIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.company(t, "Tenant One", "")
	resp := f.register(t, "a@x.com", t1.ID, "")

	wrongView, wrongOK := f.auth.ValidateCredentials(ctx, "a@x.com", "WrongPass999")
	missingView, missingOK := f.auth.ValidateCredentials(ctx, "nobody@x.com", "SecurePass123")
	require.False(t, wrongOK)
	require.False(t, missingOK)
	require.Equal(t, wrongView, missingView)

	view, ok := f.auth.ValidateCredentials(ctx, "a@x.com", "SecurePass123")
	require.True(t, ok)
	require.Equal(t, resp.User.ID, view.ID)
	requireNoSecretJSON(t, view)
}

func TestAuthenticateLiveness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.company(t, "Tenant One", "")
	resp := f.register(t, "a@x.com", t1.ID, "")

	principal := f.principal(t, resp.AccessToken)
	require.Equal(t, resp.User.ID, principal.UserID)
	require.Equal(t, t1.ID, principal.Company.ID)

	_, err := f.users.Remove(ctx, resp.User.ID)
	require.NoError(t, err)

	_, err = f.auth.Authenticate(ctx, resp.AccessToken)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticateRejectsInactiveCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.company(t, "Tenant One", "")
	resp := f.register(t, "a@x.com", t1.ID, "")

	_, err := f.companies.Remove(ctx, t1.ID)
	require.NoError(t, err)

	_, err = f.auth.Authenticate(ctx, resp.AccessToken)
	require.ErrorIs(t, err, domain.Unauthorized(domain.CodeCompanyInactive, ""))
}

func TestAuthenticateTokenFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.company(t, "Tenant One", "")
	resp := f.register(t, "a@x.com", t1.ID, "")

	_, err := f.auth.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, domain.Unauthorized(domain.CodeInvalidToken, ""))

	f.clock.now = f.clock.now.Add(7*24*time.Hour + time.Second)
	_, err = f.auth.Authenticate(ctx, resp.AccessToken)
	require.ErrorIs(t, err, domain.Unauthorized(domain.CodeInvalidToken, ""))
	de, ok := domain.AsError(err)
	require.True(t, ok)
	require.Equal(t, "Token expired", de.Message)
}

func TestAuthenticateUsesCurrentRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.company(t, "Tenant One", "")
	resp := f.register(t, "a@x.com", t1.ID, domain.RoleAdmin)

	viewer := domain.RoleViewer
	_, err := f.users.Update(ctx, resp.User.ID, service.UpdateUserInput{Role: &viewer})
	require.NoError(t, err)

	principal := f.principal(t, resp.AccessToken)
	require.Equal(t, domain.RoleViewer, principal.Role)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	t1 := f.company(t, "Tenant One", "")
	resp := f.register(t, "a@x.com", t1.ID, "")

	view, err := f.auth.Profile(context.Background(), f.principal(t, resp.AccessToken))
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, view.ID)
	requireNoSecretJSON(t, view)

	_, err = f.auth.Profile(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	company := f.company(t, "Tenant One", "")
	auth := service.NewAuthService(staleUsers{f.store.Users()}, f.resolver, password.NewHasher(bcrypt.MinCost), f.tokens, zap.NewNop())

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = auth.Register(context.Background(), service.RegisterInput{
				Email:     "dup@x.com",
				Password:  "SecurePass123",
				FirstName: "Ana",
				LastName:  "Lopez",
				CompanyID: company.ID,
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, domain.Conflict(domain.CodeEmailExists, ""))
		require.ErrorIs(t, err, repository.ErrUniqueViolation)
	}
	require.Equal(t, 1, succeeded)

	users, err := f.store.Users().List(context.Background(), domain.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func legacyArgon2Hash(plaintext string) string {
	salt := []byte("0123456789abcdef")
	sum := argon2.IDKey([]byte(plaintext), salt, 1, 8*1024, 1, 32)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 8*1024, 1, 1,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	)
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	company := f.company(t, "Tenant One", "")
	legacy := f.store.PutUser(domain.User{
		Email:        "old@x.com",
		PasswordHash: legacyArgon2Hash("SecurePass123"),
		FirstName:    "Old",
		LastName:     "Account",
		Role:         domain.RoleAgent,
		CompanyID:    company.ID,
		IsActive:     true,
	})

	_, err := f.auth.Login(ctx, "old@x.com", "SecurePass123")
	require.NoError(t, err)
	require.Equal(t, 1, f.hasher.hashes)

	stored, ok := f.store.RawUser(legacy.ID)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(stored.PasswordHash, "$2a$"))
	require.False(t, f.hasher.NeedsRehash(stored.PasswordHash))

	_, err = f.auth.Login(ctx, "old@x.com", "SecurePass123")
	require.NoError(t, err)
	require.Equal(t, 1, f.hasher.hashes)
}

func TestLoginKeepsHashOnFailedVerify(t *testing.T) {
	f := newFixture(t)
	company := f.company(t, "Tenant One", "")
	hash := legacyArgon2Hash("SecurePass123")
	legacy := f.store.PutUser(domain.User{
		Email: "old@x.com", PasswordHash: hash, Role: domain.RoleAgent, CompanyID: company.ID, IsActive: true,
	})

	_, err := f.auth.Login(context.Background(), "old@x.com", "WrongPass123")
	require.ErrorIs(t, err, domain.Unauthorized(domain.CodeInvalidCredentials, ""))

	stored, _ := f.store.RawUser(legacy.ID)
	require.Equal(t, hash, stored.PasswordHash)
	require.Zero(t, f.hasher.hashes)
}

func TestAuthResponseCarriesExpiry(t *testing.T) {
	f := newFixture(t)
	company := f.company(t, "Tenant One", "")

	resp := f.register(t, "a@x.com", company.ID, "")
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, int64(f.tokens.TTL().Seconds()), resp.ExpiresIn)
	require.Equal(t, int64(7*24*3600), resp.ExpiresIn)
}
