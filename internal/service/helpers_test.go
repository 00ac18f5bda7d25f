package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/IgnacioAroza/reservation-api/internal/adapter/cache"
	"github.com/IgnacioAroza/reservation-api/internal/domain"
	"github.com/IgnacioAroza/reservation-api/internal/jwt"
	"github.com/IgnacioAroza/reservation-api/internal/password"
	"github.com/IgnacioAroza/reservation-api/internal/repository"
	"github.com/IgnacioAroza/reservation-api/internal/repository/memory"
	"github.com/IgnacioAroza/reservation-api/internal/service"
	"github.com/IgnacioAroza/reservation-api/internal/tenant"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

// countingHasher records how often Hash runs.
type countingHasher struct {
	*password.Hasher
	hashes int
}

func (h *countingHasher) Hash(plaintext string) (string, error) {
	h.hashes++
	return h.Hasher.Hash(plaintext)
}

// staleUsers reports every email as free, so only the store's unique
// constraint can reject a duplicate.
type staleUsers struct {
	repository.UserRepository
}

func (staleUsers) GetByEmail(context.Context, string) (domain.User, error) {
	return domain.User{}, pgx.ErrNoRows
}

// staleCompanies reports every slug as free.
type staleCompanies struct {
	repository.CompanyRepository
}

func (staleCompanies) SlugTaken(context.Context, string, string) (bool, error) {
	return false, nil
}

type fixture struct {
	store     *memory.Store
	clock     *clock
	hasher    *countingHasher
	tokens    *jwt.Generator
	resolver  *tenant.Resolver
	auth      *service.AuthService
	users     *service.UserService
	companies *service.CompanyService
	locker    *cache.RedisStore
	redis     *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	c := &clock{now: time.Now().UTC().Truncate(time.Second)}
	key, err := jwt.NewSigningKey("service-test-secret-0123456789abcdef")
	require.NoError(t, err)
	tokens := jwt.NewGenerator(key, 7*24*time.Hour, "reservation-api", c.Now)
	hasher := &countingHasher{Hasher: password.NewHasher(bcrypt.MinCost)}
	resolver := tenant.NewResolver(store.Companies())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	locker := cache.NewRedisStore(client, node)

	logger := zap.NewNop()
	return &fixture{
		store:     store,
		clock:     c,
		hasher:    hasher,
		tokens:    tokens,
		resolver:  resolver,
		auth:      service.NewAuthService(store.Users(), resolver, hasher, tokens, logger),
		users:     service.NewUserService(store.Users(), resolver, hasher, logger),
		companies: service.NewCompanyService(store.Companies(), resolver, locker, 30*time.Second, logger),
		locker:    locker,
		redis:     mr,
	}
}

func (f *fixture) company(t *testing.T, name, slug string) domain.Company {
	t.Helper()
	company, err := f.companies.Create(context.Background(), service.CreateCompanyInput{Name: name, Slug: slug})
	require.NoError(t, err)
	return company
}

func (f *fixture) register(t *testing.T, email, companyID string, role domain.Role) *service.AuthResponse {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), service.RegisterInput{
		Email:     email,
		Password:  "SecurePass123",
		FirstName: "Ana",
		LastName:  "Lopez",
		CompanyID: companyID,
		Role:      role,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) principal(t *testing.T, token string) *domain.Principal {
	t.Helper()
	principal, err := f.auth.Authenticate(context.Background(), token)
	require.NoError(t, err)
	return principal
}
