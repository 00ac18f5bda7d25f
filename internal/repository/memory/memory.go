// Package memory provides in-process implementations of the repository
// interfaces for tests and local experiments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
	"github.com/IgnacioAroza/reservation-api/internal/repository"
)

// Store keeps users and companies in maps guarded by a single mutex.
// Setting Err makes every call fail with it.
type Store struct {
	mu        sync.Mutex
	seq       int
	users     map[string]record[domain.User]
	companies map[string]record[domain.Company]

	Err error
}

type record[T any] struct {
	seq   int
	value T
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:     make(map[string]record[domain.User]),
		companies: make(map[string]record[domain.Company]),
	}
}

// Users returns the store as a UserRepository.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Companies returns the store as a CompanyRepository.
func (s *Store) Companies() repository.CompanyRepository { return companyRepo{s} }

// PutCompany inserts or replaces a company as-is.
func (s *Store) PutCompany(company domain.Company) domain.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	s.seq++
	s.companies[company.ID] = record[domain.Company]{seq: s.seq, value: company}
	return company
}

// PutUser inserts or replaces a user as-is.
func (s *Store) PutUser(user domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	s.seq++
	s.users[user.ID] = record[domain.User]{seq: s.seq, value: user}
	return s.withCompany(user)
}

// RawUser returns the stored user including its password hash.
func (s *Store) RawUser(userID string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	return rec.value, ok
}

func (s *Store) withCompany(user domain.User) domain.User {
	if rec, ok := s.companies[user.CompanyID]; ok {
		company := rec.value
		user.Company = &company
	}
	return user
}

func (s *Store) userCount(companyID string) int {
	n := 0
	for _, rec := range s.users {
		if rec.value.CompanyID == companyID {
			n++
		}
	}
	return n
}

func (s *Store) companyView(company domain.Company) domain.Company {
	company.UserCount = s.userCount(company.ID)
	return company
}

type userRepo struct{ s *Store }

func (r userRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return domain.User{}, r.s.Err
	}
	for _, rec := range r.s.users {
		if rec.value.Email == email {
			return r.s.withCompany(rec.value), nil
		}
	}
	return domain.User{}, fmt.Errorf("get user: %w", pgx.ErrNoRows)
}

func (r userRepo) GetByID(ctx context.Context, userID string) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return domain.User{}, r.s.Err
	}
	rec, ok := r.s.users[userID]
	if !ok {
		return domain.User{}, fmt.Errorf("get user by id: %w", pgx.ErrNoRows)
	}
	return r.s.withCompany(rec.value), nil
}

func (r userRepo) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	recs := make([]record[domain.User], 0, len(r.s.users))
	for _, rec := range r.s.users {
		if !rec.value.IsActive {
			continue
		}
		if filter.CompanyID != "" && rec.value.CompanyID != filter.CompanyID {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	users := make([]domain.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, r.s.withCompany(rec.value))
	}
	return users, nil
}

func (r userRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return domain.User{}, r.s.Err
	}
	for _, rec := range r.s.users {
		if rec.value.Email == user.Email {
			return domain.User{}, fmt.Errorf("create user: %w", repository.ErrUniqueViolation)
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.DefaultRole
	}
	now := time.Now().UTC()
	user.IsActive = true
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.seq++
	r.s.users[user.ID] = record[domain.User]{seq: r.s.seq, value: user}
	return r.s.withCompany(user), nil
}

func (r userRepo) Update(ctx context.Context, userID string, patch domain.UserPatch) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return domain.User{}, r.s.Err
	}
	rec, ok := r.s.users[userID]
	if !ok {
		return domain.User{}, fmt.Errorf("update user: %w", pgx.ErrNoRows)
	}
	user := rec.value
	if patch.Email != nil {
		for id, other := range r.s.users {
			if id != userID && other.value.Email == *patch.Email {
				return domain.User{}, fmt.Errorf("update user: %w", repository.ErrUniqueViolation)
			}
		}
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	user.UpdatedAt = time.Now().UTC()
	rec.value = user
	r.s.users[userID] = rec
	return r.s.withCompany(user), nil
}

func (r userRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	rec, ok := r.s.users[userID]
	if !ok {
		return fmt.Errorf("update password: %w", pgx.ErrNoRows)
	}
	rec.value.PasswordHash = passwordHash
	rec.value.UpdatedAt = time.Now().UTC()
	r.s.users[userID] = rec
	return nil
}

func (r userRepo) Deactivate(ctx context.Context, userID string) (domain.User, error) {
	inactive := false
	return r.Update(ctx, userID, domain.UserPatch{IsActive: &inactive})
}

type companyRepo struct{ s *Store }

func (r companyRepo) GetByID(ctx context.Context, companyID string) (domain.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return domain.Company{}, r.s.Err
	}
	rec, ok := r.s.companies[companyID]
	if !ok {
		return domain.Company{}, fmt.Errorf("get company: %w", pgx.ErrNoRows)
	}
	return r.s.companyView(rec.value), nil
}

func (r companyRepo) GetActiveByID(ctx context.Context, companyID string) (domain.Company, error) {
	company, err := r.GetByID(ctx, companyID)
	if err != nil {
		return domain.Company{}, err
	}
	if !company.IsActive {
		return domain.Company{}, fmt.Errorf("get active company: %w", pgx.ErrNoRows)
	}
	return company, nil
}

func (r companyRepo) GetActiveBySlug(ctx context.Context, slug string) (domain.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return domain.Company{}, r.s.Err
	}
	for _, rec := range r.s.companies {
		if rec.value.IsActive && rec.value.Slug == slug {
			return r.s.companyView(rec.value), nil
		}
	}
	return domain.Company{}, fmt.Errorf("get company by slug: %w", pgx.ErrNoRows)
}

func (r companyRepo) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return false, r.s.Err
	}
	return r.s.slugTaken(slug, excludeID), nil
}

func (s *Store) slugTaken(slug, excludeID string) bool {
	for id, rec := range s.companies {
		if id != excludeID && rec.value.IsActive && rec.value.Slug == slug {
			return true
		}
	}
	return false
}

func (r companyRepo) List(ctx context.Context) ([]domain.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	recs := make([]record[domain.Company], 0, len(r.s.companies))
	for _, rec := range r.s.companies {
		if rec.value.IsActive {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	companies := make([]domain.Company, 0, len(recs))
	for _, rec := range recs {
		companies = append(companies, r.s.companyView(rec.value))
	}
	return companies, nil
}

func (r companyRepo) Create(ctx context.Context, company domain.Company) (domain.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return domain.Company{}, r.s.Err
	}
	if r.s.slugTaken(company.Slug, "") {
		return domain.Company{}, fmt.Errorf("create company: %w", repository.ErrUniqueViolation)
	}
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	company.IsActive = true
	company.CreatedAt, company.UpdatedAt = now, now
	r.s.seq++
	r.s.companies[company.ID] = record[domain.Company]{seq: r.s.seq, value: company}
	return r.s.companyView(company), nil
}

func (r companyRepo) Update(ctx context.Context, companyID string, patch domain.CompanyPatch) (domain.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return domain.Company{}, r.s.Err
	}
	rec, ok := r.s.companies[companyID]
	if !ok {
		return domain.Company{}, fmt.Errorf("update company: %w", pgx.ErrNoRows)
	}
	if patch.Slug != nil && r.s.slugTaken(*patch.Slug, companyID) {
		return domain.Company{}, fmt.Errorf("update company: %w", repository.ErrUniqueViolation)
	}
	if patch.Name != nil {
		rec.value.Name = *patch.Name
	}
	if patch.Slug != nil {
		rec.value.Slug = *patch.Slug
	}
	rec.value.UpdatedAt = time.Now().UTC()
	r.s.companies[companyID] = rec
	return r.s.companyView(rec.value), nil
}

func (r companyRepo) Deactivate(ctx context.Context, companyID string) (domain.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return domain.Company{}, r.s.Err
	}
	rec, ok := r.s.companies[companyID]
	if !ok {
		return domain.Company{}, fmt.Errorf("deactivate company: %w", pgx.ErrNoRows)
	}
	rec.value.IsActive = false
	rec.value.UpdatedAt = time.Now().UTC()
	r.s.companies[companyID] = rec
	return r.s.companyView(rec.value), nil
}
