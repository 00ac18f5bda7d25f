package service

import (
	"time"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
)

// AuthResponse is returned by registration and login.
type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	User        UserView `json:"user"`
}

// UserView is the public representation of a user. It has no password field.
type UserView struct {
	ID        string                 `json:"id"`
	Email     string                 `json:"email"`
	FirstName string                 `json:"firstName"`
	LastName  string                 `json:"lastName"`
	Role      domain.Role            `json:"role"`
	CompanyID string                 `json:"companyId"`
	IsActive  bool                   `json:"isActive"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
	Company   *domain.CompanySummary `json:"company,omitempty"`
}

// NewUserView projects a stored user onto its public shape. Every response
// that carries a user goes through here.
func NewUserView(user domain.User) UserView {
	view := UserView{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if user.Company != nil {
		summary := user.Company.Summary()
		view.Company = &summary
	}
	return view
}

// NewUserViews projects a slice of users.
func NewUserViews(users []domain.User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, NewUserView(user))
	}
	return views
}

// CompanyView is the public representation of a company.
type CompanyView struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	IsActive  bool         `json:"isActive"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Count     CompanyCount `json:"_count"`
}

// CompanyCount holds aggregate counters for a company.
type CompanyCount struct {
	Users int `json:"users"`
}

func NewCompanyView(company domain.Company) CompanyView {
	return CompanyView{
		ID:        company.ID,
		Name:      company.Name,
		Slug:      company.Slug,
		IsActive:  company.IsActive,
		CreatedAt: company.CreatedAt,
		UpdatedAt: company.UpdatedAt,
		Count:     CompanyCount{Users: company.UserCount},
	}
}

func NewCompanyViews(companies []domain.Company) []CompanyView {
	views := make([]CompanyView, 0, len(companies))
	for _, company := range companies {
		views = append(views, NewCompanyView(company))
	}
	return views
}
