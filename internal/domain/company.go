package domain

import "time"

// Company represents a tenant that owns users and resources.
type Company struct {
	ID        string
	Name      string
	Slug      string
	IsActive  bool
	UserCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompanySummary is the reduced company shape embedded in user payloads.
type CompanySummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Summary returns the embedded representation of the company.
func (c Company) Summary() CompanySummary {
	return CompanySummary{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

// CompanyPatch carries the mutable company fields. Nil means unchanged.
type CompanyPatch struct {
	Name *string
	Slug *string
}
