package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IgnacioAroza/reservation-api/internal/authz"
	"github.com/IgnacioAroza/reservation-api/internal/http/middleware"
	"github.com/IgnacioAroza/reservation-api/internal/http/response"
	"github.com/IgnacioAroza/reservation-api/internal/service"
)

// CompanyHandler serves tenant management endpoints.
type CompanyHandler struct {
	companies *service.CompanyService
}

func NewCompanyHandler(companies *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

type createCompanyRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
	Slug string `json:"slug" binding:"omitempty,slug"`
}

type updateCompanyRequest struct {
	Name *string `json:"name" binding:"omitempty,min=2,max=100"`
	Slug *string `json:"slug" binding:"omitempty,slug"`
}

func (h *CompanyHandler) Create(c *gin.Context) {
	var req createCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.companies.Create(c.Request.Context(), service.CreateCompanyInput{Name: req.Name, Slug: req.Slug})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "Company created successfully", service.NewCompanyView(company))
}

func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.companies.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", service.NewCompanyViews(companies))
}

// Get returns a company. Callers outside the company need the cross-tenant role.
func (h *CompanyHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)
	if err := authz.Authorize(principal, nil, id); err != nil {
		response.Error(c, err)
		return
	}

	company, err := h.companies.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", service.NewCompanyView(company))
}

// GetBySlug answers 200 with null data when no active company uses the slug.
func (h *CompanyHandler) GetBySlug(c *gin.Context) {
	company, found, err := h.companies.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !found {
		response.OK(c, http.StatusOK, "Company not found", nil)
		return
	}

	principal, _ := middleware.GetPrincipal(c)
	if err := authz.Authorize(principal, nil, company.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", service.NewCompanyView(company))
}

func (h *CompanyHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.companies.Update(c.Request.Context(), id, service.UpdateCompanyInput{Name: req.Name, Slug: req.Slug})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Company updated successfully", service.NewCompanyView(company))
}

func (h *CompanyHandler) Remove(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	company, err := h.companies.Remove(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Company deleted successfully", service.NewCompanyView(company))
}
