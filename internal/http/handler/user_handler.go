package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
	"github.com/IgnacioAroza/reservation-api/internal/http/middleware"
	"github.com/IgnacioAroza/reservation-api/internal/http/response"
	"github.com/IgnacioAroza/reservation-api/internal/service"
)

// UserHandler serves user management endpoints.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type updateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"firstName" binding:"omitempty,min=2,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,min=2,max=50"`
	Role      *string `json:"role" binding:"omitempty,oneof=ADMIN AGENT VIEWER"`
	IsActive  *bool   `json:"isActive"`
}

func (r updateUserRequest) input() service.UpdateUserInput {
	input := service.UpdateUserInput{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		IsActive:  r.IsActive,
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		input.Role = &role
	}
	return input
}

type updatePasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "User created successfully", user)
}

func (h *UserHandler) List(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	users, err := h.users.List(c.Request.Context(), principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", users)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)

	user, err := h.users.Get(c.Request.Context(), principal, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, req.input())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "User updated successfully", user)
}

// UpdatePassword lets users change their own password; admins may change any.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req updatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	principal, _ := middleware.GetPrincipal(c)

	if err := h.users.UpdatePassword(c.Request.Context(), principal, id, req.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Password updated successfully", nil)
}

func (h *UserHandler) Remove(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Remove(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "User deleted successfully", user)
}
