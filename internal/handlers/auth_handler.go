package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wms-service/internal/middleware"
	"wms-service/internal/models"
	"wms-service/internal/services"
)

// AuthHandler exposes login, logout and operator administration.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login authenticates an operator and issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LoginResponse{
		Success: true,
		Token:   token,
		User:    user,
	})
}

// Logout invalidates the session behind the bearer token.
func (h *AuthHandler) Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "AUTH_REQUIRED", Message: "Bearer token is required"},
		})
		return
	}
	if err := h.auth.Logout(c.Request.Context(), parts[1]); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: stringPtr("Logged out")})
}

// Me returns the authenticated user with the flattened permission keys of
// their role.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "AUTH_REQUIRED", Message: "No authenticated session"},
		})
		return
	}

	permissions := make([]string, 0)
	roles := make([]string, 0)
	if user.Role != nil {
		roles = append(roles, user.Role.Name)
		for _, p := range user.Role.Permissions {
			permissions = append(permissions, p.Key())
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"user":        user,
		"permissions": permissions,
		"roles":       roles,
	})
}

// ========== Users ==========

func (h *AuthHandler) CreateUser(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.auth.CreateUser(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.UserResponse{Success: true, Data: user})
}

func (h *AuthHandler) GetUser(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.auth.GetUser(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{Success: true, Data: user})
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	limit, offset := pagination(c)

	users, total, err := h.auth.ListUsers(c.Request.Context(), tenantID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UserListResponse{
		Success:    true,
		Data:       users,
		Pagination: paginationMeta(limit, offset, total),
	})
}

func (h *AuthHandler) UpdateUser(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.auth.UpdateUser(c.Request.Context(), tenantID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{Success: true, Data: user})
}

// ========== Roles ==========

func (h *AuthHandler) CreateRole(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var req models.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	role, err := h.auth.CreateRole(c.Request.Context(), tenantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.RoleResponse{Success: true, Data: role})
}

func (h *AuthHandler) UpdateRolePermissions(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	role, err := h.auth.UpdateRolePermissions(c.Request.Context(), tenantID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.RoleResponse{Success: true, Data: role})
}

func (h *AuthHandler) ListRoles(c *gin.Context) {
	tenantID := c.GetString("tenant_id")
	roles, err := h.auth.ListRoles(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.RoleListResponse{Success: true, Data: roles})
}

func (h *AuthHandler) ListPermissions(c *gin.Context) {
	permissions, err := h.auth.ListPermissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: permissions})
}
