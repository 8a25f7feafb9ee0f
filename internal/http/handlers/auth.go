package handlers

import (
	"net/http"

	"taskflow/internal/domain"
	"taskflow/internal/service"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "code": ErrCodeInvalidRequest})
		return
	}

	role := domain.Role(req.Role)
	if req.Role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role", "code": ErrCodeInvalidRequest})
		return
	}

	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         role,
		PasswordHash: hash,
	}

	ctx := c.Request.Context()
	if err := h.Users.Create(ctx, user); err != nil {
		writeError(c, err)
		return
	}

	token, err := service.GenerateJWT(user.ID, user.Role)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   token,
		"user":    userPayload(user),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request", "code": ErrCodeInvalidRequest})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil || !h.Hasher.Verify(user.PasswordHash, req.Password) {
		// same answer whether the email or the password was wrong
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials", "code": ErrCodeInvalidCredentials})
		return
	}

	token, err := service.GenerateJWT(user.ID, user.Role)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    userPayload(user),
	})
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.currentUser(c.Request.Context(), c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": ErrCodeUnauthorized})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": userPayload(user)})
}

// ListUsers returns every user's public fields, for assignment pickers.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userPayload(u))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

func userPayload(u *domain.User) gin.H {
	return gin.H{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}
