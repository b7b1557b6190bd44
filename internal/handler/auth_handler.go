package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizgate/quizgate/internal/middleware"
	"github.com/quizgate/quizgate/internal/model"
	"github.com/quizgate/quizgate/internal/response"
	"github.com/quizgate/quizgate/internal/service"
	"github.com/quizgate/quizgate/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// POST /api/v1/auth/login
// Forwards credentials upstream for the chosen role and returns a portal
// token plus the reconstructed session identity.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Register godoc
// POST /api/v1/auth/register
// Creates an account upstream with the role flags derived from the request.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.authService.Register(c.Request.Context(), req); err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"registered": true})
}

// Logout godoc
// POST /api/v1/auth/logout
// Destroys the persisted session; the token stops working immediately.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrNotAuthenticated)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the session identity reconstructed from the validated token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrNotAuthenticated)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": claims.Session()})
}
