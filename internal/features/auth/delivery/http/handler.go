package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"beamr-points-backend/internal/common/errors"
	"beamr-points-backend/internal/common/middleware"
	"beamr-points-backend/internal/features/auth/models"
	"beamr-points-backend/internal/features/auth/service"
)

const authCookieName = "auth_token"

type AuthHandler struct {
	auth      service.AuthService
	domain    string
	cookieTTL int
}

func NewAuthHandler(auth service.AuthService, domain string, cookieTTLSeconds int) *AuthHandler {
	return &AuthHandler{auth: auth, domain: domain, cookieTTL: cookieTTLSeconds}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/sign-in", h.signIn)
	}
}

// @Summary Sign in with a Quick Auth token
// @Description Verifies the Farcaster Quick Auth token and issues a session token, also set as an httpOnly cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.SignInRequest true "Quick Auth token and claimed fid"
// @Success 200 {object} models.SignInResponse
// @Failure 401 {object} map[string]string "Verification failed or fid mismatch"
// @Router /auth/sign-in [post]
func (h *AuthHandler) signIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	resp, err := h.auth.SignIn(c.Request.Context(), req, h.domain)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	// SameSite=None so the cookie survives the mini-app's embedded context.
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(authCookieName, resp.Token, h.cookieTTL, "/", "", true, true)

	c.JSON(http.StatusOK, resp)
}
