package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"beamr-points-backend/internal/common/errors"
	"beamr-points-backend/internal/common/middleware"
	"beamr-points-backend/internal/common/validation"
	"beamr-points-backend/internal/features/points/models"
	"beamr-points-backend/internal/features/points/service"
	"beamr-points-backend/internal/platform/neynar"
)

// ProfileFetcher resolves a Farcaster profile for an authenticated caller.
type ProfileFetcher interface {
	FetchUser(ctx context.Context, fid int64) (*neynar.User, error)
}

type PointsHandler struct {
	points   service.PointsService
	profiles ProfileFetcher
}

func NewPointsHandler(points service.PointsService, profiles ProfileFetcher) *PointsHandler {
	return &PointsHandler{points: points, profiles: profiles}
}

// RegisterRoutes mounts the session-guarded user surface. The router group is
// expected to already carry SessionAuth.
func (h *PointsHandler) RegisterRoutes(router *gin.RouterGroup, adminFIDs []int64) {
	users := router.Group("/users")
	{
		users.POST("/confirm-wallet", h.confirmWallet)
		users.GET("/profile", h.profile)
		users.GET("/me", h.me)
	}

	router.GET("/leaderboard", h.leaderboard)

	admin := router.Group("/admin")
	admin.Use(middleware.RequireAdmin(adminFIDs))
	{
		admin.DELETE("/points/:fid/:source", h.revoke)
	}
}

// @Summary Confirm payout wallet
// @Description Bind the caller's wallet address (one-time), grant the confirmation bonus and reconcile social conditions.
// @Tags users
// @Accept json
// @Produce json
// @Param body body models.ConfirmWalletRequest true "Wallet address and optional referrer"
// @Success 200 {object} models.ConfirmWalletResponse
// @Failure 400 {object} map[string]string "Invalid wallet address"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Wallet already confirmed or self-referral"
// @Router /users/confirm-wallet [post]
func (h *PointsHandler) confirmWallet(c *gin.Context) {
	fid, ok := middleware.FIDFromContext(c)
	if !ok {
		middleware.RespondError(c, errors.NewUnauthorizedError("session required"))
		return
	}

	var req models.ConfirmWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	resp, err := h.points.ConfirmWallet(c.Request.Context(), fid, req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get caller's points profile
// @Description Returns totals, grant history and social status. Reconciliation runs as a side effect, so the read may credit newly satisfied conditions.
// @Tags users
// @Produce json
// @Param installClaimed query bool false "Client asserts the miniapp is installed"
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/profile [get]
func (h *PointsHandler) profile(c *gin.Context) {
	fid, ok := middleware.FIDFromContext(c)
	if !ok {
		middleware.RespondError(c, errors.NewUnauthorizedError("session required"))
		return
	}

	installClaimed, _ := strconv.ParseBool(c.Query("installClaimed"))

	resp, err := h.points.Profile(c.Request.Context(), fid, installClaimed)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get caller's Farcaster profile
// @Tags users
// @Produce json
// @Success 200 {object} neynar.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 502 {object} map[string]string "Upstream failure"
// @Router /users/me [get]
func (h *PointsHandler) me(c *gin.Context) {
	fid, ok := middleware.FIDFromContext(c)
	if !ok {
		middleware.RespondError(c, errors.NewUnauthorizedError("session required"))
		return
	}

	user, err := h.profiles.FetchUser(c.Request.Context(), fid)
	if err != nil {
		middleware.RespondError(c, errors.NewExternalAPIError("neynar", err))
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Points leaderboard
// @Description Top wallet-confirmed users by total points, enriched with Farcaster identity.
// @Tags leaderboard
// @Produce json
// @Success 200 {array} models.LeaderboardEntry
// @Router /leaderboard [get]
func (h *PointsHandler) leaderboard(c *gin.Context) {
	entries, err := h.points.Leaderboard(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// @Summary Revoke a grant
// @Description Removes erroneously issued grants for a user and source. Admin only.
// @Tags admin
// @Produce json
// @Param fid path int true "User fid"
// @Param source path string true "Grant source"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string "Not an admin"
// @Failure 404 {object} map[string]string "Grant not found"
// @Router /admin/points/{fid}/{source} [delete]
func (h *PointsHandler) revoke(c *gin.Context) {
	fid, err := strconv.ParseInt(c.Param("fid"), 10, 64)
	if err != nil {
		middleware.RespondError(c, errors.NewValidationError("fid", "must be a number"))
		return
	}
	if err := validation.ValidateFID(fid); err != nil {
		middleware.RespondError(c, errors.NewValidationError("fid", err.Error()))
		return
	}

	source, err := models.ParseSource(c.Param("source"))
	if err != nil {
		middleware.RespondError(c, errors.NewValidationError("source", err.Error()))
		return
	}

	if err := h.points.Revoke(c.Request.Context(), fid, source); err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}
