package http

import (
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"beamr-points-backend/internal/common/errors"
	"beamr-points-backend/internal/common/logger"
	"beamr-points-backend/internal/common/middleware"
	"beamr-points-backend/internal/common/validation"
	"beamr-points-backend/internal/features/points/service"
	webhookmodels "beamr-points-backend/internal/features/webhook/models"
	webhookservice "beamr-points-backend/internal/features/webhook/service"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw request body.
const SignatureHeader = "X-Signature"

type WebhookHandler struct {
	verifier   *webhookservice.Verifier
	points     service.PointsService
	accountFID int64
	markerRe   *regexp.Regexp
}

// NewWebhookHandler builds the webhook surface. The marker regexp matches the
// cast marker case-insensitively with an optional numeric amount override
// after it, e.g. "#beamrsup 250".
func NewWebhookHandler(verifier *webhookservice.Verifier, points service.PointsService, accountFID int64, castMarker string) *WebhookHandler {
	markerRe := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(castMarker) + `\s*(\d+)?`)
	return &WebhookHandler{
		verifier:   verifier,
		points:     points,
		accountFID: accountFID,
		markerRe:   markerRe,
	}
}

func (h *WebhookHandler) RegisterRoutes(router *gin.RouterGroup) {
	webhooks := router.Group("/webhook")
	{
		webhooks.POST("/follow", h.follow)
		webhooks.POST("/cast-reply", h.castReply)
	}
}

// readVerified reads the exact raw body and authenticates it before any
// parsing happens.
func (h *WebhookHandler) readVerified(c *gin.Context) ([]byte, bool) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		middleware.RespondError(c, errors.NewValidationError("body", "unreadable request body"))
		return nil, false
	}

	if err := h.verifier.Verify(rawBody, c.GetHeader(SignatureHeader)); err != nil {
		middleware.RespondError(c, err)
		return nil, false
	}

	return rawBody, true
}

// @Summary Ingest follow webhook
// @Description Verified follow.created events targeting the designated account grant the single-use follow bonus. Replayed deliveries are acknowledged as successes.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Signature header string true "Hex HMAC-SHA512 of the raw body"
// @Success 200 {object} models.WebhookGrantResult
// @Failure 401 {object} map[string]string "Bad signature"
// @Router /webhook/follow [post]
func (h *WebhookHandler) follow(c *gin.Context) {
	rawBody, ok := h.readVerified(c)
	if !ok {
		return
	}

	var event webhookmodels.FollowEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		middleware.RespondError(c, errors.NewValidationError("body", "malformed event payload"))
		return
	}

	if event.Type != "follow.created" {
		middleware.RespondError(c, errors.NewValidationError("type", "expected follow.created"))
		return
	}
	if err := validation.ValidateFID(event.Data.User.FID); err != nil {
		middleware.RespondError(c, errors.NewValidationError("data.user.fid", err.Error()))
		return
	}
	if event.Data.TargetUser.FID != h.accountFID {
		// A follow of some other account is authentic but irrelevant.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	result, err := h.points.GrantFollow(c.Request.Context(), event.Data.User.FID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Info().
		Int64("fid", result.FID).
		Bool("already_granted", result.AlreadyGranted).
		Msg("Follow webhook processed")
	c.JSON(http.StatusOK, result)
}

// @Summary Ingest cast reply webhook
// @Description Verified cast.created events authored by the designated account and containing the marker grant a repeatable cast bonus to the parent author. A number after the marker overrides the default amount.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Signature header string true "Hex HMAC-SHA512 of the raw body"
// @Success 200 {object} models.WebhookGrantResult
// @Failure 401 {object} map[string]string "Bad signature"
// @Router /webhook/cast-reply [post]
func (h *WebhookHandler) castReply(c *gin.Context) {
	rawBody, ok := h.readVerified(c)
	if !ok {
		return
	}

	var event webhookmodels.CastEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		middleware.RespondError(c, errors.NewValidationError("body", "malformed event payload"))
		return
	}

	if event.Type != "cast.created" {
		middleware.RespondError(c, errors.NewValidationError("type", "expected cast.created"))
		return
	}
	if event.Data.Author.FID != h.accountFID {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if err := validation.ValidateFID(event.Data.ParentAuthor.FID); err != nil {
		middleware.RespondError(c, errors.NewValidationError("data.parent_author.fid", err.Error()))
		return
	}

	match := h.markerRe.FindStringSubmatch(event.Data.Text)
	if match == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	var amount int64
	if match[1] != "" {
		amount, _ = strconv.ParseInt(match[1], 10, 64)
	}

	result, err := h.points.GrantCast(c.Request.Context(),
		event.Data.ParentAuthor.FID, amount, event.Data.Hash, event.Data.Author.Username)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	logger.Info().
		Int64("fid", result.FID).
		Int64("amount", result.AwardedPoints).
		Str("cast_hash", event.Data.Hash).
		Msg("Cast webhook processed")
	c.JSON(http.StatusOK, result)
}
