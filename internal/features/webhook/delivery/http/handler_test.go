package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beamr-points-backend/internal/features/points/models"
	webhookservice "beamr-points-backend/internal/features/webhook/service"
)

const testSecret = "webhook-secret"

type recordingPointsService struct {
	follows []int64
	casts   []castCall
}

type castCall struct {
	fid      int64
	amount   int64
	hash     string
	username string
}

func (s *recordingPointsService) ConfirmWallet(context.Context, int64, models.ConfirmWalletRequest) (*models.ConfirmWalletResponse, error) {
	return nil, nil
}

func (s *recordingPointsService) Profile(context.Context, int64, bool) (*models.ProfileResponse, error) {
	return nil, nil
}

func (s *recordingPointsService) Leaderboard(context.Context) ([]models.LeaderboardEntry, error) {
	return nil, nil
}

func (s *recordingPointsService) GrantFollow(_ context.Context, fid int64) (*models.WebhookGrantResult, error) {
	s.follows = append(s.follows, fid)
	return &models.WebhookGrantResult{FID: fid, TotalPoints: 100, AwardedPoints: 100}, nil
}

func (s *recordingPointsService) GrantCast(_ context.Context, fid, amount int64, hash, username string) (*models.WebhookGrantResult, error) {
	if amount <= 0 {
		amount = 100
	}
	s.casts = append(s.casts, castCall{fid: fid, amount: amount, hash: hash, username: username})
	return &models.WebhookGrantResult{FID: fid, TotalPoints: amount, AwardedPoints: amount}, nil
}

func (s *recordingPointsService) Revoke(context.Context, int64, models.Source) error {
	return nil
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newRouter(svc *recordingPointsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewWebhookHandler(webhookservice.NewVerifier(testSecret), svc, 1149437, "#beamrsup")
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func post(router *gin.Engine, path string, body []byte, signature string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestFollowWebhookGrants(t *testing.T) {
	svc := &recordingPointsService{}
	router := newRouter(svc)

	body := []byte(`{"type":"follow.created","data":{"user":{"fid":100},"target_user":{"fid":1149437}}}`)
	w := post(router, "/api/v1/webhook/follow", body, sign(body))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{100}, svc.follows)
}

func TestFollowWebhookRejectsBadSignature(t *testing.T) {
	svc := &recordingPointsService{}
	router := newRouter(svc)

	body := []byte(`{"type":"follow.created","data":{"user":{"fid":100},"target_user":{"fid":1149437}}}`)
	mutated := bytes.Replace(body, []byte("100"), []byte("101"), 1)

	// Original signature over a mutated body must fail.
	w := post(router, "/api/v1/webhook/follow", mutated, sign(body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(router, "/api/v1/webhook/follow", body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.follows)
}

func TestFollowWebhookIgnoresOtherTargets(t *testing.T) {
	svc := &recordingPointsService{}
	router := newRouter(svc)

	body := []byte(`{"type":"follow.created","data":{"user":{"fid":100},"target_user":{"fid":555}}}`)
	w := post(router, "/api/v1/webhook/follow", body, sign(body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.follows)
}

func TestFollowWebhookRejectsMissingActorFID(t *testing.T) {
	svc := &recordingPointsService{}
	router := newRouter(svc)

	body := []byte(`{"type":"follow.created","data":{"user":{},"target_user":{"fid":1149437}}}`)
	w := post(router, "/api/v1/webhook/follow", body, sign(body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.follows)
}

func TestFollowWebhookRejectsWrongType(t *testing.T) {
	svc := &recordingPointsService{}
	router := newRouter(svc)

	body := []byte(`{"type":"cast.created","data":{"user":{"fid":100},"target_user":{"fid":1149437}}}`)
	w := post(router, "/api/v1/webhook/follow", body, sign(body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCastWebhookGrantsDefaultAmount(t *testing.T) {
	svc := &recordingPointsService{}
	router := newRouter(svc)

	body := []byte(`{"type":"cast.created","data":{"hash":"0xh1","text":"nice work #beamrsup","author":{"fid":1149437,"username":"beamr"},"parent_author":{"fid":200}}}`)
	w := post(router, "/api/v1/webhook/cast-reply", body, sign(body))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.casts, 1)
	assert.Equal(t, castCall{fid: 200, amount: 100, hash: "0xh1", username: "beamr"}, svc.casts[0])
}

func TestCastWebhookAmountOverride(t *testing.T) {
	svc := &recordingPointsService{}
	router := newRouter(svc)

	body := []byte(`{"type":"cast.created","data":{"hash":"0xh2","text":"#BeamrSup 250 congrats","author":{"fid":1149437,"username":"beamr"},"parent_author":{"fid":200}}}`)
	w := post(router, "/api/v1/webhook/cast-reply", body, sign(body))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.casts, 1)
	assert.Equal(t, int64(250), svc.casts[0].amount)
}

func TestCastWebhookIgnoresMissingMarker(t *testing.T) {
	svc := &recordingPointsService{}
	router := newRouter(svc)

	body := []byte(`{"type":"cast.created","data":{"hash":"0xh3","text":"just a reply","author":{"fid":1149437,"username":"beamr"},"parent_author":{"fid":200}}}`)
	w := post(router, "/api/v1/webhook/cast-reply", body, sign(body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.casts)
}

func TestCastWebhookIgnoresOtherAuthors(t *testing.T) {
	svc := &recordingPointsService{}
	router := newRouter(svc)

	body := []byte(`{"type":"cast.created","data":{"hash":"0xh4","text":"#beamrsup","author":{"fid":42,"username":"mallory"},"parent_author":{"fid":200}}}`)
	w := post(router, "/api/v1/webhook/cast-reply", body, sign(body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.casts)
}
