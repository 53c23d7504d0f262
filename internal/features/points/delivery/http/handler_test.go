package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beamr-points-backend/internal/common/errors"
	"beamr-points-backend/internal/common/middleware"
	"beamr-points-backend/internal/features/points/models"
	"beamr-points-backend/internal/platform/neynar"
)

type stubPointsService struct {
	confirmResp *models.ConfirmWalletResponse
	confirmErr  error
	profileResp *models.ProfileResponse
	profileErr  error
	entries     []models.LeaderboardEntry
	revoked     []string
	revokeErr   error

	lastFID            int64
	lastInstallClaimed bool
}

func (s *stubPointsService) ConfirmWallet(_ context.Context, fid int64, _ models.ConfirmWalletRequest) (*models.ConfirmWalletResponse, error) {
	s.lastFID = fid
	return s.confirmResp, s.confirmErr
}

func (s *stubPointsService) Profile(_ context.Context, fid int64, installClaimed bool) (*models.ProfileResponse, error) {
	s.lastFID = fid
	s.lastInstallClaimed = installClaimed
	return s.profileResp, s.profileErr
}

func (s *stubPointsService) Leaderboard(context.Context) ([]models.LeaderboardEntry, error) {
	return s.entries, nil
}

func (s *stubPointsService) GrantFollow(context.Context, int64) (*models.WebhookGrantResult, error) {
	return nil, nil
}

func (s *stubPointsService) GrantCast(context.Context, int64, int64, string, string) (*models.WebhookGrantResult, error) {
	return nil, nil
}

func (s *stubPointsService) Revoke(_ context.Context, fid int64, source models.Source) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revoked = append(s.revoked, fmt.Sprintf("%d/%s", fid, source))
	return nil
}

type stubProfiles struct {
	user *neynar.User
	err  error
}

func (s stubProfiles) FetchUser(context.Context, int64) (*neynar.User, error) {
	return s.user, s.err
}

func sessionStub(fid int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if fid != 0 {
			c.Set(middleware.ContextFID, fid)
			c.Set(middleware.ContextMiniAppValidated, true)
		}
		c.Next()
	}
}

func newRouter(svc *stubPointsService, profiles ProfileFetcher, fid int64, adminFIDs []int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/api/v1")
	group.Use(sessionStub(fid))
	NewPointsHandler(svc, profiles).RegisterRoutes(group, adminFIDs)
	return router
}

func TestConfirmWalletHandler(t *testing.T) {
	svc := &stubPointsService{confirmResp: &models.ConfirmWalletResponse{FID: 100, TotalPoints: 150, WalletConfirmed: true}}
	router := newRouter(svc, stubProfiles{}, 100, nil)

	body, _ := json.Marshal(models.ConfirmWalletRequest{WalletAddress: "0xabc"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/confirm-wallet", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(100), svc.lastFID)

	var resp models.ConfirmWalletResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.WalletConfirmed)
}

func TestConfirmWalletHandlerRequiresSession(t *testing.T) {
	router := newRouter(&stubPointsService{}, stubProfiles{}, 0, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/confirm-wallet", bytes.NewReader([]byte(`{"walletAddress":"0xabc"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConfirmWalletHandlerConflict(t *testing.T) {
	svc := &stubPointsService{confirmErr: errors.NewConflictError("wallet", "already confirmed")}
	router := newRouter(svc, stubProfiles{}, 100, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/confirm-wallet", bytes.NewReader([]byte(`{"walletAddress":"0xabc"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProfileHandlerPassesInstallClaimed(t *testing.T) {
	svc := &stubPointsService{profileResp: &models.ProfileResponse{FID: 100, TotalPoints: 250}}
	router := newRouter(svc, stubProfiles{}, 100, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/profile?installClaimed=true", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.lastInstallClaimed)
}

func TestProfileHandlerNotFound(t *testing.T) {
	svc := &stubPointsService{profileErr: errors.NewNotFoundError("user", 100)}
	router := newRouter(svc, stubProfiles{}, 100, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMeHandler(t *testing.T) {
	profiles := stubProfiles{user: &neynar.User{FID: 100, Username: "alice"}}
	router := newRouter(&stubPointsService{}, profiles, 100, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var user neynar.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
}

func TestLeaderboardHandler(t *testing.T) {
	svc := &stubPointsService{entries: []models.LeaderboardEntry{{FID: 100, Username: "alice", Points: 450, Rank: 1}}}
	router := newRouter(svc, stubProfiles{}, 100, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Leaderboard, 1)
	assert.Equal(t, 1, resp.Leaderboard[0].Rank)
}

func TestRevokeHandlerRequiresAdmin(t *testing.T) {
	svc := &stubPointsService{}
	router := newRouter(svc, stubProfiles{}, 100, []int64{999})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/points/100/follow", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, svc.revoked)
}

func TestRevokeHandler(t *testing.T) {
	svc := &stubPointsService{}
	router := newRouter(svc, stubProfiles{}, 999, []int64{999})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/points/100/follow", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"100/follow"}, svc.revoked)
}

func TestRevokeHandlerRejectsNonPositiveFID(t *testing.T) {
	svc := &stubPointsService{}
	router := newRouter(svc, stubProfiles{}, 999, []int64{999})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/points/0/follow", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.revoked)
}

func TestRevokeHandlerRejectsUnknownSource(t *testing.T) {
	svc := &stubPointsService{}
	router := newRouter(svc, stubProfiles{}, 999, []int64{999})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/points/100/bogus", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
