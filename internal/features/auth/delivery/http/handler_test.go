package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beamr-points-backend/internal/common/errors"
	"beamr-points-backend/internal/features/auth/models"
)

type stubAuthService struct {
	resp       *models.SignInResponse
	err        error
	lastDomain string
}

func (s *stubAuthService) SignIn(_ context.Context, _ models.SignInRequest, domain string) (*models.SignInResponse, error) {
	s.lastDomain = domain
	return s.resp, s.err
}

func newRouter(svc *stubAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewAuthHandler(svc, "beamr.app", 86400).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestSignInSetsAuthCookie(t *testing.T) {
	svc := &stubAuthService{resp: &models.SignInResponse{Token: "session-jwt"}}
	router := newRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-in",
		bytes.NewReader([]byte(`{"token":"qa-token","fid":100}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "beamr.app", svc.lastDomain)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "auth_token", cookies[0].Name)
	assert.Equal(t, "session-jwt", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookies[0].SameSite)
	assert.Equal(t, 86400, cookies[0].MaxAge)
}

func TestSignInRejectsMissingFields(t *testing.T) {
	router := newRouter(&stubAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-in",
		bytes.NewReader([]byte(`{"token":"qa-token"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignInPropagatesUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: errors.NewUnauthorizedError("token verification failed")}
	router := newRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-in",
		bytes.NewReader([]byte(`{"token":"bad","fid":100}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}
