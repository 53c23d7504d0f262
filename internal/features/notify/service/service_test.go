package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "beamr-points-backend/internal/common/errors"
	"beamr-points-backend/internal/features/notify/models"
)

func notifyReq(url, secret string) models.NotifyRequest {
	return models.NotifyRequest{
		FID:       100,
		SecretKey: secret,
		Notification: models.Notification{
			Title: "You earned points",
			Body:  "150 points for confirming your wallet",
			NotificationDetails: models.NotificationDetails{
				URL:   url,
				Token: "device-token",
			},
		},
	}
}

func TestSendForwardsFramePayload(t *testing.T) {
	var got models.FramePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewNotifyService("notify-secret", "https://beamr.app", 2*time.Second)
	require.NoError(t, svc.Send(context.Background(), notifyReq(srv.URL, "notify-secret")))

	assert.NotEmpty(t, got.NotificationID)
	assert.Equal(t, "You earned points", got.Title)
	assert.Equal(t, "https://beamr.app", got.TargetURL)
	assert.Equal(t, []string{"device-token"}, got.Tokens)
}

func TestSendRejectsWrongSecret(t *testing.T) {
	svc := NewNotifyService("notify-secret", "https://beamr.app", 2*time.Second)

	err := svc.Send(context.Background(), notifyReq("http://unused", "wrong"))
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeUnauthorized, appErr.Code)
}

func TestSendReportsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewNotifyService("notify-secret", "https://beamr.app", 2*time.Second)
	err := svc.Send(context.Background(), notifyReq(srv.URL, "notify-secret"))
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeExternalAPI, appErr.Code)
}
