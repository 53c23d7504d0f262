package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"beamr-points-backend/internal/common/errors"
	"beamr-points-backend/internal/common/logger"
	"beamr-points-backend/internal/features/notify/models"
)

type NotifyService interface {
	// Send forwards a frame notification to the client-supplied endpoint.
	Send(ctx context.Context, req models.NotifyRequest) error
}

type notifyService struct {
	client    *http.Client
	secret    string
	targetURL string
}

// NewNotifyService sends notifications. targetURL is the mini-app URL opened
// when the user taps the notification.
func NewNotifyService(secret, targetURL string, timeout time.Duration) NotifyService {
	return &notifyService{
		client:    &http.Client{Timeout: timeout},
		secret:    secret,
		targetURL: targetURL,
	}
}

func (s *notifyService) Send(ctx context.Context, req models.NotifyRequest) error {
	if req.SecretKey != s.secret {
		return errors.NewUnauthorizedError("invalid notification secret")
	}

	payload := models.FramePayload{
		NotificationID: uuid.New().String(),
		Title:          req.Notification.Title,
		Body:           req.Notification.Body,
		TargetURL:      s.targetURL,
		Tokens:         []string{req.Notification.NotificationDetails.Token},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode notification")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		req.Notification.NotificationDetails.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build notification request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return errors.NewExternalAPIError("notifications", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewExternalAPIError("notifications",
			fmt.Errorf("notification endpoint returned status %d", resp.StatusCode))
	}

	logger.Info().Int64("fid", req.FID).Str("title", req.Notification.Title).Msg("Notification sent")
	return nil
}
