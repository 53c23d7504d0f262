package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"beamr-points-backend/internal/features/auth/models"
)

// QuickAuthVerifier verifies a Farcaster Quick Auth token and returns the
// identity it attests.
type QuickAuthVerifier interface {
	VerifyToken(ctx context.Context, token, domain string) (*models.VerifiedIdentity, error)
}

type httpVerifier struct {
	client    *http.Client
	verifyURL string
}

// NewHTTPVerifier verifies tokens against a Quick Auth verification endpoint.
func NewHTTPVerifier(verifyURL string, timeout time.Duration) QuickAuthVerifier {
	return &httpVerifier{
		client:    &http.Client{Timeout: timeout},
		verifyURL: verifyURL,
	}
}

func (v *httpVerifier) VerifyToken(ctx context.Context, token, domain string) (*models.VerifiedIdentity, error) {
	payload, err := json.Marshal(map[string]string{"token": token, "domain": domain})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quick auth verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quick auth verify returned status %d", resp.StatusCode)
	}

	var body struct {
		Sub     json.Number `json:"sub"`
		FID     int64       `json:"fid"`
		Address string      `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	fid := body.FID
	if fid == 0 && body.Sub != "" {
		fid, _ = strconv.ParseInt(body.Sub.String(), 10, 64)
	}
	if fid == 0 {
		return nil, fmt.Errorf("verify response carries no fid")
	}

	return &models.VerifiedIdentity{FID: fid, WalletAddress: body.Address}, nil
}
