package models

import "beamr-points-backend/internal/platform/neynar"

// SignInRequest is the body of POST /auth/sign-in. Token is a Farcaster
// Quick Auth token issued to the mini-app client.
type SignInRequest struct {
	Token       string `json:"token" binding:"required"`
	FID         int64  `json:"fid" binding:"required"`
	ReferrerFID int64  `json:"referrerFid"`
}

// SignInResponse returns the session token alongside the caller's profile.
// The token is also set as an auth_token cookie.
type SignInResponse struct {
	Token string       `json:"token"`
	User  *neynar.User `json:"user,omitempty"`
}

// VerifiedIdentity is the result of verifying a Quick Auth token upstream.
type VerifiedIdentity struct {
	FID           int64
	WalletAddress string
}
