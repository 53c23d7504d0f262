package models

// ConfirmWalletRequest is the body of POST /users/confirm-wallet.
type ConfirmWalletRequest struct {
	WalletAddress  string `json:"walletAddress" binding:"required"`
	ReferrerFID    int64  `json:"referrerFid"`
	InstallClaimed bool   `json:"installClaimed"`
}

// AwardedPoints reports what a single request granted, so the client can
// render the outcome without a second round trip. Zero means not granted.
type AwardedPoints struct {
	WalletConfirmation int64 `json:"walletConfirmation"`
	Follow             int64 `json:"follow"`
	ChannelJoin        int64 `json:"channelJoin"`
	AppAdd             int64 `json:"appAdd"`
	ReferrerBonus      int64 `json:"referrerBonus"`
	Referral           int64 `json:"referral"`
}

// SocialStatus is the caller's per-condition state derived from the ledger.
type SocialStatus struct {
	Following   bool `json:"following"`
	InChannel   bool `json:"inChannel"`
	AppAdded    bool `json:"appAdded"`
	HasCast     bool `json:"hasCast"`
	HasReferred bool `json:"hasReferred"`
}

type ConfirmWalletResponse struct {
	FID             int64         `json:"fid"`
	WalletAddress   string        `json:"walletAddress"`
	TotalPoints     int64         `json:"totalPoints"`
	ReferrerFID     int64         `json:"referrerFid,omitempty"`
	WalletConfirmed bool          `json:"walletConfirmed"`
	Transactions    []PointGrant  `json:"transactions"`
	AwardedPoints   AwardedPoints `json:"awardedPoints"`
}

type ProfileResponse struct {
	FID             int64        `json:"fid"`
	WalletAddress   string       `json:"walletAddress,omitempty"`
	TotalPoints     int64        `json:"totalPoints"`
	ReferrerFID     int64        `json:"referrerFid,omitempty"`
	WalletConfirmed bool         `json:"walletConfirmed"`
	SocialStatus    SocialStatus `json:"socialStatus"`
	Transactions    []PointGrant `json:"transactions"`
}

type LeaderboardEntry struct {
	FID         int64  `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	PfpURL      string `json:"pfpUrl"`
	Points      int64  `json:"points"`
	Rank        int    `json:"rank"`
}

// WebhookGrantResult is returned to webhook senders after a grant attempt.
// AlreadyGranted marks a replayed delivery that re-confirmed an existing
// grant; it is still a success.
type WebhookGrantResult struct {
	FID            int64 `json:"fid"`
	TotalPoints    int64 `json:"totalPoints"`
	AwardedPoints  int64 `json:"awardedPoints"`
	AlreadyGranted bool  `json:"alreadyGranted"`
}
