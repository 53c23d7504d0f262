package models

import (
	"fmt"
	"time"
)

// Source identifies the qualifying action behind a point grant.
type Source string

const (
	SourceWalletConfirmation Source = "wallet_confirmation"
	SourceFollow             Source = "follow"
	SourceChannelJoin        Source = "channel_join"
	SourceAppAdd             Source = "app_add"
	SourceCast               Source = "cast"
	SourceReferral           Source = "referral"
)

// SingleUse reports whether at most one grant per user may exist for the
// source. Cast and referral grants are repeatable; their callers supply a
// distinct justification per grant.
func (s Source) SingleUse() bool {
	switch s {
	case SourceWalletConfirmation, SourceFollow, SourceChannelJoin, SourceAppAdd:
		return true
	}
	return false
}

// ParseSource validates a source tag from external input.
func ParseSource(raw string) (Source, error) {
	switch Source(raw) {
	case SourceWalletConfirmation, SourceFollow, SourceChannelJoin, SourceAppAdd, SourceCast, SourceReferral:
		return Source(raw), nil
	}
	return "", fmt.Errorf("unknown point source: %q", raw)
}

// User is a platform user. Created lazily on the first qualifying event.
type User struct {
	ID            string    `json:"id"`
	FID           int64     `json:"fid"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	ReferrerFID   int64     `json:"referrer_fid,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GrantMetadata is human-readable provenance attached to a grant.
type GrantMetadata struct {
	Description     string `json:"description,omitempty"`
	CastHash        string `json:"cast_hash,omitempty"`
	AuthorUsername  string `json:"author_username,omitempty"`
	ReferredFID     int64  `json:"referred_fid,omitempty"`
	ExtractedPoints int64  `json:"extracted_points,omitempty"`
}

// PointGrant is one immutable ledger entry. Grants are never updated; the
// only mutation is the administrative revoke path.
type PointGrant struct {
	ID        string        `json:"id"`
	UserID    string        `json:"-"`
	FID       int64         `json:"fid"`
	Source    Source        `json:"source"`
	Amount    int64         `json:"amount"`
	Metadata  GrantMetadata `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

// LeaderboardRow is one aggregate row from the ledger.
type LeaderboardRow struct {
	UserID        string
	FID           int64
	WalletAddress string
	Total         int64
}
