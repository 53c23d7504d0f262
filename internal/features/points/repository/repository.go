package repository

import (
	"context"
	"errors"

	"beamr-points-backend/internal/features/points/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrGrantNotFound = errors.New("grant not found")
)

// UserRepository persists platform users keyed by fid.
type UserRepository interface {
	// GetByFID returns the user for a fid or ErrUserNotFound.
	GetByFID(ctx context.Context, fid int64) (*models.User, error)
	// Upsert creates the user if absent. Wallet address and referrer are
	// set-once: existing non-null values win over the incoming ones.
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
}

// GrantRepository is the append-only reward ledger.
type GrantRepository interface {
	// HasGrant reports whether any grant exists for (user, source).
	HasGrant(ctx context.Context, userID string, source models.Source) (bool, error)
	// Insert appends a grant. For single-use sources a duplicate insert is
	// absorbed and reported as created=false; the storage-level unique
	// index is the correctness mechanism, the pre-check only saves a
	// round trip.
	Insert(ctx context.Context, grant *models.PointGrant) (created bool, err error)
	// ListByUser returns grants newest first, bounded by limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]models.PointGrant, error)
	// TotalForUser is a live aggregate over the user's grants.
	TotalForUser(ctx context.Context, userID string) (int64, error)
	// RevokeByFID deletes grants for (fid, source); administrative only.
	RevokeByFID(ctx context.Context, fid int64, source models.Source) error
	// Leaderboard returns per-user totals for wallet-confirmed users,
	// descending.
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardRow, error)
}
