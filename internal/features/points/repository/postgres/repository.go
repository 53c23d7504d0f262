package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"beamr-points-backend/internal/features/points/models"
	"beamr-points-backend/internal/features/points/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code raised when an insert loses the
// race on the partial unique index over single-use sources.
const uniqueViolation = "23505"

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByFID(ctx context.Context, fid int64) (*models.User, error) {
	const query = `
		SELECT id, fid, COALESCE(wallet_address, ''), COALESCE(referrer_fid, 0), created_at, updated_at
		FROM users
		WHERE fid = $1
	`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, fid).Scan(
		&user.ID, &user.FID, &user.WalletAddress, &user.ReferrerFID,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Upsert creates the user if missing. Wallet and referrer are set-once at the
// storage level: a non-null stored value always wins over the incoming one,
// so a confirmed wallet can never be overwritten here.
func (r *userRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	const query = `
		INSERT INTO users (id, fid, wallet_address, referrer_fid, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, 0), now(), now())
		ON CONFLICT (fid) DO UPDATE SET
			wallet_address = COALESCE(users.wallet_address, EXCLUDED.wallet_address),
			referrer_fid = COALESCE(users.referrer_fid, EXCLUDED.referrer_fid),
			updated_at = now()
		RETURNING id, fid, COALESCE(wallet_address, ''), COALESCE(referrer_fid, 0), created_at, updated_at
	`

	var stored models.User
	err := r.db.QueryRowContext(ctx, query,
		uuid.New().String(), user.FID, user.WalletAddress, user.ReferrerFID).Scan(
		&stored.ID, &stored.FID, &stored.WalletAddress, &stored.ReferrerFID,
		&stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &stored, nil
}

type grantRepository struct {
	db *sql.DB
}

func NewGrantRepository(db *sql.DB) repository.GrantRepository {
	return &grantRepository{db: db}
}

func (r *grantRepository) HasGrant(ctx context.Context, userID string, source models.Source) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM points WHERE user_id = $1 AND source = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, source).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check grant: %w", err)
	}
	return exists, nil
}

func (r *grantRepository) Insert(ctx context.Context, grant *models.PointGrant) (bool, error) {
	if grant.Source.SingleUse() {
		exists, err := r.HasGrant(ctx, grant.UserID, grant.Source)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}

	metadata, err := json.Marshal(grant.Metadata)
	if err != nil {
		return false, fmt.Errorf("failed to encode grant metadata: %w", err)
	}

	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO points (id, user_id, fid, source, amount, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		grant.ID, grant.UserID, grant.FID, grant.Source, grant.Amount, metadata, grant.CreatedAt)
	if err != nil {
		// Losing the insert race on a single-use source means the grant
		// already exists; the caller's intent is fulfilled either way.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert grant: %w", err)
	}

	return true, nil
}

func (r *grantRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.PointGrant, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	const query = `
		SELECT id, user_id, fid, source, amount, COALESCE(metadata, '{}'), created_at
		FROM points
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	var grants []models.PointGrant
	for rows.Next() {
		var grant models.PointGrant
		var metadata []byte
		if err := rows.Scan(&grant.ID, &grant.UserID, &grant.FID, &grant.Source,
			&grant.Amount, &metadata, &grant.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		if err := json.Unmarshal(metadata, &grant.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode grant metadata: %w", err)
		}
		grants = append(grants, grant)
	}

	return grants, rows.Err()
}

// TotalForUser recomputes the total from the ledger on every call so that a
// revoked grant is reflected immediately.
func (r *grantRepository) TotalForUser(ctx context.Context, userID string) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM points WHERE user_id = $1`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum grants: %w", err)
	}
	return total, nil
}

func (r *grantRepository) RevokeByFID(ctx context.Context, fid int64, source models.Source) error {
	const query = `
		DELETE FROM points
		USING users
		WHERE points.user_id = users.id AND users.fid = $1 AND points.source = $2
	`

	result, err := r.db.ExecContext(ctx, query, fid, source)
	if err != nil {
		return fmt.Errorf("failed to revoke grant: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrGrantNotFound
	}

	return nil
}

func (r *grantRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	const query = `
		SELECT u.id, u.fid, u.wallet_address, COALESCE(SUM(p.amount), 0) AS total
		FROM users u
		JOIN points p ON p.user_id = u.id
		WHERE u.wallet_address IS NOT NULL
		GROUP BY u.id, u.fid, u.wallet_address
		ORDER BY total DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardRow
	for rows.Next() {
		var row models.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.FID, &row.WalletAddress, &row.Total); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, row)
	}

	return entries, rows.Err()
}
