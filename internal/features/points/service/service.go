package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "beamr-points-backend/internal/common/errors"
	"beamr-points-backend/internal/common/logger"
	"beamr-points-backend/internal/common/validation"
	"beamr-points-backend/internal/features/points/models"
	"beamr-points-backend/internal/features/points/repository"
	"beamr-points-backend/internal/platform/neynar"
)

const (
	leaderboardCacheKey = "beamr:leaderboard:top"
	leaderboardCacheTTL = 60 * time.Second
	leaderboardSize     = 20
)

// Amounts holds the configured point value per source.
type Amounts struct {
	WalletConfirmation int64
	Follow             int64
	ChannelJoin        int64
	AppAdd             int64
	Cast               int64
	ReferralBonus      int64
}

// SocialChecker answers viewer-relative social-state questions, degrading to
// Unknown on upstream failure.
type SocialChecker interface {
	IsFollowing(ctx context.Context, viewerFID, targetFID int64) neynar.Check
	IsInChannel(ctx context.Context, viewerFID int64, channel string) neynar.Check
}

// UserResolver resolves Farcaster identities for wallet addresses.
type UserResolver interface {
	FetchUsersByEthAddress(ctx context.Context, addresses []string) (map[string][]neynar.User, error)
}

// Cache is a JSON cache with TTLs.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type PointsService interface {
	ConfirmWallet(ctx context.Context, fid int64, req models.ConfirmWalletRequest) (*models.ConfirmWalletResponse, error)
	Profile(ctx context.Context, fid int64, installClaimed bool) (*models.ProfileResponse, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
	GrantFollow(ctx context.Context, fid int64) (*models.WebhookGrantResult, error)
	GrantCast(ctx context.Context, fid, amount int64, castHash, authorUsername string) (*models.WebhookGrantResult, error)
	Revoke(ctx context.Context, fid int64, source models.Source) error
}

type pointsService struct {
	users       repository.UserRepository
	grants      repository.GrantRepository
	checker     SocialChecker
	resolver    UserResolver
	cache       Cache
	amounts     Amounts
	accountFID  int64
	channelName string
}

func NewPointsService(
	users repository.UserRepository,
	grants repository.GrantRepository,
	checker SocialChecker,
	resolver UserResolver,
	cache Cache,
	amounts Amounts,
	accountFID int64,
	channelName string,
) PointsService {
	return &pointsService{
		users:       users,
		grants:      grants,
		checker:     checker,
		resolver:    resolver,
		cache:       cache,
		amounts:     amounts,
		accountFID:  accountFID,
		channelName: channelName,
	}
}

// ConfirmWallet binds the wallet to the caller (one-time, immutable), grants
// the confirmation bonus, reconciles the social conditions and pays the
// referrer bonus when a referrer is attached.
func (s *pointsService) ConfirmWallet(ctx context.Context, fid int64, req models.ConfirmWalletRequest) (*models.ConfirmWalletResponse, error) {
	if err := validation.ValidateWalletAddress(req.WalletAddress); err != nil {
		return nil, apperrors.NewValidationError("walletAddress", err.Error())
	}
	if req.ReferrerFID == fid {
		return nil, apperrors.NewConflictError("referrer", "self-referral is not allowed")
	}

	existing, err := s.users.GetByFID(ctx, fid)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	if existing != nil && existing.WalletAddress != "" {
		return nil, apperrors.NewConflictError("wallet", "already confirmed")
	}

	user, err := s.users.Upsert(ctx, &models.User{
		FID:           fid,
		WalletAddress: req.WalletAddress,
		ReferrerFID:   req.ReferrerFID,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("upsert user", err)
	}

	awarded := models.AwardedPoints{}
	walletGranted, err := s.award(ctx, user, models.SourceWalletConfirmation, s.amounts.WalletConfirmation,
		models.GrantMetadata{Description: "Wallet confirmation bonus"})
	if err != nil {
		return nil, err
	}
	if walletGranted {
		awarded.WalletConfirmation = s.amounts.WalletConfirmation
	}

	s.reconcile(ctx, user, req.InstallClaimed, &awarded)

	// Referrer may be freshly supplied or stored by an earlier event; the
	// upserted row carries whichever won. The referral payout is gated on
	// winning the wallet_confirmation insert: under a concurrent double
	// confirmation the unique index picks exactly one winner, so only that
	// request pays the repeatable referral grants.
	if walletGranted && user.ReferrerFID != 0 {
		if bonus := s.awardReferralBonus(ctx, user.ReferrerFID, fid); bonus {
			awarded.ReferrerBonus = s.amounts.ReferralBonus

			// The referred user is credited alongside the referrer.
			if granted, err := s.award(ctx, user, models.SourceReferral, s.amounts.ReferralBonus,
				models.GrantMetadata{
					Description: fmt.Sprintf("Referred by %d", user.ReferrerFID),
					ReferredFID: fid,
				}); err != nil {
				logger.Warn().Err(err).Int64("fid", fid).Msg("Referred-user credit failed")
			} else if granted {
				awarded.Referral = s.amounts.ReferralBonus
			}
		}
	}

	total, err := s.grants.TotalForUser(ctx, user.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("total points", err)
	}
	transactions, err := s.grants.ListByUser(ctx, user.ID, 5)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list grants", err)
	}

	return &models.ConfirmWalletResponse{
		FID:             user.FID,
		WalletAddress:   user.WalletAddress,
		TotalPoints:     total,
		ReferrerFID:     user.ReferrerFID,
		WalletConfirmed: true,
		Transactions:    transactions,
		AwardedPoints:   awarded,
	}, nil
}

// Profile is a side-effecting read on purpose: it re-runs the best-effort
// reconciliation before returning totals, which is how deferred conditions
// eventually get credited.
func (s *pointsService) Profile(ctx context.Context, fid int64, installClaimed bool) (*models.ProfileResponse, error) {
	user, err := s.users.GetByFID(ctx, fid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("user", fid)
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	s.reconcile(ctx, user, installClaimed, nil)

	status := models.SocialStatus{}
	for _, probe := range []struct {
		source models.Source
		flag   *bool
	}{
		{models.SourceFollow, &status.Following},
		{models.SourceChannelJoin, &status.InChannel},
		{models.SourceAppAdd, &status.AppAdded},
		{models.SourceCast, &status.HasCast},
		{models.SourceReferral, &status.HasReferred},
	} {
		has, err := s.grants.HasGrant(ctx, user.ID, probe.source)
		if err != nil {
			return nil, apperrors.NewDatabaseError("check grant", err)
		}
		*probe.flag = has
	}

	total, err := s.grants.TotalForUser(ctx, user.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("total points", err)
	}
	transactions, err := s.grants.ListByUser(ctx, user.ID, 10)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list grants", err)
	}

	return &models.ProfileResponse{
		FID:             user.FID,
		WalletAddress:   user.WalletAddress,
		TotalPoints:     total,
		ReferrerFID:     user.ReferrerFID,
		WalletConfirmed: user.WalletAddress != "",
		SocialStatus:    status,
		Transactions:    transactions,
	}, nil
}

// reconcile runs the follow, channel and app-add checks and grants whatever
// newly holds. Failures are absorbed: a degraded check simply defers the
// grant to a later read.
func (s *pointsService) reconcile(ctx context.Context, user *models.User, installClaimed bool, awarded *models.AwardedPoints) {
	if s.checker.IsFollowing(ctx, user.FID, s.accountFID).Satisfied() {
		if granted, err := s.award(ctx, user, models.SourceFollow, s.amounts.Follow,
			models.GrantMetadata{Description: "Followed Beamr account"}); err != nil {
			logger.Warn().Err(err).Int64("fid", user.FID).Msg("Follow award failed")
		} else if granted && awarded != nil {
			awarded.Follow = s.amounts.Follow
		}
	}

	if s.checker.IsInChannel(ctx, user.FID, s.channelName).Satisfied() {
		if granted, err := s.award(ctx, user, models.SourceChannelJoin, s.amounts.ChannelJoin,
			models.GrantMetadata{Description: "Joined Beamr channel"}); err != nil {
			logger.Warn().Err(err).Int64("fid", user.FID).Msg("Channel join award failed")
		} else if granted && awarded != nil {
			awarded.ChannelJoin = s.amounts.ChannelJoin
		}
	}

	// There is no server-side oracle for app installs; the client asserts it.
	if installClaimed {
		if granted, err := s.award(ctx, user, models.SourceAppAdd, s.amounts.AppAdd,
			models.GrantMetadata{Description: "Added Beamr miniapp"}); err != nil {
			logger.Warn().Err(err).Int64("fid", user.FID).Msg("App add award failed")
		} else if granted && awarded != nil {
			awarded.AppAdd = s.amounts.AppAdd
		}
	}
}

// awardReferralBonus pays the repeatable referral bonus to the referrer.
// Uniqueness per referred user holds because this is only reachable from the
// one-time wallet-binding path.
func (s *pointsService) awardReferralBonus(ctx context.Context, referrerFID, referredFID int64) bool {
	referrer, err := s.users.GetByFID(ctx, referrerFID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			logger.Warn().Err(err).Int64("referrer_fid", referrerFID).Msg("Referrer lookup failed")
		}
		return false
	}

	granted, err := s.award(ctx, referrer, models.SourceReferral, s.amounts.ReferralBonus, models.GrantMetadata{
		Description: fmt.Sprintf("Referral bonus for %d", referredFID),
		ReferredFID: referredFID,
	})
	if err != nil {
		logger.Warn().Err(err).Int64("referrer_fid", referrerFID).Msg("Referral award failed")
		return false
	}
	return granted
}

// GrantFollow credits the single-use follow grant from a verified webhook
// event. A replayed delivery re-confirms the existing grant.
func (s *pointsService) GrantFollow(ctx context.Context, fid int64) (*models.WebhookGrantResult, error) {
	user, err := s.users.Upsert(ctx, &models.User{FID: fid})
	if err != nil {
		return nil, apperrors.NewDatabaseError("upsert user", err)
	}

	granted, err := s.award(ctx, user, models.SourceFollow, s.amounts.Follow,
		models.GrantMetadata{Description: "Followed Beamr account"})
	if err != nil {
		return nil, err
	}

	total, err := s.grants.TotalForUser(ctx, user.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("total points", err)
	}

	result := &models.WebhookGrantResult{FID: fid, TotalPoints: total, AlreadyGranted: !granted}
	if granted {
		result.AwardedPoints = s.amounts.Follow
	}
	return result, nil
}

// GrantCast credits a repeatable cast grant. Distinctness per cast is the
// caller's responsibility via the cast hash carried in the metadata.
func (s *pointsService) GrantCast(ctx context.Context, fid, amount int64, castHash, authorUsername string) (*models.WebhookGrantResult, error) {
	user, err := s.users.Upsert(ctx, &models.User{FID: fid})
	if err != nil {
		return nil, apperrors.NewDatabaseError("upsert user", err)
	}

	if amount <= 0 {
		amount = s.amounts.Cast
	}

	if _, err := s.award(ctx, user, models.SourceCast, amount, models.GrantMetadata{
		Description:     fmt.Sprintf("Received reply from @beamr (%d points)", amount),
		CastHash:        castHash,
		AuthorUsername:  authorUsername,
		ExtractedPoints: amount,
	}); err != nil {
		return nil, err
	}

	total, err := s.grants.TotalForUser(ctx, user.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("total points", err)
	}

	return &models.WebhookGrantResult{FID: fid, TotalPoints: total, AwardedPoints: amount}, nil
}

// Revoke is the administrative correction path for bad webhook-driven grants.
func (s *pointsService) Revoke(ctx context.Context, fid int64, source models.Source) error {
	if err := s.grants.RevokeByFID(ctx, fid, source); err != nil {
		if errors.Is(err, repository.ErrGrantNotFound) {
			return apperrors.NewNotFoundError("grant", fmt.Sprintf("%d/%s", fid, source))
		}
		return apperrors.NewDatabaseError("revoke grant", err)
	}
	return nil
}

func (s *pointsService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	var cached []models.LeaderboardEntry
	if s.cache != nil {
		if err := s.cache.Get(ctx, leaderboardCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := s.grants.Leaderboard(ctx, leaderboardSize)
	if err != nil {
		return nil, apperrors.NewDatabaseError("leaderboard", err)
	}
	if len(rows) == 0 {
		return []models.LeaderboardEntry{}, nil
	}

	addresses := make([]string, 0, len(rows))
	for _, row := range rows {
		addresses = append(addresses, row.WalletAddress)
	}

	usersByAddress, err := s.resolver.FetchUsersByEthAddress(ctx, addresses)
	if err != nil {
		return nil, apperrors.NewExternalAPIError("neynar", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		users := usersByAddress[row.WalletAddress]
		if len(users) == 0 {
			logger.Warn().Str("wallet", row.WalletAddress).Msg("No Farcaster identity for wallet")
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			FID:         row.FID,
			Username:    users[0].Username,
			DisplayName: users[0].DisplayName,
			PfpURL:      users[0].PfpURL,
			Points:      row.Total,
			Rank:        len(entries) + 1,
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, leaderboardCacheKey, entries, leaderboardCacheTTL); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache leaderboard")
		}
	}

	return entries, nil
}

// award writes one grant through the ledger. Idempotency for single-use
// sources lives in the repository and ultimately in the storage unique index.
func (s *pointsService) award(ctx context.Context, user *models.User, source models.Source, amount int64, metadata models.GrantMetadata) (bool, error) {
	created, err := s.grants.Insert(ctx, &models.PointGrant{
		UserID:   user.ID,
		FID:      user.FID,
		Source:   source,
		Amount:   amount,
		Metadata: metadata,
	})
	if err != nil {
		return false, apperrors.NewDatabaseError("insert grant", err)
	}
	return created, nil
}
