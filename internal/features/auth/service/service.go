package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"beamr-points-backend/internal/common/errors"
	"beamr-points-backend/internal/common/logger"
	"beamr-points-backend/internal/common/middleware"
	"beamr-points-backend/internal/features/auth/models"
	pointsmodels "beamr-points-backend/internal/features/points/models"
	pointsrepo "beamr-points-backend/internal/features/points/repository"
	"beamr-points-backend/internal/platform/neynar"
)

// ProfileFetcher loads the signer's Farcaster profile.
type ProfileFetcher interface {
	FetchUser(ctx context.Context, fid int64) (*neynar.User, error)
}

type AuthService interface {
	// SignIn verifies the Quick Auth token, requires the attested fid to
	// match the claimed one and issues a session token.
	SignIn(ctx context.Context, req models.SignInRequest, domain string) (*models.SignInResponse, error)
}

type authService struct {
	verifier   QuickAuthVerifier
	profiles   ProfileFetcher
	users      pointsrepo.UserRepository
	jwtSecret  []byte
	sessionTTL time.Duration
}

func NewAuthService(
	verifier QuickAuthVerifier,
	profiles ProfileFetcher,
	users pointsrepo.UserRepository,
	jwtSecret string,
	sessionTTL time.Duration,
) AuthService {
	return &authService{
		verifier:   verifier,
		profiles:   profiles,
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
	}
}

func (s *authService) SignIn(ctx context.Context, req models.SignInRequest, domain string) (*models.SignInResponse, error) {
	identity, err := s.verifier.VerifyToken(ctx, req.Token, domain)
	if err != nil {
		return nil, errors.NewUnauthorizedError("token verification failed")
	}
	if identity.FID != req.FID {
		return nil, errors.NewUnauthorizedError("token does not match the claimed fid")
	}

	// Capture the referral attribution as early as possible; the bonus itself
	// is only paid when the referred user confirms a wallet.
	if req.ReferrerFID != 0 && req.ReferrerFID != req.FID {
		if _, err := s.users.Upsert(ctx, &pointsmodels.User{FID: req.FID, ReferrerFID: req.ReferrerFID}); err != nil {
			logger.Warn().Err(err).Int64("fid", req.FID).Msg("Failed to store referrer at sign-in")
		}
	}

	user, err := s.profiles.FetchUser(ctx, identity.FID)
	if err != nil {
		// The session is still issued; the profile is display-only here.
		logger.Warn().Err(err).Int64("fid", identity.FID).Msg("Profile fetch failed at sign-in")
		user = nil
	}

	now := time.Now()
	claims := &middleware.SessionClaims{
		FID:           identity.FID,
		WalletAddress: identity.WalletAddress,
		Timestamp:     now.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to sign session token")
	}

	return &models.SignInResponse{Token: token, User: user}, nil
}
