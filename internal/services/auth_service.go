package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
)

var (
	ErrCodeMissing     = errors.New("no authorization code")
	ErrPasswordMissing = errors.New("email and password required")
)

// OAuthProvider is the part of an external OAuth provider the login flow needs.
type OAuthProvider interface {
	AuthorizationURL(redirectURI, state string) string
	ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenGrant, error)
	FetchProfile(ctx context.Context, providerUserID, accessToken string) (*ProviderProfile, error)
}

// AuthService runs the login and registration flows and issues session pairs.
type AuthService struct {
	tokens          *TokenCodec
	refresh         *RefreshTokenService
	identities      *IdentityService
	codes           *VerificationService
	proofs          *EmailProofCodec
	provider        OAuthProvider
	states          StateStore
	requireVerified bool
}

func NewAuthService(
	tokens *TokenCodec,
	refresh *RefreshTokenService,
	identities *IdentityService,
	codes *VerificationService,
	proofs *EmailProofCodec,
	provider OAuthProvider,
	states StateStore,
	requireVerified bool,
) *AuthService {
	return &AuthService{
		tokens:          tokens,
		refresh:         refresh,
		identities:      identities,
		codes:           codes,
		proofs:          proofs,
		provider:        provider,
		states:          states,
		requireVerified: requireVerified,
	}
}

// ProviderLoginURL starts a VK login and returns the redirect URL with its state.
func (s *AuthService) ProviderLoginURL(ctx context.Context, redirectURI string) (string, string, error) {
	state, err := s.states.Issue(ctx)
	if err != nil {
		return "", "", err
	}
	return s.provider.AuthorizationURL(redirectURI, state), state, nil
}

// ProviderCallback completes a VK login. Nothing is written unless both the
// exchange and the profile fetch succeed.
func (s *AuthService) ProviderCallback(ctx context.Context, code, state, redirectURI string) (*dto.AuthResponse, error) {
	if code == "" {
		return nil, ErrCodeMissing
	}
	if err := s.states.Consume(ctx, state); err != nil {
		return nil, err
	}

	grant, err := s.provider.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}
	profile, err := s.provider.FetchProfile(ctx, grant.ProviderUserID, grant.AccessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.identities.ResolveByProvider(ctx, ProviderIdentity{
		ProviderUserID: grant.ProviderUserID,
		Email:          grant.Email,
		DisplayName:    profile.DisplayName,
		AvatarURL:      profile.AvatarURL,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("provider login", "action", "vk_callback", "user_id", user.ID)
	return s.issueSession(ctx, user)
}

// SendCode issues an email verification code and returns it.
func (s *AuthService) SendCode(ctx context.Context, email string) (string, error) {
	return s.codes.IssueCode(ctx, email)
}

// VerifyCode consumes a code and returns the normalized email together with a
// proof that registration accepts for that email.
func (s *AuthService) VerifyCode(ctx context.Context, email, code string) (*dto.VerifyCodeResponse, error) {
	verified, err := s.codes.VerifyCode(ctx, email, code)
	if err != nil {
		return nil, err
	}
	proof, err := s.proofs.Issue(verified)
	if err != nil {
		return nil, err
	}
	return &dto.VerifyCodeResponse{
		Message:           "Code verified",
		Email:             verified,
		VerificationToken: proof,
	}, nil
}

// Register signs up or signs in an email account and issues a session pair.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrPasswordMissing
	}
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if s.requireVerified {
		if err := s.proofs.Verify(req.VerificationToken, email); err != nil {
			return nil, err
		}
	}

	user, err := s.identities.ResolveByEmail(ctx, email, strings.TrimSpace(req.Name), req.Password)
	if err != nil {
		return nil, err
	}

	slog.Info("email login", "action", "email_register", "user_id", user.ID)
	return s.issueSession(ctx, user)
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			AvatarURL: user.AvatarURL,
		},
	}, nil
}
