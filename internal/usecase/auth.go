package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/ErlanBelekov/notes-service/internal/metrics"
	"github.com/ErlanBelekov/notes-service/internal/repository"
	"github.com/ErlanBelekov/notes-service/internal/token"
	"github.com/go-playground/validator/v10"
)

const (
	minSecretLen = 7
	maxSecretLen = 72 // bcrypt input limit
)

// SecretHasher is satisfied by *password.Hasher.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Verify(hash, candidate string) bool
}

// EpochStore tracks a per-identity session epoch. Tokens carrying an older
// epoch are rejected. A nil EpochStore disables revocation.
type EpochStore interface {
	Current(ctx context.Context, identityID string) (int64, error)
	Bump(ctx context.Context, identityID string) (int64, error)
}

type AuthUsecase struct {
	identities repository.IdentityRepository
	hasher     SecretHasher
	tokens     *token.Service
	epochs     EpochStore
	validate   *validator.Validate
	logger     *slog.Logger
}

func NewAuthUsecase(identities repository.IdentityRepository, hasher SecretHasher, tokens *token.Service, epochs EpochStore, logger *slog.Logger) *AuthUsecase {
	return &AuthUsecase{
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
		epochs:     epochs,
		validate:   validator.New(),
		logger:     logger.With("component", "auth_usecase"),
	}
}

type SignupInput struct {
	Username string
	Email    string
	Secret   string
}

type LoginResult struct {
	Identity  *domain.Identity
	Token     string
	ExpiresAt time.Time
}

// Signup validates the input, hashes the secret and stores a new identity.
func (u *AuthUsecase) Signup(ctx context.Context, input SignupInput) (*domain.Identity, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = normalizeEmail(input.Email)

	if input.Username == "" || input.Email == "" || input.Secret == "" {
		return nil, domain.ErrMissingFields
	}
	if err := u.validate.Var(input.Email, "email"); err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if err := validateSecret(input.Secret); err != nil {
		return nil, err
	}

	hash, err := u.hasher.Hash(input.Secret)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	created, err := u.identities.Create(ctx, &domain.Identity{
		Username:   input.Username,
		Email:      input.Email,
		SecretHash: hash,
		ImageURL:   domain.ProfileImages[rand.IntN(len(domain.ProfileImages))],
	})
	if err != nil {
		metrics.AuthEventsTotal.WithLabelValues("signup", "failure").Inc()
		return nil, fmt.Errorf("create identity: %w", err)
	}

	metrics.AuthEventsTotal.WithLabelValues("signup", "success").Inc()
	return created.Profile(), nil
}

// Login verifies the credentials and issues a session token. An unknown
// email and a wrong secret fail identically.
func (u *AuthUsecase) Login(ctx context.Context, email, secret string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || secret == "" {
		return nil, domain.ErrMissingFields
	}

	identity, err := u.identities.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find identity: %w", err)
	}

	var storedHash string
	if identity != nil {
		storedHash = identity.SecretHash
	}
	if !u.hasher.Verify(storedHash, secret) || identity == nil {
		metrics.AuthEventsTotal.WithLabelValues("login", "failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	epoch, err := u.currentEpoch(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	signed, err := u.tokens.IssueSession(identity.ID, epoch)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	metrics.AuthEventsTotal.WithLabelValues("login", "success").Inc()
	return &LoginResult{
		Identity:  identity.Profile(),
		Token:     signed,
		ExpiresAt: time.Now().Add(u.tokens.SessionTTL()),
	}, nil
}

// Authenticate resolves a session token to the identity's profile.
// Every token failure, including a vanished identity, is ErrUnauthenticated.
func (u *AuthUsecase) Authenticate(ctx context.Context, rawToken string) (*domain.Identity, error) {
	sess, err := u.tokens.VerifySession(rawToken)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	epoch, err := u.currentEpoch(ctx, sess.IdentityID)
	if err != nil {
		return nil, err
	}
	if sess.Epoch < epoch {
		return nil, domain.ErrUnauthenticated
	}

	identity, err := u.identities.FindProfileByID(ctx, sess.IdentityID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return identity, nil
}

// Logout revokes every session of the token's identity when an epoch store
// is configured. Without one it is a no-op; the caller still clears the cookie.
func (u *AuthUsecase) Logout(ctx context.Context, rawToken string) error {
	if u.epochs == nil || rawToken == "" {
		return nil
	}
	sess, err := u.tokens.VerifySession(rawToken)
	if err != nil {
		return nil
	}
	return revokeSessions(ctx, u.epochs, sess.IdentityID, "logout")
}

func (u *AuthUsecase) currentEpoch(ctx context.Context, identityID string) (int64, error) {
	if u.epochs == nil {
		return 0, nil
	}
	epoch, err := u.epochs.Current(ctx, identityID)
	if err != nil {
		return 0, fmt.Errorf("session epoch: %w", err)
	}
	return epoch, nil
}

func revokeSessions(ctx context.Context, epochs EpochStore, identityID, reason string) error {
	if epochs == nil {
		return nil
	}
	if _, err := epochs.Bump(ctx, identityID); err != nil {
		return fmt.Errorf("bump session epoch: %w", err)
	}
	metrics.SessionsRevokedTotal.WithLabelValues(reason).Inc()
	return nil
}

func validateSecret(secret string) error {
	if len(secret) < minSecretLen {
		return domain.ErrSecretTooShort
	}
	if len(secret) > maxSecretLen {
		return domain.ErrSecretTooLong
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
