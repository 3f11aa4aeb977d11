package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/ErlanBelekov/notes-service/internal/email"
	"github.com/ErlanBelekov/notes-service/internal/metrics"
	"github.com/ErlanBelekov/notes-service/internal/repository"
	"github.com/ErlanBelekov/notes-service/internal/token"
)

const defaultOTPTTL = 5 * time.Minute

// CodeGenerator is satisfied by *otp.Generator.
type CodeGenerator interface {
	Generate() (string, error)
}

// Mailer is satisfied by *email.Dispatcher. Dispatch must not block on delivery.
type Mailer interface {
	Dispatch(ctx context.Context, to, subject, body string)
}

type RecoveryUsecase struct {
	identities repository.IdentityRepository
	hasher     SecretHasher
	tokens     *token.Service
	codes      CodeGenerator
	mailer     Mailer
	epochs     EpochStore
	otpTTL     time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

type RecoveryOption func(*RecoveryUsecase)

func WithOTPTTL(ttl time.Duration) RecoveryOption {
	return func(u *RecoveryUsecase) { u.otpTTL = ttl }
}

// WithRecoveryClock overrides time.Now for OTP issuing and verification.
func WithRecoveryClock(now func() time.Time) RecoveryOption {
	return func(u *RecoveryUsecase) { u.now = now }
}

func NewRecoveryUsecase(
	identities repository.IdentityRepository,
	hasher SecretHasher,
	tokens *token.Service,
	codes CodeGenerator,
	mailer Mailer,
	epochs EpochStore,
	logger *slog.Logger,
	opts ...RecoveryOption,
) *RecoveryUsecase {
	u := &RecoveryUsecase{
		identities: identities,
		hasher:     hasher,
		tokens:     tokens,
		codes:      codes,
		mailer:     mailer,
		epochs:     epochs,
		otpTTL:     defaultOTPTTL,
		now:        time.Now,
		logger:     logger.With("component", "recovery_usecase"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// SendOTP stores a fresh code on the identity, replacing any earlier one,
// and hands the email to the mailer without waiting for delivery.
func (u *RecoveryUsecase) SendOTP(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.ErrMissingFields
	}

	code, err := u.codes.Generate()
	if err != nil {
		return err
	}

	err = u.identities.SetOTP(ctx, emailAddr, domain.OTPState{
		Code:      code,
		ExpiresAt: u.now().Add(u.otpTTL),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("store otp: %w", err)
	}
	metrics.OTPIssuedTotal.Inc()

	subject, body := email.RecoveryMessage(code, int(u.otpTTL/time.Minute))
	u.mailer.Dispatch(ctx, emailAddr, subject, body)
	return nil
}

// VerifyOTP consumes a matching, unexpired code and returns a recovery token.
func (u *RecoveryUsecase) VerifyOTP(ctx context.Context, emailAddr, code string) (string, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || code == "" {
		return "", domain.ErrMissingFields
	}

	identity, err := u.identities.ClaimOTP(ctx, emailAddr, code, u.now())
	if err != nil {
		if errors.Is(err, domain.ErrOTPInvalidOrExpired) {
			metrics.AuthEventsTotal.WithLabelValues("verify_otp", "failure").Inc()
			return "", domain.ErrOTPInvalidOrExpired
		}
		return "", fmt.Errorf("claim otp: %w", err)
	}

	signed, err := u.tokens.IssueRecovery(identity.Email, identity.SecretHash)
	if err != nil {
		return "", fmt.Errorf("issue recovery token: %w", err)
	}

	metrics.AuthEventsTotal.WithLabelValues("verify_otp", "success").Inc()
	return signed, nil
}

// ResetPassword replaces the secret of the identity named by the recovery
// token. The token stops working as soon as the secret changes.
func (u *RecoveryUsecase) ResetPassword(ctx context.Context, recoveryToken, newSecret string) error {
	if recoveryToken == "" || newSecret == "" {
		return domain.ErrMissingFields
	}

	rec, err := u.tokens.VerifyRecovery(recoveryToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return domain.ErrRecoveryTokenExpired
		}
		return domain.ErrRecoveryTokenInvalid
	}

	if err := validateSecret(newSecret); err != nil {
		return err
	}

	identity, err := u.identities.FindByEmail(ctx, rec.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrRecoveryTokenInvalid
		}
		return fmt.Errorf("find identity: %w", err)
	}
	if token.Fingerprint(identity.SecretHash) != rec.Fingerprint {
		return domain.ErrRecoveryTokenInvalid
	}

	hash, err := u.hasher.Hash(newSecret)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}

	if err := u.identities.UpdateSecret(ctx, identity.Email, identity.SecretHash, hash); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrRecoveryTokenInvalid
		}
		return fmt.Errorf("update secret: %w", err)
	}

	u.logger.InfoContext(ctx, "password reset", "identity_id", identity.ID)
	metrics.AuthEventsTotal.WithLabelValues("reset_password", "success").Inc()

	return revokeSessions(ctx, u.epochs, identity.ID, "password_reset")
}
