package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/domain"
)

type IdentityRepository interface {
	// Create fails with domain.ErrEmailTaken or domain.ErrUsernameTaken on a uniqueness violation.
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	// FindProfileByID loads the identity without its secret hash or OTP slot.
	FindProfileByID(ctx context.Context, id string) (*domain.Identity, error)

	// SetOTP overwrites the identity's single OTP slot.
	SetOTP(ctx context.Context, email string, otp domain.OTPState) error
	// ClaimOTP clears the slot in one conditional update, only if code
	// matches and the slot expires strictly after now.
	ClaimOTP(ctx context.Context, email, code string, now time.Time) (*domain.Identity, error)
	// UpdateSecret replaces the hash only while it still equals oldHash.
	UpdateSecret(ctx context.Context, email, oldHash, newHash string) error

	// ClearExpiredOTPs empties up to limit slots that expired before cutoff.
	ClearExpiredOTPs(ctx context.Context, cutoff time.Time, limit int) (int, error)
}
