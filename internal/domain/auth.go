package domain

import (
	"time"
)

type Identity struct {
	ID         string
	Username   string
	Email      string
	SecretHash string // empty when loaded as a profile projection
	ImageURL   string
	OTP        *OTPState // nil when no recovery is pending
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OTPState is the single recovery slot on an identity. Code and ExpiresAt
// are written and cleared together.
type OTPState struct {
	Code      string
	ExpiresAt time.Time
}

// Valid reports whether candidate matches and the slot has not expired at now.
func (s *OTPState) Valid(candidate string, now time.Time) bool {
	if s == nil || s.Code == "" {
		return false
	}
	return s.Code == candidate && s.ExpiresAt.After(now)
}

// Profile returns a copy without the secret hash or OTP slot.
func (i *Identity) Profile() *Identity {
	p := *i
	p.SecretHash = ""
	p.OTP = nil
	return &p
}

var ProfileImages = []string{"/avatar1.png", "/avatar2.png", "/avatar3.png", "/avatar4.png"}
