// Package token issues and verifies the two signed token classes: session
// tokens that identify an identity, and short-lived recovery tokens that
// authorize a single password reset.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	audienceSession  = "session"
	audienceRecovery = "recovery"

	DefaultRecoveryTTL = 10 * time.Minute
)

var (
	ErrInvalid = errors.New("token is invalid")
	ErrExpired = errors.New("token has expired")
)

type SessionClaims struct {
	Epoch int64 `json:"ver"`
	jwt.RegisteredClaims
}

type RecoveryClaims struct {
	Email string `json:"email"`
	// Fingerprint binds the token to the secret hash it was issued against.
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// Session is the verified payload of a session token.
type Session struct {
	IdentityID string
	Epoch      int64
	ExpiresAt  time.Time
}

// Recovery is the verified payload of a recovery token.
type Recovery struct {
	Email       string
	Fingerprint string
}

type Service struct {
	key         []byte
	sessionTTL  time.Duration
	recoveryTTL time.Duration
	now         func() time.Time
}

type Option func(*Service)

// WithClock overrides time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRecoveryTTL(ttl time.Duration) Option {
	return func(s *Service) { s.recoveryTTL = ttl }
}

func NewService(key []byte, sessionTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		key:         key,
		sessionTTL:  sessionTTL,
		recoveryTTL: DefaultRecoveryTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

func (s *Service) IssueSession(identityID string, epoch int64) (string, error) {
	now := s.now()
	claims := SessionClaims{
		Epoch: epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			Audience:  jwt.ClaimStrings{audienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	return s.sign(claims)
}

func (s *Service) VerifySession(raw string) (*Session, error) {
	var claims SessionClaims
	if err := s.parse(raw, &claims, audienceSession); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalid
	}
	return &Session{
		IdentityID: claims.Subject,
		Epoch:      claims.Epoch,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) IssueRecovery(email, secretHash string) (string, error) {
	now := s.now()
	claims := RecoveryClaims{
		Email:       email,
		Fingerprint: Fingerprint(secretHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{audienceRecovery},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.recoveryTTL)),
		},
	}
	return s.sign(claims)
}

func (s *Service) VerifyRecovery(raw string) (*Recovery, error) {
	var claims RecoveryClaims
	if err := s.parse(raw, &claims, audienceRecovery); err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, ErrInvalid
	}
	return &Recovery{Email: claims.Email, Fingerprint: claims.Fingerprint}, nil
}

// Fingerprint is a short digest of a secret hash. It changes whenever the
// secret is reset.
func Fingerprint(secretHash string) string {
	sum := sha256.Sum256([]byte(secretHash))
	return hex.EncodeToString(sum[:8])
}

func (s *Service) sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

func (s *Service) parse(raw string, claims jwt.Claims, audience string) error {
	if raw == "" {
		return ErrInvalid
	}
	_, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
