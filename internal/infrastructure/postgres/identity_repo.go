package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const identityColumns = `id, username, email, secret_hash, image_url, otp, otp_expires_at, created_at, updated_at`

type IdentityRepository struct {
	pool *pgxpool.Pool
}

func NewIdentityRepository(pool *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error) {
	query := `
		INSERT INTO identities (username, email, secret_hash, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + identityColumns

	row := r.pool.QueryRow(ctx, query,
		identity.Username,
		identity.Email,
		identity.SecretHash,
		identity.ImageURL,
	)

	created, err := scanIdentity(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "identities_username_key" {
				return nil, domain.ErrUsernameTaken
			}
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
	return scanIdentity(row)
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = $1`, email)
	return scanIdentity(row)
}

func (r *IdentityRepository) FindProfileByID(ctx context.Context, id string) (*domain.Identity, error) {
	query := `SELECT id, username, email, image_url, created_at, updated_at FROM identities WHERE id = $1`

	var i domain.Identity
	err := r.pool.QueryRow(ctx, query, id).Scan(&i.ID, &i.Username, &i.Email, &i.ImageURL, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &i, nil
}

func (r *IdentityRepository) SetOTP(ctx context.Context, email string, otp domain.OTPState) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE identities
		SET    otp            = $2,
		       otp_expires_at = $3,
		       updated_at     = NOW()
		WHERE  email = $1`, email, otp.Code, otp.ExpiresAt)
	if err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *IdentityRepository) ClaimOTP(ctx context.Context, email, code string, now time.Time) (*domain.Identity, error) {
	// Match and clear in one statement so two concurrent claims cannot both win.
	row := r.pool.QueryRow(ctx, `
		UPDATE identities
		SET    otp            = NULL,
		       otp_expires_at = NULL,
		       updated_at     = NOW()
		WHERE  email          = $1
		  AND  otp            = $2
		  AND  otp_expires_at > $3
		RETURNING `+identityColumns, email, code, now)

	identity, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrOTPInvalidOrExpired
		}
		return nil, err
	}
	return identity, nil
}

func (r *IdentityRepository) UpdateSecret(ctx context.Context, email, oldHash, newHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE identities
		SET    secret_hash = $3,
		       updated_at  = NOW()
		WHERE  email = $1 AND secret_hash = $2`, email, oldHash, newHash)
	if err != nil {
		return fmt.Errorf("update secret: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *IdentityRepository) ClearExpiredOTPs(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE identities
		SET    otp            = NULL,
		       otp_expires_at = NULL
		WHERE id IN (
			SELECT id FROM identities
			WHERE  otp_expires_at IS NOT NULL
			  AND  otp_expires_at <= $1
			ORDER BY otp_expires_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("clear expired otps: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanIdentity(row rowScanner) (*domain.Identity, error) {
	var (
		i         domain.Identity
		otp       *string
		otpExpiry *time.Time
	)
	err := row.Scan(
		&i.ID, &i.Username, &i.Email, &i.SecretHash, &i.ImageURL,
		&otp, &otpExpiry, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	if otp != nil && otpExpiry != nil {
		i.OTP = &domain.OTPState{Code: *otp, ExpiresAt: *otpExpiry}
	}
	return &i, nil
}
