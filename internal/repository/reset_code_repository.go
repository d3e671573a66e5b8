package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ResetCode is a short numeric code mailed to a user for password recovery.
type ResetCode struct {
	ID        string
	UserID    string
	Code      string
	ResetKey  string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Expired reports whether the code is past its window.
func (c *ResetCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ResetCodeRepository manages password reset code persistence.
type ResetCodeRepository interface {
	Create(ctx context.Context, code *ResetCode) error
	GetByCode(ctx context.Context, code string) (*ResetCode, error)
	MarkUsed(ctx context.Context, id string) error
}

type resetCodeRepository struct {
	pool *pgxpool.Pool
}

// NewResetCodeRepository constructs repository.
func NewResetCodeRepository(pool *pgxpool.Pool) ResetCodeRepository {
	return &resetCodeRepository{pool: pool}
}

func (r *resetCodeRepository) Create(ctx context.Context, code *ResetCode) error {
	const query = `
        INSERT INTO password_reset_codes (user_id, code, reset_key, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		code.UserID,
		code.Code,
		code.ResetKey,
		code.ExpiresAt,
	).Scan(&code.ID, &code.CreatedAt)
}

func (r *resetCodeRepository) GetByCode(ctx context.Context, codeStr string) (*ResetCode, error) {
	const query = `
        SELECT id, user_id, code, reset_key, expires_at, used_at, created_at
        FROM password_reset_codes WHERE code=$1 AND used_at IS NULL
        ORDER BY created_at DESC LIMIT 1`
	var code ResetCode
	if err := r.pool.QueryRow(ctx, query, codeStr).Scan(
		&code.ID,
		&code.UserID,
		&code.Code,
		&code.ResetKey,
		&code.ExpiresAt,
		&code.UsedAt,
		&code.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *resetCodeRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `
        UPDATE password_reset_codes SET used_at=NOW()
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
