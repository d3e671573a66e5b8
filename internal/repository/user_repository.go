package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/stateless-auth/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByLoginOrEmail(ctx context.Context, s string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	LinkSocialAccount(ctx context.Context, account *domain.SocialAccount) error
	GetBySocialAccount(ctx context.Context, provider domain.SocialProvider, providerUserID string) (*domain.User, error)

	// FindByID resolves a token subject: (nil, nil) when no such user exists.
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, login, email, display_name, nicename, first_name, last_name,
        password_hash, phone_number, otp_user_id, status, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Login,
		&user.Email,
		&user.DisplayName,
		&user.Nicename,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.PhoneNumber,
		&user.OTPUserID,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (login, email, display_name, nicename, first_name, last_name,
            password_hash, phone_number, otp_user_id, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Login,
		user.Email,
		user.DisplayName,
		user.Nicename,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.PhoneNumber,
		user.OTPUserID,
		user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
        UPDATE users SET password_hash=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE login=$1`
	return scanUser(r.pool.QueryRow(ctx, query, login))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) GetByLoginOrEmail(ctx context.Context, s string) (*domain.User, error) {
	if strings.Contains(s, "@") {
		return r.GetByEmail(ctx, s)
	}
	return r.GetByLogin(ctx, s)
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE phone_number=$1`
	return scanUser(r.pool.QueryRow(ctx, query, phone))
}

func (r *userRepository) LinkSocialAccount(ctx context.Context, account *domain.SocialAccount) error {
	const query = `
        INSERT INTO social_accounts (user_id, provider, provider_user_id, avatar_url)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		account.UserID,
		account.Provider,
		account.ProviderUserID,
		account.AvatarURL,
	).Scan(&account.CreatedAt)
}

func (r *userRepository) GetBySocialAccount(ctx context.Context, provider domain.SocialProvider, providerUserID string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users
        JOIN social_accounts sa ON sa.user_id = users.id
        WHERE sa.provider=$1 AND sa.provider_user_id=$2`
	return scanUser(r.pool.QueryRow(ctx, query, provider, providerUserID))
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}
