package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/auth"
)

const userColumns = `id, email, password_hash, name, profile_image, created_at, updated_at`

type UsersRepository struct {
	pool *pgxpool.Pool
}

func NewUsersRepository(p *db.Postgres) (*UsersRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &UsersRepository{pool: p.Pool}, nil
}

// Create fills user.ID on success.
func (r *UsersRepository) Create(ctx context.Context, user *auth.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, profile_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		user.Email,
		user.PasswordHash,
		toNullableText(user.Name),
		toNullableText(user.ProfileImage),
		toTimestamptz(user.CreatedAt),
		toTimestamptz(user.UpdatedAt),
	).Scan(&user.ID)
	if isUniqueViolation(err) {
		return auth.ErrEmailTaken
	}
	return err
}

func (r *UsersRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UsersRepository) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepository) findOne(ctx context.Context, sql string, arg any) (*auth.User, error) {
	var (
		user         auth.User
		name         pgtype.Text
		profileImage pgtype.Text
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, sql, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&name,
		&profileImage,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.Name = nullableTextValue(name)
	user.ProfileImage = nullableTextValue(profileImage)
	user.CreatedAt = createdAt.Time.UTC()
	user.UpdatedAt = updatedAt.Time.UTC()
	return &user, nil
}
