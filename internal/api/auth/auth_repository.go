package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-contacts-api/internal/api"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo is the persistent user store consumed by the auth core. The core
// treats users as read-mostly: it mutates only the password hash (reset),
// the verified flag (email verification) and the verification token.
type UserRepo interface {
	CreateUser(ctx context.Context, email, passwordHash, verificationToken string) (*UserAuth, error)
	GetUserByEmail(ctx context.Context, email string) (*UserAuth, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*UserAuth, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*UserAuth, error)
	SetVerificationToken(ctx context.Context, userID uuid.UUID, token string) error
	MarkVerified(ctx context.Context, userID uuid.UUID) error
	UpdatePasswordHash(ctx context.Context, email, newHash string) error
	UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) error
	UpdateRole(ctx context.Context, userID uuid.UUID, role string) error
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresUserRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = `id, email, password_hash, avatar, verified, role, created_at, updated_at`

func scanUser(row pgx.Row) (*UserAuth, error) {
	var u UserAuth
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.Verified, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) CreateUser(ctx context.Context, email, passwordHash, verificationToken string) (*UserAuth, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "CreateUser",
		trace.WithAttributes(attribute.String("user.email", email)))
	defer span.End()

	row := r.pgpool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, verification_token)
         VALUES ($1, $2, $3)
         RETURNING `+userColumns,
		email, passwordHash, verificationToken)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			span.SetStatus(codes.Error, "duplicate email")
			return nil, fmt.Errorf("email already registered: %w", api.ErrConflict)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (*UserAuth, error) {
	return scanUser(r.pgpool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*UserAuth, error) {
	return scanUser(r.pgpool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

func (r *PostgresUserRepo) GetUserByVerificationToken(ctx context.Context, token string) (*UserAuth, error) {
	return scanUser(r.pgpool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token))
}

func (r *PostgresUserRepo) SetVerificationToken(ctx context.Context, userID uuid.UUID, token string) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET verification_token = $1, updated_at = $2 WHERE id = $3`,
		token, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("set verification token: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET verified = TRUE, verification_token = NULL, updated_at = $1
         WHERE id = $2`,
		time.Now(), userID)
	if err != nil {
		return fmt.Errorf("mark verified: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) UpdatePasswordHash(ctx context.Context, email, newHash string) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpdatePasswordHash")
	defer span.End()

	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE email = $3`,
		newHash, time.Now(), email)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("update password: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) UpdateAvatar(ctx context.Context, userID uuid.UUID, url string) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET avatar = $1, updated_at = $2 WHERE id = $3`,
		url, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("update avatar: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) UpdateRole(ctx context.Context, userID uuid.UUID, role string) error {
	if role != RoleUser && role != RoleAdmin {
		return fmt.Errorf("unknown role %q: %w", role, api.ErrInvalidInput)
	}
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`,
		role, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("update role: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ErrNotFound
	}
	return nil
}
