package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/go-contacts-api/internal/api"
)

var _ ContactRepo = (*PostgresContactRepo)(nil)

// ContactRepo persists contacts. Every operation is scoped to the owning
// user; a contact belonging to someone else behaves as if it did not exist.
type ContactRepo interface {
	Create(ctx context.Context, userID uuid.UUID, params UpsertParams) (*Contact, error)
	GetByID(ctx context.Context, contactID, userID uuid.UUID) (*Contact, error)
	List(ctx context.Context, userID uuid.UUID, skip, limit int) ([]Contact, error)
	Update(ctx context.Context, contactID, userID uuid.UUID, params UpsertParams) (*Contact, error)
	Delete(ctx context.Context, contactID, userID uuid.UUID) error
	Search(ctx context.Context, userID uuid.UUID, query string) ([]Contact, error)
	UpcomingBirthdays(ctx context.Context, userID uuid.UUID, within time.Duration) ([]Contact, error)
}

// UpsertParams carries validated contact fields into the repository.
type UpsertParams struct {
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	Birthday       time.Time
	AdditionalData *string
}

// Querier is the subset of pgxpool.Pool the repository uses; tests satisfy it
// with pgxmock.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresContactRepo struct {
	logger *slog.Logger
	db     Querier
}

func NewPostgresContactRepo(db Querier, logger *slog.Logger) *PostgresContactRepo {
	return &PostgresContactRepo{
		logger: logger,
		db:     db,
	}
}

const contactColumns = `id, user_id, first_name, last_name, email, phone_number, birthday, additional_data, created_at, updated_at`

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email,
		&c.PhoneNumber, &c.Birthday, &c.AdditionalData, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.ErrNotFound
		}
		return nil, fmt.Errorf("scan contact: %w", err)
	}
	return &c, nil
}

func collectContacts(rows pgx.Rows) ([]Contact, error) {
	defer rows.Close()
	var contacts []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

func (r *PostgresContactRepo) Create(ctx context.Context, userID uuid.UUID, p UpsertParams) (*Contact, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO contacts (user_id, first_name, last_name, email, phone_number, birthday, additional_data)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+contactColumns,
		userID, p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.Birthday, p.AdditionalData)
	c, err := scanContact(row)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return c, nil
}

func (r *PostgresContactRepo) GetByID(ctx context.Context, contactID, userID uuid.UUID) (*Contact, error) {
	return scanContact(r.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2`,
		contactID, userID))
}

func (r *PostgresContactRepo) List(ctx context.Context, userID uuid.UUID, skip, limit int) ([]Contact, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts
         WHERE user_id = $1
         ORDER BY last_name, first_name
         OFFSET $2 LIMIT $3`,
		userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return collectContacts(rows)
}

func (r *PostgresContactRepo) Update(ctx context.Context, contactID, userID uuid.UUID, p UpsertParams) (*Contact, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE contacts
         SET first_name = $1, last_name = $2, email = $3, phone_number = $4,
             birthday = $5, additional_data = $6, updated_at = $7
         WHERE id = $8 AND user_id = $9
         RETURNING `+contactColumns,
		p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.Birthday, p.AdditionalData,
		time.Now(), contactID, userID)
	return scanContact(row)
}

func (r *PostgresContactRepo) Delete(ctx context.Context, contactID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM contacts WHERE id = $1 AND user_id = $2`, contactID, userID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ErrNotFound
	}
	return nil
}

func (r *PostgresContactRepo) Search(ctx context.Context, userID uuid.UUID, query string) ([]Contact, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts
         WHERE user_id = $1
           AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
         ORDER BY last_name, first_name`,
		userID, pattern)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return collectContacts(rows)
}

func (r *PostgresContactRepo) UpcomingBirthdays(ctx context.Context, userID uuid.UUID, within time.Duration) ([]Contact, error) {
	today := time.Now().Truncate(24 * time.Hour)
	end := today.Add(within)
	rows, err := r.db.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts
         WHERE user_id = $1 AND birthday >= $2 AND birthday <= $3
         ORDER BY birthday`,
		userID, today, end)
	if err != nil {
		return nil, fmt.Errorf("upcoming birthdays: %w", err)
	}
	return collectContacts(rows)
}
