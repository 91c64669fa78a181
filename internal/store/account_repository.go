/**
 * @description
 * Server-side persistence for the authoritative account store. Accounts are
 * one row each; the crop list is a JSONB document appended under a row lock
 * so the (cropTypeName, createdAt) uniqueness invariant holds per account.
 *
 * @notes
 * - Components that need the account store depend on the AccountRepository
 *   interface, not on the PostgreSQL implementation.
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agroai/crop-engine/internal/domain"
)

// ErrEmailTaken is returned when signing up with an identifier that already
// has an account.
var ErrEmailTaken = errors.New("email already registered")

// ErrDuplicateCrop is returned when an account already holds a crop with the
// same (cropTypeName, createdAt) identity.
var ErrDuplicateCrop = errors.New("duplicate crop")

// AccountRepository defines the contract for account persistence.
type AccountRepository interface {
	CreateAccount(ctx context.Context, email, passwordHash string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, string, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	AppendCrop(ctx context.Context, accountID string, crop domain.Crop) error
}

// PostgresAccountRepository is the PostgreSQL implementation of AccountRepository.
type PostgresAccountRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresAccountRepository creates a repository on top of a pgx pool.
func NewPostgresAccountRepository(db *pgxpool.Pool, logger *slog.Logger) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db, logger: logger}
}

// EnsureSchema creates the accounts table if it does not exist. Idempotent.
func (r *PostgresAccountRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS accounts (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            crops JSONB NOT NULL DEFAULT '[]'::jsonb,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
    `)
	if err != nil {
		return fmt.Errorf("ensure accounts table: %w", err)
	}
	return nil
}

// CreateAccount inserts a new account with an empty crop list, so a freshly
// created account always hydrates a well-formed document.
func (r *PostgresAccountRepository) CreateAccount(ctx context.Context, email, passwordHash string) (*domain.Account, error) {
	account := &domain.Account{Email: email, Crops: []domain.Crop{}}
	query := `
        INSERT INTO accounts (email, password_hash, crops)
        VALUES ($1, $2, '[]'::jsonb)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, email, passwordHash).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		r.logger.Error("failed to insert account", "error", err)
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return account, nil
}

// FindByEmail returns the account and its password hash for credential checks.
func (r *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, string, error) {
	query := `SELECT id, email, crops, password_hash, created_at FROM accounts WHERE email = $1`
	account, hash, err := r.scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, "", err
	}
	return account, hash, nil
}

// FindByID returns the account for an id, or domain.ErrAccountNotFound.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT id, email, crops, password_hash, created_at FROM accounts WHERE id = $1`
	account, _, err := r.scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *PostgresAccountRepository) scanAccount(row pgx.Row) (*domain.Account, string, error) {
	var (
		account  domain.Account
		cropsRaw []byte
		hash     string
	)
	err := row.Scan(&account.ID, &account.Email, &cropsRaw, &hash, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("scan account: %w", err)
	}
	if err := json.Unmarshal(cropsRaw, &account.Crops); err != nil {
		return nil, "", fmt.Errorf("decode crops document: %w", err)
	}
	if account.Crops == nil {
		account.Crops = []domain.Crop{}
	}
	return &account, hash, nil
}

// AppendCrop adds a crop to the account's JSONB document. The row is locked
// for the duration of the transaction so concurrent appends cannot slip a
// duplicate identity past the check.
func (r *PostgresAccountRepository) AppendCrop(ctx context.Context, accountID string, crop domain.Crop) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append crop: %w", err)
	}
	defer tx.Rollback(ctx)

	var cropsRaw []byte
	err = tx.QueryRow(ctx, `SELECT crops FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&cropsRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("lock account row: %w", err)
	}

	var crops []domain.Crop
	if err := json.Unmarshal(cropsRaw, &crops); err != nil {
		return fmt.Errorf("decode crops document: %w", err)
	}
	for _, existing := range crops {
		if existing.SameIdentity(crop) {
			return ErrDuplicateCrop
		}
	}

	crops = append(crops, crop)
	updated, err := json.Marshal(crops)
	if err != nil {
		return fmt.Errorf("encode crops document: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET crops = $1 WHERE id = $2`, updated, accountID); err != nil {
		return fmt.Errorf("update crops document: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append crop: %w", err)
	}
	r.logger.Info("crop appended", "account_id", accountID, "crop_type", crop.CropTypeName)
	return nil
}
