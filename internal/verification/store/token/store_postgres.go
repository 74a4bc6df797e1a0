package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"altguard/internal/verification/models"
	"altguard/pkg/platform/sentinel"
	txcontext "altguard/pkg/platform/tx"
)

// PostgresStore persists verification tokens in the verification_tokens table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed token store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO verification_tokens (value, subject_id, group_id, created_at, consumed)
		VALUES ($1, $2, $3, $4, FALSE)
		ON CONFLICT (value) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, token.Value, token.SubjectID, token.GroupID, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert verification token: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert verification token rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("verification token exists: %w", sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, value string) (*models.Token, error) {
	query := `
		SELECT value, subject_id, group_id, created_at, consumed, consumed_at
		FROM verification_tokens
		WHERE value = $1
	`
	token, err := scanToken(s.execer(ctx).QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("verification token not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find verification token: %w", err)
	}
	return token, nil
}

// Consume flips the consumed flag with a conditional UPDATE so concurrent callers
// race on the row lock and exactly one sees a returned row. On a miss the current
// row is read back to classify the failure.
func (s *PostgresStore) Consume(ctx context.Context, value string, now time.Time, ttl time.Duration) (*models.Token, error) {
	cutoff := now.Add(-ttl)
	query := `
		UPDATE verification_tokens
		SET consumed = TRUE, consumed_at = $2
		WHERE value = $1 AND consumed = FALSE AND created_at > $3
		RETURNING value, subject_id, group_id, created_at, consumed, consumed_at
	`
	token, err := scanToken(s.execer(ctx).QueryRowContext(ctx, query, value, now, cutoff))
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("consume verification token: %w", err)
	}

	existing, err := s.Find(ctx, value)
	if err != nil {
		return nil, err
	}
	if err := existing.ValidateForConsume(now, ttl); err != nil {
		return nil, translateConsumeError(err)
	}
	// The row was consumed by a concurrent caller between the UPDATE and the read.
	return nil, fmt.Errorf("verification token not consumable: %w", sentinel.ErrAlreadyUsed)
}

func (s *PostgresStore) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM verification_tokens WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired verification tokens: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired verification tokens rows affected: %w", err)
	}
	return int(rows), nil
}

func scanToken(row *sql.Row) (*models.Token, error) {
	var (
		token      models.Token
		consumedAt sql.NullTime
	)
	if err := row.Scan(
		&token.Value,
		&token.SubjectID,
		&token.GroupID,
		&token.CreatedAt,
		&token.Consumed,
		&consumedAt,
	); err != nil {
		return nil, err
	}
	if consumedAt.Valid {
		t := consumedAt.Time
		token.ConsumedAt = &t
	}
	return &token, nil
}
