package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"altguard/internal/verification/models"
	"altguard/pkg/platform/sentinel"
	txcontext "altguard/pkg/platform/tx"

	"github.com/lib/pq"
)

// writerLockKey is the transaction-scoped advisory lock taken by RunInTx.
const writerLockKey int64 = 0x616c74677561 // "altgua"

// PostgresStore persists identity records in the identities table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed identity store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// RunInTx opens a transaction, takes the identity writer lock and runs fn with the
// transaction on its context. The lock is released on commit or rollback.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		if _, err := s.execer(ctx).ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, writerLockKey); err != nil {
			return fmt.Errorf("acquire identity writer lock: %w", err)
		}
		return fn(ctx)
	})
}

func (s *PostgresStore) Create(ctx context.Context, identity *models.Identity) error {
	client, err := json.Marshal(identity.Metadata.Client)
	if err != nil {
		return fmt.Errorf("marshal client info: %w", err)
	}
	var components any
	if len(identity.Metadata.Components) > 0 {
		components = []byte(identity.Metadata.Components)
	}
	query := `
		INSERT INTO identities (id, subject_id, fingerprint, source_address, components, user_agent, client, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		identity.ID,
		identity.SubjectID,
		identity.Fingerprint,
		identity.SourceAddress,
		components,
		identity.Metadata.UserAgent,
		client,
		identity.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert identity rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("identity exists: %w", sentinel.ErrConflict)
	}
	return nil
}

const identityColumns = `id, subject_id, fingerprint, source_address, components, user_agent, client, recorded_at`

func (s *PostgresStore) FindEarliestByFingerprint(ctx context.Context, fingerprint string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE fingerprint = $1 ORDER BY recorded_at, id LIMIT 1`
	return s.findOne(ctx, query, fingerprint)
}

func (s *PostgresStore) FindEarliestByAddress(ctx context.Context, address string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE source_address = $1 ORDER BY recorded_at, id LIMIT 1`
	return s.findOne(ctx, query, address)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg string) (*models.Identity, error) {
	identity, err := scanIdentity(s.execer(ctx).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("identity not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return identity, nil
}

// ListBySubjects returns every identity first presented by one of subjectIDs, oldest
// first.
func (s *PostgresStore) ListBySubjects(ctx context.Context, subjectIDs []string) ([]*models.Identity, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + identityColumns + ` FROM identities WHERE subject_id = ANY($1) ORDER BY recorded_at, id`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(subjectIDs))
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []*models.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*models.Identity, error) {
	var (
		identity   models.Identity
		components []byte
		client     []byte
	)
	if err := row.Scan(
		&identity.ID,
		&identity.SubjectID,
		&identity.Fingerprint,
		&identity.SourceAddress,
		&components,
		&identity.Metadata.UserAgent,
		&client,
		&identity.RecordedAt,
	); err != nil {
		return nil, err
	}
	if len(components) > 0 {
		identity.Metadata.Components = json.RawMessage(components)
	}
	if len(client) > 0 {
		if err := json.Unmarshal(client, &identity.Metadata.Client); err != nil {
			return nil, fmt.Errorf("decode client info: %w", err)
		}
	}
	return &identity, nil
}
