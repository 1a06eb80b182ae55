// internal/infra/database/postgres_journal_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"homework_status_bot/internal/domain/journal"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const createPollCyclesTable = `CREATE TABLE IF NOT EXISTS poll_cycles (
	id              BIGSERIAL PRIMARY KEY,
	from_date       BIGINT      NOT NULL,
	next_checkpoint BIGINT      NOT NULL,
	outcome         TEXT        NOT NULL,
	message         TEXT        NOT NULL DEFAULT '',
	delivered       BOOLEAN     NOT NULL DEFAULT FALSE,
	error_text      TEXT        NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type PostgresJournalRepository struct {
	db *sql.DB
}

func NewPostgresJournalRepository(db *sql.DB) *PostgresJournalRepository {
	return &PostgresJournalRepository{db: db}
}

// EnsureSchema creates the poll_cycles table if it does not exist yet.
func (r *PostgresJournalRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPollCyclesTable); err != nil {
		return fmt.Errorf("error creating poll_cycles table: %w", err)
	}
	return nil
}

func (r *PostgresJournalRepository) Record(ctx context.Context, e *journal.Entry) error {
	query := `INSERT INTO poll_cycles (from_date, next_checkpoint, outcome, message, delivered, error_text)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		e.FromDate, e.NextCheckpoint, e.Outcome, e.Message, e.Delivered, e.ErrorText,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("error recording poll cycle: %w", err)
	}
	return nil
}
