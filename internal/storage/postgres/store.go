package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eventscope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	chain_id      BIGINT      NOT NULL,
	block_hash    TEXT        NOT NULL,
	log_index     BIGINT      NOT NULL,
	block_number  BIGINT      NOT NULL,
	tx_hash       TEXT        NOT NULL,
	address       TEXT        NOT NULL,
	event         TEXT        NOT NULL,
	signature     TEXT        NOT NULL,
	status        TEXT        NOT NULL,
	args          JSONB       NOT NULL,
	extra         JSONB,
	ingested_at   TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, block_hash, log_index)
);
CREATE INDEX IF NOT EXISTS events_address_block ON events (chain_id, address, block_number);
CREATE TABLE IF NOT EXISTS indexer_state (
	name                 TEXT        PRIMARY KEY,
	last_processed_block BIGINT      NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store persists decoded events and indexer progress in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables the store writes to.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// PutEventBatch inserts or updates decoded events. A log seen again after a
// retry replaces the earlier row.
func (s *Store) PutEventBatch(ctx context.Context, records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		var extra any
		if len(rec.Extra) > 0 {
			extra = rec.Extra
		}
		ingestedAt, err := time.Parse(time.RFC3339, rec.IngestedAt)
		if err != nil {
			ingestedAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO events (
				chain_id, block_hash, log_index, block_number, tx_hash, address,
				event, signature, status, args, extra, ingested_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (chain_id, block_hash, log_index)
			DO UPDATE SET
				block_number = EXCLUDED.block_number,
				tx_hash = EXCLUDED.tx_hash,
				address = EXCLUDED.address,
				event = EXCLUDED.event,
				signature = EXCLUDED.signature,
				status = EXCLUDED.status,
				args = EXCLUDED.args,
				extra = EXCLUDED.extra,
				ingested_at = EXCLUDED.ingested_at,
				updated_at = now()
		`,
			int64(rec.ChainID),
			rec.BlockHash,
			int64(rec.LogIndex),
			int64(rec.BlockNumber),
			rec.TxHash,
			rec.Address,
			rec.Event,
			rec.Signature,
			rec.Status,
			rec.Args,
			extra,
			ingestedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert event: %w", err)
		}
	}
	return nil
}

// LoadCheckpoint returns the last processed block stored under name.
func (s *Store) LoadCheckpoint(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveCheckpoint upserts the last processed block for name.
func (s *Store) SaveCheckpoint(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, int64(block))
	return err
}
