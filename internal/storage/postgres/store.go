package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"configSync/internal/model"
)

// Store persists reconciliation runs to Postgres.
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

// PutRun upserts the run row and its writes in one batch.
func (s *Store) PutRun(ctx context.Context, run model.RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run id required")
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO reconcile_runs (
			id, command, chain_id, outcome, tx_hash, error_message, change_count, started_at, finished_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (id)
		DO UPDATE SET
			outcome = EXCLUDED.outcome,
			tx_hash = EXCLUDED.tx_hash,
			error_message = EXCLUDED.error_message,
			change_count = EXCLUDED.change_count,
			finished_at = EXCLUDED.finished_at
	`,
		run.ID,
		run.Command,
		int64(run.ChainID),
		string(run.Outcome),
		nullable(run.TxHash),
		nullable(run.Error),
		len(run.Changes),
		run.StartedAt,
		run.FinishedAt,
	)
	for i, w := range run.Writes {
		batch.Queue(`
			INSERT INTO reconcile_writes (
				run_id, position, target, method, call_data, description
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (run_id, position)
			DO UPDATE SET
				target = EXCLUDED.target,
				method = EXCLUDED.method,
				call_data = EXCLUDED.call_data,
				description = EXCLUDED.description
		`,
			run.ID,
			i,
			w.Target,
			w.Method,
			[]byte(w.CallData),
			w.Description,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("put run %s: %w", run.ID, err)
		}
	}
	return nil
}

// RunWrite is a stored write row.
type RunWrite struct {
	Position    int
	Target      string
	Method      string
	CallData    []byte
	Description string
}

// LoadRun returns the outcome, tx hash and ordered writes for a run.
func (s *Store) LoadRun(ctx context.Context, id string) (model.Outcome, string, []RunWrite, bool, error) {
	var (
		outcome string
		txHash  *string
	)
	row := s.pool.QueryRow(ctx, `SELECT outcome, tx_hash FROM reconcile_runs WHERE id=$1`, id)
	if err := row.Scan(&outcome, &txHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", nil, false, nil
		}
		return "", "", nil, false, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT position, target, method, call_data, description
		FROM reconcile_writes WHERE run_id=$1 ORDER BY position
	`, id)
	if err != nil {
		return "", "", nil, false, err
	}
	writes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (RunWrite, error) {
		var w RunWrite
		err := row.Scan(&w.Position, &w.Target, &w.Method, &w.CallData, &w.Description)
		return w, err
	})
	if err != nil {
		return "", "", nil, false, err
	}

	hash := ""
	if txHash != nil {
		hash = *txHash
	}
	return model.Outcome(outcome), hash, writes, true, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
