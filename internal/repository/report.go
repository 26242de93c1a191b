package repository

import (
	"context"
	"fmt"

	"consent/sync/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository appends sync run reports to an audit table. Reports are
// never read back by a run.
type ReportRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveReport(ctx context.Context, report *domain.Report) (int64, error)
}

type reportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) ReportRepository {
	return &reportRepository{
		db: db,
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sync_runs (
		id          BIGSERIAL PRIMARY KEY,
		mode        TEXT NOT NULL,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sync_run_results (
		run_id    BIGINT NOT NULL REFERENCES sync_runs (id) ON DELETE CASCADE,
		position  INT NOT NULL,
		category  TEXT NOT NULL,
		remote_id TEXT NOT NULL,
		state     TEXT NOT NULL,
		status    TEXT NOT NULL,
		cookies   TEXT NOT NULL,
		tags      TEXT NOT NULL,
		error     TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
}

func (r *reportRepository) EnsureSchema(ctx context.Context) error {
	for _, query := range schema {
		if _, err := r.db.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to create report schema: %w", err)
		}
	}
	return nil
}

func (r *reportRepository) SaveReport(ctx context.Context, report *domain.Report) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin report transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var runID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO sync_runs (mode, started_at, finished_at) VALUES ($1, $2, $3) RETURNING id`,
		report.Mode.String(), report.StartedAt, report.FinishedAt,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to save sync run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, res := range report.Results {
		batch.Queue(`
		INSERT INTO sync_run_results (run_id, position, category, remote_id, state, status, cookies, tags, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, i, res.Category, res.RemoteID.String(), string(res.State), string(res.Status),
			string(res.Cookies), string(res.Tags), res.ErrorText(),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("failed to save sync run results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit sync run: %w", err)
	}

	return runID, nil
}
