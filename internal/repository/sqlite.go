package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
)

const jobsSchema = `
CREATE TABLE IF NOT EXISTS validation_jobs (
	id                   TEXT PRIMARY KEY,
	status               TEXT NOT NULL,
	progress_message     TEXT NOT NULL,
	source_filename      TEXT NOT NULL,
	source_path          TEXT NOT NULL,
	findings_json        TEXT,
	output_artifact_path TEXT NOT NULL DEFAULT '',
	created_at           TEXT NOT NULL,
	completed_at         TEXT
);
`

// Config for the sqlite job store.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// SQLiteJobRepository is a durable JobRepository backed by modernc.org/sqlite.
type SQLiteJobRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenSQLite opens (creating if needed) the job database and runs migrations.
func OpenSQLite(ctx context.Context, cfg Config, log *slog.Logger) (*SQLiteJobRepository, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	log.Info("opening job store", "path", cfg.Path)

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one connection serialises writers and keeps :memory: databases coherent
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, jobsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteJobRepository{db: db, log: log}, nil
}

// Close closes the underlying database connection.
func (r *SQLiteJobRepository) Close() error {
	return r.db.Close()
}

// Ping checks the database is reachable.
func (r *SQLiteJobRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteJobRepository) Create(ctx context.Context, job *entity.ValidationJob) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("create job: %w", common.ErrInvalidInput)
	}
	args, err := rowArgs(job)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO validation_jobs
			(id, status, progress_message, source_filename, source_path, findings_json, output_artifact_path, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		var existing string
		if qerr := r.db.QueryRowContext(ctx, `SELECT id FROM validation_jobs WHERE id = ?`, job.ID).Scan(&existing); qerr == nil {
			return fmt.Errorf("job %s already exists: %w", job.ID, common.ErrInvalidInput)
		}
		r.log.Error("jobs.create failed", "job_id", job.ID, "err", err)
		return fmt.Errorf("insert job: %w", err)
	}
	r.log.Debug("jobs.create", "job_id", job.ID, "status", job.Status)
	return nil
}

func (r *SQLiteJobRepository) Get(ctx context.Context, id string) (*entity.ValidationJob, error) {
	return getJob(ctx, r.db, id)
}

func (r *SQLiteJobRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM validation_jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrUnknownJob
	}
	r.log.Debug("jobs.delete", "job_id", id)
	return nil
}

func (r *SQLiteJobRepository) Update(ctx context.Context, job *entity.ValidationJob) error {
	if job == nil {
		return fmt.Errorf("update job: %w", common.ErrInvalidInput)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getJob(ctx, tx, job.ID)
	if err != nil {
		return err
	}
	if err := current.CheckTransition(job); err != nil {
		r.log.Warn("jobs.update.rejected", "job_id", job.ID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrInvalidTransition, err)
	}

	args, err := rowArgs(job)
	if err != nil {
		return err
	}
	// id moves to the WHERE clause
	_, err = tx.ExecContext(ctx, `
		UPDATE validation_jobs SET
			status = ?, progress_message = ?, source_filename = ?, source_path = ?,
			findings_json = ?, output_artifact_path = ?, created_at = ?, completed_at = ?
		WHERE id = ?`, append(args[1:], job.ID)...)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug("jobs.update", "job_id", job.ID, "status", job.Status, "progress", job.ProgressMessage)
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getJob(ctx context.Context, q queryer, id string) (*entity.ValidationJob, error) {
	var (
		job         entity.ValidationJob
		status      string
		findings    sql.NullString
		createdAt   string
		completedAt sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, status, progress_message, source_filename, source_path, findings_json, output_artifact_path, created_at, completed_at
		FROM validation_jobs WHERE id = ?`, id).
		Scan(&job.ID, &status, &job.ProgressMessage, &job.SourceFilename, &job.SourcePath, &findings, &job.OutputArtifactPath, &createdAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrUnknownJob
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", err)
	}

	job.Status = constants.JobStatus(status)
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		job.CompletedAt = &t
	}
	if findings.Valid {
		if err := json.Unmarshal([]byte(findings.String), &job.Findings); err != nil {
			return nil, fmt.Errorf("decode findings: %w", err)
		}
	}
	return &job, nil
}

func rowArgs(job *entity.ValidationJob) ([]any, error) {
	var findings any
	if job.Findings != nil {
		b, err := json.Marshal(job.Findings)
		if err != nil {
			return nil, fmt.Errorf("encode findings: %w", err)
		}
		findings = string(b)
	}
	var completedAt any
	if job.CompletedAt != nil {
		completedAt = job.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	return []any{
		job.ID,
		string(job.Status),
		job.ProgressMessage,
		job.SourceFilename,
		job.SourcePath,
		findings,
		job.OutputArtifactPath,
		job.CreatedAt.UTC().Format(time.RFC3339Nano),
		completedAt,
	}, nil
}
