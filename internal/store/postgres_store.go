package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dunamismax/chromaflow/internal/colorspace"
	"github.com/dunamismax/chromaflow/internal/domain"
	"github.com/lib/pq"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS images (
	id BIGINT PRIMARY KEY,
	raw_name TEXT NOT NULL,
	converted_name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS conversion_jobs (
	id TEXT PRIMARY KEY,
	image_id BIGINT NOT NULL,
	mode TEXT NOT NULL,
	status TEXT NOT NULL,
	webhook_url TEXT NOT NULL DEFAULT '',
	converted_name TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateRecord(ctx context.Context, rec domain.ImageRecord) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO images (id, raw_name, converted_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID,
		rec.RawName,
		rec.ConvertedName,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrRecordExists
		}
		return fmt.Errorf("insert image record: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, id int64) (domain.ImageRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, raw_name, converted_name, created_at, updated_at
		 FROM images
		 WHERE id = $1`,
		id,
	)

	var rec domain.ImageRecord
	if err := row.Scan(&rec.ID, &rec.RawName, &rec.ConvertedName, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ImageRecord{}, ErrRecordNotFound
		}
		return domain.ImageRecord{}, fmt.Errorf("query image record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) LookupName(ctx context.Context, id int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT raw_name FROM images WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrRecordNotFound
		}
		return "", fmt.Errorf("lookup image name: %w", err)
	}
	return name, nil
}

func (s *PostgresStore) UpdateConvertedName(ctx context.Context, id int64, name string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE images
		 SET converted_name = $1, updated_at = $2
		 WHERE id = $3`,
		name,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update converted name: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job domain.ConversionJob) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO conversion_jobs (id, image_id, mode, status, webhook_url, converted_name, error, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID,
		job.ImageID,
		job.Mode.String(),
		job.Status,
		job.WebhookURL,
		job.ConvertedName,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (domain.ConversionJob, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, image_id, mode, status, webhook_url, converted_name, error, created_at, updated_at
		 FROM conversion_jobs
		 WHERE id = $1`,
		id,
	)

	var (
		job  domain.ConversionJob
		mode string
	)
	if err := row.Scan(
		&job.ID,
		&job.ImageID,
		&mode,
		&job.Status,
		&job.WebhookURL,
		&job.ConvertedName,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ConversionJob{}, false, nil
		}
		return domain.ConversionJob{}, false, fmt.Errorf("query job: %w", err)
	}

	parsed, err := colorspace.ParseMode(mode)
	if err != nil {
		return domain.ConversionJob{}, false, fmt.Errorf("parse job mode: %w", err)
	}
	job.Mode = parsed

	return job, true, nil
}

func (s *PostgresStore) UpdateJob(ctx context.Context, id string, update JobUpdate) (domain.ConversionJob, error) {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE conversion_jobs
		 SET status = COALESCE(NULLIF($1, ''), status),
		     converted_name = COALESCE(NULLIF($2, ''), converted_name),
		     error = COALESCE(NULLIF($3, ''), error),
		     updated_at = $4
		 WHERE id = $5`,
		update.Status,
		update.ConvertedName,
		update.Error,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return domain.ConversionJob{}, fmt.Errorf("update job: %w", err)
	}

	job, ok, err := s.GetJob(ctx, id)
	if err != nil {
		return domain.ConversionJob{}, err
	}
	if !ok {
		return domain.ConversionJob{}, ErrJobNotFound
	}

	return job, nil
}
