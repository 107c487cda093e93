package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresRecorder stores runs in the exam_runs table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

func NewPostgresRecorder(pool *pgxpool.Pool) (*PostgresRecorder, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresRecorder{pool: pool}, nil
}

func (r *PostgresRecorder) Record(ctx context.Context, run Run) (string, error) {
	if run.Date.IsZero() {
		return "", fmt.Errorf("run date is required")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	selected := run.Selected
	if selected == nil {
		selected = []string{}
	}
	payload, err := json.Marshal(selected)
	if err != nil {
		return "", fmt.Errorf("marshal selected: %w", err)
	}

	var deliveryErr *string
	if run.DeliveryError != "" {
		deliveryErr = &run.DeliveryError
	}

	var id string
	err = r.pool.QueryRow(ctx, `
		INSERT INTO exam_runs
			(run_date, source, vocabulary, questions, selected, exam_file, answers_file, delivered, delivery_error, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10)
		RETURNING id::text`,
		run.Date, run.Source, run.Vocabulary, run.Questions, payload,
		run.ExamFile, run.AnswersFile, run.Delivered, deliveryErr, run.Elapsed.Milliseconds(),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert exam run: %w", err)
	}
	return id, nil
}

func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, run_date, source, vocabulary, questions, selected,
		       exam_file, answers_file, delivered, COALESCE(delivery_error, ''), elapsed_ms, created_at
		FROM exam_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query exam runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			selected  []byte
			elapsedMS int64
		)
		if err := rows.Scan(
			&run.ID, &run.Date, &run.Source, &run.Vocabulary, &run.Questions, &selected,
			&run.ExamFile, &run.AnswersFile, &run.Delivered, &run.DeliveryError, &elapsedMS, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan exam run: %w", err)
		}
		if err := json.Unmarshal(selected, &run.Selected); err != nil {
			return nil, fmt.Errorf("decode selected: %w", err)
		}
		run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exam runs: %w", err)
	}
	return runs, nil
}
