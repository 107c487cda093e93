package vocab

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresSource reads vocabulary from a table with english, meaning and
// usage columns (see the vocabulary table in the database schema).
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresSource creates a table-backed source. An empty table name means "vocabulary".
func NewPostgresSource(pool *pgxpool.Pool, table string) *PostgresSource {
	if table == "" {
		table = "vocabulary"
	}
	return &PostgresSource{pool: pool, table: table}
}

func (s *PostgresSource) Name() string {
	return "postgres:" + s.table
}

func (s *PostgresSource) Load(ctx context.Context) ([]Record, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT english, meaning, COALESCE(usage, '')
		 FROM `+s.ident()+`
		 ORDER BY created_at ASC, english ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query vocabulary: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var english, meaning, usage string
		if err := rows.Scan(&english, &meaning, &usage); err != nil {
			return nil, fmt.Errorf("scan vocabulary: %w", err)
		}
		if r, ok := NewRecord(english, meaning, usage); ok {
			records = append(records, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vocabulary: %w", err)
	}
	return records, nil
}

// Append inserts r, relying on the unique index over lower(english) to skip duplicates.
func (s *PostgresSource) Append(ctx context.Context, r Record) (bool, error) {
	if s.pool == nil {
		return false, fmt.Errorf("pool is nil")
	}
	r, ok := NewRecord(r.English, r.Meaning, r.Usage)
	if !ok {
		return false, fmt.Errorf("english and meaning are required")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.ident()+` (english, meaning, usage)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		r.English,
		r.Meaning,
		nullIfEmpty(r.Usage),
	)
	if err != nil {
		return false, fmt.Errorf("insert vocabulary: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (s *PostgresSource) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
