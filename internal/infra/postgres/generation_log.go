package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"studysync-service/internal/generation"
)

// GenerationLog appends one row per generation call to generation_runs.
type GenerationLog struct {
	pool *pgxpool.Pool
}

func NewGenerationLog(pool *pgxpool.Pool) *GenerationLog {
	return &GenerationLog{pool: pool}
}

func (l *GenerationLog) Record(ctx context.Context, run generation.Run) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO generation_runs (kind, model, outcome, items, duration_ms) VALUES ($1, $2, $3, $4, $5)`,
		string(run.Kind), run.Model, string(run.Outcome), run.Items, run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record generation run: %w", err)
	}
	return nil
}

// Summary aggregates recorded runs for one kind.
type Summary struct {
	Kind  generation.Kind
	Total int64
	OK    int64
}

// Summarize counts runs per kind, ordered by kind name.
func (l *GenerationLog) Summarize(ctx context.Context) ([]Summary, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT kind, count(*), count(*) FILTER (WHERE outcome = 'ok') FROM generation_runs GROUP BY kind ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("summarize generation runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var kind string
		if err := rows.Scan(&kind, &s.Total, &s.OK); err != nil {
			return nil, fmt.Errorf("scan generation summary: %w", err)
		}
		s.Kind = generation.Kind(kind)
		out = append(out, s)
	}
	return out, rows.Err()
}
