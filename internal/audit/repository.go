package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads audit_logs.
type Repository interface {
	Window(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error)
	All(ctx context.Context, filters TimelineFilters, limit int) ([]TimelineRow, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the pgx implementation of Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const timelineSelect = `SELECT a.occurred_at, a.actor_id, COALESCE(u.email, ''), a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_id`

func (r *repository) Window(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	where, args := timelineWhere(filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY a.occurred_at DESC, a.id DESC LIMIT $%d OFFSET $%d", timelineSelect, where, len(args)-1, len(args))
	return r.query(ctx, query, args)
}

func (r *repository) All(ctx context.Context, filters TimelineFilters, limit int) ([]TimelineRow, error) {
	where, args := timelineWhere(filters)
	args = append(args, limit)
	query := fmt.Sprintf("%s%s ORDER BY a.occurred_at DESC, a.id DESC LIMIT $%d", timelineSelect, where, len(args))
	return r.query(ctx, query, args)
}

func (r *repository) query(ctx context.Context, query string, args []any) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimelineRow, error) {
		var out TimelineRow
		var meta []byte
		if err := row.Scan(&out.At, &out.ActorID, &out.ActorEmail, &out.Action, &out.Entity, &out.EntityID, &meta); err != nil {
			return TimelineRow{}, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &out.Meta); err != nil {
				return TimelineRow{}, err
			}
		}
		return out, nil
	})
}

func timelineWhere(filters TimelineFilters) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if !filters.From.IsZero() {
		add("a.occurred_at >= $%d", filters.From)
	}
	if !filters.To.IsZero() {
		add("a.occurred_at < $%d", filters.To)
	}
	if filters.ActorID.Valid {
		add("a.actor_id = $%d", filters.ActorID.UUID)
	}
	if filters.Entity != "" {
		add("a.entity = $%d", filters.Entity)
	}
	if filters.EntityID != "" {
		add("a.entity_id = $%d", filters.EntityID)
	}
	if filters.Action != "" {
		add("a.action = $%d", filters.Action)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
