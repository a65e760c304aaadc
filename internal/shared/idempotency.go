package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyStore remembers client-supplied request keys. A key is scoped to
// a module and the actor that sent it, so two users may reuse the same value.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

func checkIdempotencyArgs(module, key string) error {
	if module == "" {
		return errors.New("idempotency module required")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	return nil
}

// Claim records the key. It returns ErrIdempotencyConflict when the actor
// already used the key in module.
func (s *IdempotencyStore) Claim(ctx context.Context, module string, actorID uuid.UUID, key string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if err := checkIdempotencyArgs(module, key); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (module, actor_id, key, created_at) VALUES ($1, $2, $3, $4)`,
		module, actorID, key, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Release forgets a claimed key so a failed request can be retried with it.
func (s *IdempotencyStore) Release(ctx context.Context, module string, actorID uuid.UUID, key string) error {
	if s == nil {
		return nil
	}
	if err := checkIdempotencyArgs(module, key); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE module = $1 AND actor_id = $2 AND key = $3`, module, actorID, key)
	return err
}

// Cleanup removes keys older than olderThan and reports how many went.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
