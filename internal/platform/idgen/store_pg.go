package idgen

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// pgCounterStore persists one counter row per (kind, bucket) key. The
// upsert serializes concurrent callers on the same key inside the store
// while leaving different keys free to proceed in parallel.
type pgCounterStore struct {
	pool *pgxpool.Pool
}

func NewPgCounterStore(pool *pgxpool.Pool) CounterStore {
	return &pgCounterStore{pool: pool}
}

func (s *pgCounterStore) conn(ctx context.Context) rowQuerier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *pgCounterStore) Next(ctx context.Context, kind Kind, bucket string) (int64, error) {
	var value int64
	err := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO id_counters (kind, bucket, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (kind, bucket)
		DO UPDATE SET value = id_counters.value + 1
		RETURNING value`,
		string(kind), bucket).Scan(&value)
	if err != nil {
		return 0, err
	}
	return value, nil
}
