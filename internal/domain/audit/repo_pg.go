package audit

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Append(ctx context.Context, e *Entry) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_logs (audit_id, actor_id, action, entity_kind, entity_id, old_values, new_values, at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.AuditID, e.ActorID, e.Action, e.EntityKind, e.EntityID, e.Old, e.New, e.At)
	return err
}

func (r *repoPG) List(ctx context.Context, q Query) ([]*Entry, int, error) {
	where := ` WHERE ($1 = '' OR entity_kind = $1)
		AND ($2 = '' OR entity_id = $2)
		AND ($3 = '' OR actor_id = $3)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_logs`+where,
		q.EntityKind, q.EntityID, q.ActorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT audit_id, actor_id, action, entity_kind, entity_id, old_values, new_values, at
		FROM audit_logs`+where+`
		ORDER BY at DESC LIMIT $4 OFFSET $5`,
		q.EntityKind, q.EntityID, q.ActorID, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.AuditID, &e.ActorID, &e.Action, &e.EntityKind,
			&e.EntityID, &e.Old, &e.New, &e.At); err != nil {
			return nil, 0, err
		}
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
}
