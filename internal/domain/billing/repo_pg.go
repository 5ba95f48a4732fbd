package billing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/hmserr"
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

const cols = `charge_id, COALESCE(visit_id, ''), COALESCE(admission_id, ''), kind, description, quantity, unit_price, amount, created_by, created_at, updated_at`

func scanCharge(row pgx.Row) (*Charge, error) {
	var c Charge
	err := row.Scan(&c.ChargeID, &c.VisitID, &c.AdmissionID, &c.Kind,
		&c.Description, &c.Quantity, &c.UnitPrice, &c.Amount,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, hmserr.NotFound("", "charge not found")
	}
	return &c, err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (r *repoPG) Create(ctx context.Context, c *Charge) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO billing_charges (charge_id, visit_id, admission_id, kind, description, quantity, unit_price, amount, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		c.ChargeID, nullable(c.VisitID), nullable(c.AdmissionID), c.Kind,
		c.Description, c.Quantity, c.UnitPrice, c.Amount, c.CreatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, chargeID string) (*Charge, error) {
	c, err := scanCharge(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM billing_charges WHERE charge_id = $1`, chargeID))
	if hmserr.IsKind(err, hmserr.KindNotFound) {
		return nil, hmserr.NotFound(chargeID, "charge not found")
	}
	return c, err
}

func (r *repoPG) Update(ctx context.Context, c *Charge) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE billing_charges SET description=$2, quantity=$3, unit_price=$4, amount=$5, updated_at=NOW()
		WHERE charge_id = $1`,
		c.ChargeID, c.Description, c.Quantity, c.UnitPrice, c.Amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return hmserr.NotFound(c.ChargeID, "charge not found")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, chargeID string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM billing_charges WHERE charge_id = $1`, chargeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return hmserr.NotFound(chargeID, "charge not found")
	}
	return nil
}

func (r *repoPG) ListFor(ctx context.Context, owner Owner) ([]*Charge, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM billing_charges
		WHERE ($1 <> '' AND visit_id = $1) OR ($2 <> '' AND admission_id = $2)
		ORDER BY created_at`,
		owner.VisitID, owner.AdmissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charges []*Charge
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func (r *repoPG) TotalFor(ctx context.Context, owner Owner) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM billing_charges
		WHERE ($1 <> '' AND visit_id = $1) OR ($2 <> '' AND admission_id = $2)`,
		owner.VisitID, owner.AdmissionID).Scan(&total)
	return total, err
}
