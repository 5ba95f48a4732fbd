package payment

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

const cols = `payment_id, patient_id, COALESCE(visit_id, ''), COALESCE(admission_id, ''), kind, mode, amount, received_by, received_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.PaymentID, &p.PatientID, &p.VisitID, &p.AdmissionID,
		&p.Kind, &p.Mode, &p.Amount, &p.ReceivedBy, &p.ReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, hmserr.NotFound("", "payment not found")
	}
	return &p, err
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (r *repoPG) Create(ctx context.Context, p *Payment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payments (payment_id, patient_id, visit_id, admission_id, kind, mode, amount, received_by, received_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.PaymentID, p.PatientID, nullable(p.VisitID), nullable(p.AdmissionID),
		p.Kind, p.Mode, p.Amount, p.ReceivedBy, p.ReceivedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, paymentID string) (*Payment, error) {
	p, err := scanPayment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM payments WHERE payment_id = $1`, paymentID))
	if hmserr.IsKind(err, hmserr.KindNotFound) {
		return nil, hmserr.NotFound(paymentID, "payment not found")
	}
	return p, err
}

func (r *repoPG) ListByAdmission(ctx context.Context, admissionID string) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM payments WHERE admission_id = $1 ORDER BY received_at`,
		admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Payment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM payments WHERE patient_id = $1
		ORDER BY received_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	payments, err := collect(rows)
	return payments, total, err
}

func collect(rows pgx.Rows) ([]*Payment, error) {
	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *repoPG) AdvanceTotal(ctx context.Context, admissionID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE admission_id = $1 AND kind = 'ADVANCE'`,
		admissionID).Scan(&total)
	return total, err
}
