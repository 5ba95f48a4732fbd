package discharge

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

func (r *repoPG) Save(ctx context.Context, b *Bill) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO discharge_bills (admission_id, patient_id, visit_fee, file_charge, bed_days, bed_rate, bed_charge, charges_total, advance_total, net, settled_by, settled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		b.AdmissionID, b.PatientID, b.VisitFee, b.FileCharge, b.BedDays,
		b.BedRate, b.BedCharge, b.ChargesTotal, b.AdvanceTotal, b.Net,
		b.SettledBy, b.SettledAt)
	if db.IsUniqueViolation(err) {
		return hmserr.Conflict(b.AdmissionID, "admission already settled")
	}
	return err
}

func (r *repoPG) GetByAdmission(ctx context.Context, admissionID string) (*Bill, error) {
	var b Bill
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT admission_id, patient_id, visit_fee, file_charge, bed_days, bed_rate, bed_charge, charges_total, advance_total, net, settled_by, settled_at
		FROM discharge_bills WHERE admission_id = $1`,
		admissionID).Scan(&b.AdmissionID, &b.PatientID, &b.VisitFee,
		&b.FileCharge, &b.BedDays, &b.BedRate, &b.BedCharge,
		&b.ChargesTotal, &b.AdvanceTotal, &b.Net, &b.SettledBy, &b.SettledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, hmserr.NotFound(admissionID, "no bill for admission")
	}
	return &b, err
}
