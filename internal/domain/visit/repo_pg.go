package visit

import (
	"context"
	"errors"
	"time"

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

const cols = `visit_id, patient_id, doctor_id, visit_date, serial_number, kind, fee, payment_mode, status, created_at, updated_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.VisitID, &v.PatientID, &v.DoctorID, &v.VisitDate,
		&v.SerialNumber, &v.Kind, &v.Fee, &v.PaymentMode, &v.Status,
		&v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, hmserr.NotFound("", "visit not found")
	}
	return &v, err
}

func (r *repoPG) NextSerial(ctx context.Context, doctorID string, date time.Time) (int, error) {
	var next int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(MAX(serial_number), 0) + 1
		FROM visits WHERE doctor_id = $1 AND visit_date = $2`,
		doctorID, date).Scan(&next)
	return next, err
}

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visits (visit_id, patient_id, doctor_id, visit_date, serial_number, kind, fee, payment_mode, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		v.VisitID, v.PatientID, v.DoctorID, v.VisitDate, v.SerialNumber,
		v.Kind, v.Fee, v.PaymentMode, v.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, visitID string) (*Visit, error) {
	v, err := scanVisit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM visits WHERE visit_id = $1`, visitID))
	if hmserr.IsKind(err, hmserr.KindNotFound) {
		return nil, hmserr.NotFound(visitID, "visit not found")
	}
	return v, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, visitID string, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE visits SET status = $2, updated_at = NOW() WHERE visit_id = $1`,
		visitID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return hmserr.NotFound(visitID, "visit not found")
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM visits WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM visits WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		visits = append(visits, v)
	}
	return visits, total, rows.Err()
}

func (r *repoPG) ListByDoctorDate(ctx context.Context, doctorID string, date time.Time) ([]*Visit, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM visits WHERE doctor_id = $1 AND visit_date = $2
		ORDER BY serial_number`,
		doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}
