package ipd

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// -- Beds --

type bedRepoPG struct{ pool *pgxpool.Pool }

func NewBedRepoPG(pool *pgxpool.Pool) BedRepository { return &bedRepoPG{pool: pool} }

const bedCols = `bed_id, label, ward_class, daily_rate, status, created_at, updated_at`

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.BedID, &b.Label, &b.WardClass, &b.DailyRate, &b.Status,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, hmserr.NotFound("", "bed not found")
	}
	return &b, err
}

func (r *bedRepoPG) Create(ctx context.Context, b *Bed) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO beds (bed_id, label, ward_class, daily_rate, status)
		VALUES ($1,$2,$3,$4,$5)`,
		b.BedID, b.Label, b.WardClass, b.DailyRate, b.Status)
	return err
}

func (r *bedRepoPG) GetByID(ctx context.Context, bedID string) (*Bed, error) {
	b, err := scanBed(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+bedCols+` FROM beds WHERE bed_id = $1`, bedID))
	if hmserr.IsKind(err, hmserr.KindNotFound) {
		return nil, hmserr.NotFound(bedID, "bed not found")
	}
	return b, err
}

func (r *bedRepoPG) Acquire(ctx context.Context, bedID string) error {
	return r.SetStatus(ctx, bedID, BedAvailable, BedOccupied)
}

func (r *bedRepoPG) Release(ctx context.Context, bedID string) error {
	return r.SetStatus(ctx, bedID, BedOccupied, BedAvailable)
}

// SetStatus performs the conditional flip. RowsAffected 0 means the bed
// either does not exist or was not in the expected state; the two cases
// are told apart with a follow-up read so callers get a precise error.
func (r *bedRepoPG) SetStatus(ctx context.Context, bedID string, from, to BedStatus) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE beds SET status = $3, updated_at = NOW()
		WHERE bed_id = $1 AND status = $2`,
		bedID, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, bedID); err != nil {
		return err
	}
	return hmserr.Conflict(bedID, "bed is not "+string(from))
}

func (r *bedRepoPG) List(ctx context.Context, status BedStatus, ward WardClass, limit, offset int) ([]*Bed, int, error) {
	where := ` WHERE ($1 = '' OR status = $1) AND ($2 = '' OR ward_class = $2)`

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM beds`+where, string(status), string(ward)).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+bedCols+` FROM beds`+where+` ORDER BY label LIMIT $3 OFFSET $4`,
		string(status), string(ward), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, 0, err
		}
		beds = append(beds, b)
	}
	return beds, total, rows.Err()
}

// -- Admissions --

type admissionRepoPG struct{ pool *pgxpool.Pool }

func NewAdmissionRepoPG(pool *pgxpool.Pool) AdmissionRepository { return &admissionRepoPG{pool: pool} }

const admCols = `admission_id, patient_id, doctor_id, COALESCE(visit_id, ''), bed_id, file_charge, status, admitted_at, discharged_at, created_at, updated_at`

func scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(&a.AdmissionID, &a.PatientID, &a.DoctorID, &a.VisitID,
		&a.BedID, &a.FileCharge, &a.Status, &a.AdmittedAt, &a.DischargedAt,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, hmserr.NotFound("", "admission not found")
	}
	return &a, err
}

func (r *admissionRepoPG) Create(ctx context.Context, a *Admission) error {
	var visitID interface{}
	if a.VisitID != "" {
		visitID = a.VisitID
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO admissions (admission_id, patient_id, doctor_id, visit_id, bed_id, file_charge, status, admitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.AdmissionID, a.PatientID, a.DoctorID, visitID, a.BedID,
		a.FileCharge, a.Status, a.AdmittedAt)
	return err
}

func (r *admissionRepoPG) GetByID(ctx context.Context, admissionID string) (*Admission, error) {
	a, err := scanAdmission(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+admCols+` FROM admissions WHERE admission_id = $1`, admissionID))
	if hmserr.IsKind(err, hmserr.KindNotFound) {
		return nil, hmserr.NotFound(admissionID, "admission not found")
	}
	return a, err
}

func (r *admissionRepoPG) Update(ctx context.Context, a *Admission) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE admissions SET bed_id=$2, status=$3, discharged_at=$4, updated_at=NOW()
		WHERE admission_id = $1`,
		a.AdmissionID, a.BedID, a.Status, a.DischargedAt)
	return err
}

func (r *admissionRepoPG) ActiveByPatient(ctx context.Context, patientID string) (*Admission, error) {
	a, err := scanAdmission(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+admCols+` FROM admissions
		WHERE patient_id = $1 AND status <> 'DISCHARGED'
		ORDER BY admitted_at DESC LIMIT 1`, patientID))
	if hmserr.IsKind(err, hmserr.KindNotFound) {
		return nil, hmserr.NotFound(patientID, "no active admission for patient")
	}
	return a, err
}

func (r *admissionRepoPG) RecordTransfer(ctx context.Context, t *BedTransfer) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO bed_transfers (admission_id, from_bed_id, to_bed_id, transferred_at)
		VALUES ($1,$2,$3,$4) RETURNING id`,
		t.AdmissionID, t.FromBedID, t.ToBedID, t.TransferredAt).Scan(&t.ID)
}

func (r *admissionRepoPG) Transfers(ctx context.Context, admissionID string) ([]*BedTransfer, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, admission_id, from_bed_id, to_bed_id, transferred_at
		FROM bed_transfers WHERE admission_id = $1 ORDER BY transferred_at`,
		admissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*BedTransfer
	for rows.Next() {
		var t BedTransfer
		if err := rows.Scan(&t.ID, &t.AdmissionID, &t.FromBedID, &t.ToBedID, &t.TransferredAt); err != nil {
			return nil, err
		}
		transfers = append(transfers, &t)
	}
	return transfers, rows.Err()
}

func (r *admissionRepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Admission, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM admissions WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+admCols+` FROM admissions WHERE patient_id = $1
		ORDER BY admitted_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var admissions []*Admission
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, 0, err
		}
		admissions = append(admissions, a)
	}
	return admissions, total, rows.Err()
}
