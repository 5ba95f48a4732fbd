package patient

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

const cols = `patient_id, name, age, gender, address, mobile_number, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.PatientID, &p.Name, &p.Age, &p.Gender, &p.Address,
		&p.MobileNumber, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, hmserr.NotFound("", "patient not found")
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (patient_id, name, age, gender, address, mobile_number)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.PatientID, p.Name, p.Age, p.Gender, p.Address, p.MobileNumber)
	if db.IsUniqueViolation(err) {
		return hmserr.Conflict(p.MobileNumber, "mobile number already registered")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, patientID string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM patients WHERE patient_id = $1`, patientID))
	if hmserr.IsKind(err, hmserr.KindNotFound) {
		return nil, hmserr.NotFound(patientID, "patient not found")
	}
	return p, err
}

func (r *repoPG) GetByMobile(ctx context.Context, mobile string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM patients WHERE mobile_number = $1`, mobile))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET name=$2, age=$3, gender=$4, address=$5, mobile_number=$6,
			updated_at=NOW()
		WHERE patient_id = $1`,
		p.PatientID, p.Name, p.Age, p.Gender, p.Address, p.MobileNumber)
	if db.IsUniqueViolation(err) {
		return hmserr.Conflict(p.MobileNumber, "mobile number already registered")
	}
	return err
}

func (r *repoPG) Search(ctx context.Context, term string, limit, offset int) ([]*Patient, int, error) {
	pattern := "%" + term + "%"

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM patients
		WHERE patient_id ILIKE $1 OR mobile_number ILIKE $1 OR name ILIKE $1`,
		pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM patients
		WHERE patient_id ILIKE $1 OR mobile_number ILIKE $1 OR name ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}
