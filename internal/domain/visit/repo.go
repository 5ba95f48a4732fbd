package visit

import (
	"context"
	"time"
)

type Repository interface {
	// NextSerial returns MAX(serial_number)+1 for (doctor, date), or 1
	// when the doctor has no visits that day. Callers run it inside the
	// same transaction as Create so concurrent allocations collide on
	// the unique index instead of silently duplicating.
	NextSerial(ctx context.Context, doctorID string, date time.Time) (int, error)
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, visitID string) (*Visit, error)
	UpdateStatus(ctx context.Context, visitID string, status Status) error
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Visit, int, error)
	ListByDoctorDate(ctx context.Context, doctorID string, date time.Time) ([]*Visit, error)
}
