package ipd

import "context"

type BedRepository interface {
	Create(ctx context.Context, b *Bed) error
	GetByID(ctx context.Context, bedID string) (*Bed, error)
	// Acquire flips the bed AVAILABLE -> OCCUPIED with a conditional
	// update. It fails with a conflict when the bed is in any other
	// state, which is how two concurrent admissions to the same bed are
	// decided: one wins the update, the other gets the conflict.
	Acquire(ctx context.Context, bedID string) error
	// Release flips the bed back to AVAILABLE.
	Release(ctx context.Context, bedID string) error
	SetStatus(ctx context.Context, bedID string, from, to BedStatus) error
	List(ctx context.Context, status BedStatus, ward WardClass, limit, offset int) ([]*Bed, int, error)
}

type AdmissionRepository interface {
	Create(ctx context.Context, a *Admission) error
	GetByID(ctx context.Context, admissionID string) (*Admission, error)
	Update(ctx context.Context, a *Admission) error
	ActiveByPatient(ctx context.Context, patientID string) (*Admission, error)
	RecordTransfer(ctx context.Context, t *BedTransfer) error
	Transfers(ctx context.Context, admissionID string) ([]*BedTransfer, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Admission, int, error)
}
