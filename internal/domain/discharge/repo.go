package discharge

import "context"

type Repository interface {
	// Save inserts the bill. One bill per admission; a second insert for
	// the same admission fails on the primary key.
	Save(ctx context.Context, b *Bill) error
	GetByAdmission(ctx context.Context, admissionID string) (*Bill, error)
}
