package patient

import "context"

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, patientID string) (*Patient, error)
	GetByMobile(ctx context.Context, mobile string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Search(ctx context.Context, term string, limit, offset int) ([]*Patient, int, error)
}
