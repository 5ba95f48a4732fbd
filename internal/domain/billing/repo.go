package billing

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, c *Charge) error
	GetByID(ctx context.Context, chargeID string) (*Charge, error)
	Update(ctx context.Context, c *Charge) error
	Delete(ctx context.Context, chargeID string) error
	ListFor(ctx context.Context, owner Owner) ([]*Charge, error)
	// TotalFor sums the owner's charge amounts directly in the query.
	TotalFor(ctx context.Context, owner Owner) (decimal.Decimal, error)
}
