package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, paymentID string) (*Payment, error)
	ListByAdmission(ctx context.Context, admissionID string) ([]*Payment, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Payment, int, error)
	// AdvanceTotal sums the admission's ADVANCE receipts.
	AdvanceTotal(ctx context.Context, admissionID string) (decimal.Decimal, error)
}
