package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/hmserr"
	"github.com/hms/hms/internal/platform/idgen"
)

type Service struct {
	repo Repository
	ids  *idgen.Allocator
	now  func() time.Time
}

func NewService(repo Repository, ids *idgen.Allocator) *Service {
	return &Service{repo: repo, ids: ids, now: time.Now}
}

type RecordRequest struct {
	PatientID   string          `json:"patient_id"`
	VisitID     string          `json:"visit_id"`
	AdmissionID string          `json:"admission_id"`
	Kind        Kind            `json:"kind"`
	Mode        Mode            `json:"mode"`
	Amount      decimal.Decimal `json:"amount"`
}

// Record writes one receipt. It joins any transaction open on ctx so
// settlement can record its closing payment atomically with the
// discharge.
func (s *Service) Record(ctx context.Context, req RecordRequest) (*Payment, error) {
	if !req.Kind.Valid() {
		return nil, hmserr.Validation("kind", "unknown payment kind "+string(req.Kind))
	}
	if !req.Mode.Valid() {
		return nil, hmserr.Validation("mode", "payment mode must be CASH, UPI or CARD")
	}
	if !req.Amount.IsPositive() {
		return nil, hmserr.Validation("amount", "amount must be positive")
	}
	if req.PatientID == "" {
		return nil, hmserr.Validation("patient_id", "patient id is required")
	}
	if req.Kind == KindAdvance && req.AdmissionID == "" {
		return nil, hmserr.Validation("admission_id", "advances must reference an admission")
	}

	now := s.now()
	id, err := s.ids.Allocate(ctx, idgen.KindPayment, now)
	if err != nil {
		return nil, err
	}
	p := &Payment{
		PaymentID:   id,
		PatientID:   req.PatientID,
		VisitID:     req.VisitID,
		AdmissionID: req.AdmissionID,
		Kind:        req.Kind,
		Mode:        req.Mode,
		Amount:      req.Amount,
		ReceivedBy:  auth.ActorIDFromContext(ctx),
		ReceivedAt:  now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, paymentID string) (*Payment, error) {
	return s.repo.GetByID(ctx, paymentID)
}

func (s *Service) ListByAdmission(ctx context.Context, admissionID string) ([]*Payment, error) {
	return s.repo.ListByAdmission(ctx, admissionID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Payment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// AdvanceTotal sums the deposits held against an admission.
func (s *Service) AdvanceTotal(ctx context.Context, admissionID string) (decimal.Decimal, error) {
	return s.repo.AdvanceTotal(ctx, admissionID)
}
