package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/hmserr"
	"github.com/hms/hms/internal/platform/idgen"
)

// OwnerDirectory confirms the record a charge is being attached to
// actually exists. Charges against unknown visits or admissions are
// rejected up front rather than discovered at settlement.
type OwnerDirectory interface {
	VisitExists(ctx context.Context, visitID string) error
	AdmissionExists(ctx context.Context, admissionID string) error
}

// Recorder appends to the audit ledger on the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, action, entityKind, entityID string, oldValue, newValue interface{}) error
}

type Service struct {
	repo   Repository
	owners OwnerDirectory
	audit  Recorder
	ids    *idgen.Allocator
	tx     db.Transactor
	now    func() time.Time
}

func NewService(repo Repository, owners OwnerDirectory, audit Recorder, ids *idgen.Allocator, tx db.Transactor) *Service {
	return &Service{
		repo:   repo,
		owners: owners,
		audit:  audit,
		ids:    ids,
		tx:     tx,
		now:    time.Now,
	}
}

// ChargeInput is one requested ledger line.
type ChargeInput struct {
	Kind        ChargeKind      `json:"kind"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (s *Service) checkOwner(ctx context.Context, owner Owner) error {
	if !owner.valid() {
		return hmserr.Validation("owner", "charge must belong to exactly one visit or admission")
	}
	if owner.VisitID != "" {
		return s.owners.VisitExists(ctx, owner.VisitID)
	}
	return s.owners.AdmissionExists(ctx, owner.AdmissionID)
}

func validateInput(in ChargeInput) error {
	if !in.Kind.Valid() {
		return hmserr.Validation("kind", "unknown charge kind "+string(in.Kind))
	}
	if in.Description == "" {
		return hmserr.Validation("description", "description is required")
	}
	if in.Quantity <= 0 {
		return hmserr.Validation("quantity", "quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return hmserr.Validation("unit_price", "unit price must not be negative")
	}
	return nil
}

// AddCharges appends a batch of ledger lines to one owner. The batch is
// all or nothing. Manual charges require the admin role; the privilege
// check runs before anything is written, and every manual line gets an
// audit entry on the same transaction as its insert.
func (s *Service) AddCharges(ctx context.Context, owner Owner, inputs []ChargeInput) ([]*Charge, error) {
	if len(inputs) == 0 {
		return nil, hmserr.Validation("charges", "at least one charge is required")
	}
	if err := s.checkOwner(ctx, owner); err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if err := validateInput(in); err != nil {
			return nil, err
		}
		if in.Kind == ChargeManual && !auth.IsPrivileged(ctx) {
			return nil, hmserr.Forbidden("manual charges require the admin role")
		}
	}

	actor := auth.ActorIDFromContext(ctx)
	now := s.now()
	var created []*Charge
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, in := range inputs {
			id, err := s.ids.Allocate(ctx, idgen.KindCharge, now)
			if err != nil {
				return err
			}
			c := &Charge{
				ChargeID:    id,
				VisitID:     owner.VisitID,
				AdmissionID: owner.AdmissionID,
				Kind:        in.Kind,
				Description: in.Description,
				Quantity:    in.Quantity,
				UnitPrice:   in.UnitPrice,
				Amount:      in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
				CreatedBy:   actor,
			}
			if err := s.repo.Create(ctx, c); err != nil {
				return err
			}
			if in.Kind == ChargeManual {
				if err := s.audit.Record(ctx, "CREATE", "charge", c.ChargeID, nil, c); err != nil {
					return err
				}
			}
			created = append(created, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ServiceChargeInput is a service (oxygen, monitoring, nursing) priced
// per hour. With a start and end the hours are derived from the window;
// without times the caller supplies the hour count directly.
type ServiceChargeInput struct {
	Description string          `json:"description"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	Quantity    int             `json:"quantity"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     time.Time       `json:"ended_at"`
}

// AddServiceCharges bills services by the started hour. A window that
// ends at or before its start is rejected; an untimed line falls back to
// its explicit quantity.
func (s *Service) AddServiceCharges(ctx context.Context, owner Owner, inputs []ServiceChargeInput) ([]*Charge, error) {
	charges := make([]ChargeInput, 0, len(inputs))
	for _, in := range inputs {
		if in.HourlyRate.IsNegative() {
			return nil, hmserr.Validation("hourly_rate", "hourly rate must not be negative")
		}
		quantity := in.Quantity
		switch {
		case in.StartedAt.IsZero() && in.EndedAt.IsZero():
			if quantity <= 0 {
				return nil, hmserr.Validation("quantity", "quantity must be positive when no service window is given")
			}
		case in.StartedAt.IsZero() || in.EndedAt.IsZero():
			return nil, hmserr.Validation("started_at", "a service window needs both start and end")
		default:
			if !in.EndedAt.After(in.StartedAt) {
				return nil, hmserr.Validation("ended_at", "service end must be after its start")
			}
			quantity = ServiceHours(in.StartedAt, in.EndedAt)
		}
		charges = append(charges, ChargeInput{
			Kind:        ChargeService,
			Description: in.Description,
			Quantity:    quantity,
			UnitPrice:   in.HourlyRate,
		})
	}
	return s.AddCharges(ctx, owner, charges)
}

func (s *Service) Get(ctx context.Context, chargeID string) (*Charge, error) {
	return s.repo.GetByID(ctx, chargeID)
}

// UpdateCharge amends a ledger line, recomputing its amount from the
// patched quantity and price. Editing a manual line requires the admin
// role, checked before anything is written, and lands its before and
// after snapshots in the audit ledger on the same transaction as the
// update.
func (s *Service) UpdateCharge(ctx context.Context, chargeID string, in ChargeInput) (*Charge, error) {
	existing, err := s.repo.GetByID(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	if existing.Kind == ChargeManual && !auth.IsPrivileged(ctx) {
		return nil, hmserr.Forbidden("editing manual charges requires the admin role")
	}
	if in.Description == "" {
		return nil, hmserr.Validation("description", "description is required")
	}
	if in.Quantity <= 0 {
		return nil, hmserr.Validation("quantity", "quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, hmserr.Validation("unit_price", "unit price must not be negative")
	}

	before := *existing
	updated := *existing
	updated.Description = in.Description
	updated.Quantity = in.Quantity
	updated.UnitPrice = in.UnitPrice
	updated.Amount = in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, &updated); err != nil {
			return err
		}
		if existing.Kind != ChargeManual {
			return nil
		}
		return s.audit.Record(ctx, "UPDATE", "charge", chargeID, &before, &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCharge removes a ledger line; totals reflect the removal on the
// next read. Deleting a manual line requires the admin role and leaves
// the removal on the audit ledger.
func (s *Service) DeleteCharge(ctx context.Context, chargeID string) error {
	existing, err := s.repo.GetByID(ctx, chargeID)
	if err != nil {
		return err
	}
	if existing.Kind == ChargeManual && !auth.IsPrivileged(ctx) {
		return hmserr.Forbidden("deleting manual charges requires the admin role")
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, chargeID); err != nil {
			return err
		}
		if existing.Kind != ChargeManual {
			return nil
		}
		return s.audit.Record(ctx, "DELETE", "charge", chargeID, existing, nil)
	})
}

func (s *Service) ListFor(ctx context.Context, owner Owner) ([]*Charge, error) {
	if err := s.checkOwner(ctx, owner); err != nil {
		return nil, err
	}
	return s.repo.ListFor(ctx, owner)
}

// TotalFor recomputes the owner's charge total from the ledger rows.
func (s *Service) TotalFor(ctx context.Context, owner Owner) (decimal.Decimal, error) {
	if err := s.checkOwner(ctx, owner); err != nil {
		return decimal.Zero, err
	}
	return s.repo.TotalFor(ctx, owner)
}
