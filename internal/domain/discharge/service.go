package discharge

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/ipd"
	"github.com/hms/hms/internal/domain/visit"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
)

// AdmissionCloser is the slice of the inpatient service settlement
// drives: reading the stay and closing it.
type AdmissionCloser interface {
	GetBed(ctx context.Context, bedID string) (*ipd.Bed, error)
	Discharge(ctx context.Context, admissionID string, at time.Time) (*ipd.Admission, error)
}

// VisitDirectory resolves the consultation the stay started from.
type VisitDirectory interface {
	Get(ctx context.Context, visitID string) (*visit.Visit, error)
}

// ChargeLedger recomputes the stay's charge total.
type ChargeLedger interface {
	TotalFor(ctx context.Context, owner billing.Owner) (decimal.Decimal, error)
}

// AdvanceLedger sums the deposits held against the stay.
type AdvanceLedger interface {
	AdvanceTotal(ctx context.Context, admissionID string) (decimal.Decimal, error)
}

type Service struct {
	bills      Repository
	admissions AdmissionCloser
	visits     VisitDirectory
	charges    ChargeLedger
	advances   AdvanceLedger
	tx         db.Transactor
	now        func() time.Time
}

func NewService(bills Repository, admissions AdmissionCloser, visits VisitDirectory, charges ChargeLedger, advances AdvanceLedger, tx db.Transactor) *Service {
	return &Service{
		bills:      bills,
		admissions: admissions,
		visits:     visits,
		charges:    charges,
		advances:   advances,
		tx:         tx,
		now:        time.Now,
	}
}

// Settle discharges the admission and produces its itemized bill in one
// transaction. The bill folds in the originating consultation fee, the
// admission file charge, bed days priced at the final bed's rate, the
// recomputed charge total, and deducts advances. An already discharged
// admission conflicts before anything is written.
func (s *Service) Settle(ctx context.Context, admissionID string) (*Bill, error) {
	now := s.now()
	var bill *Bill

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		adm, err := s.admissions.Discharge(ctx, admissionID, now)
		if err != nil {
			return err
		}

		visitFee := decimal.Zero
		if adm.VisitID != "" {
			v, err := s.visits.Get(ctx, adm.VisitID)
			if err != nil {
				return err
			}
			visitFee = v.Fee
		}

		bed, err := s.admissions.GetBed(ctx, adm.BedID)
		if err != nil {
			return err
		}
		days := ipd.StayDays(adm.AdmittedAt, now)
		bedCharge := bed.DailyRate.Mul(decimal.NewFromInt(int64(days)))

		chargesTotal, err := s.charges.TotalFor(ctx, billing.Owner{AdmissionID: admissionID})
		if err != nil {
			return err
		}
		advanceTotal, err := s.advances.AdvanceTotal(ctx, admissionID)
		if err != nil {
			return err
		}

		gross := visitFee.Add(adm.FileCharge).Add(bedCharge).Add(chargesTotal)
		bill = &Bill{
			AdmissionID:  admissionID,
			PatientID:    adm.PatientID,
			VisitFee:     visitFee,
			FileCharge:   adm.FileCharge,
			BedDays:      days,
			BedRate:      bed.DailyRate,
			BedCharge:    bedCharge,
			ChargesTotal: chargesTotal,
			AdvanceTotal: advanceTotal,
			Net:          gross.Sub(advanceTotal),
			SettledBy:    auth.ActorIDFromContext(ctx),
			SettledAt:    now,
		}
		return s.bills.Save(ctx, bill)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("admission_id", admissionID).
		Str("net", bill.Net.String()).
		Bool("credit_due", bill.CreditDue()).
		Msg("admission settled")
	return bill, nil
}

// Bill returns a previously settled bill for reprinting.
func (s *Service) Bill(ctx context.Context, admissionID string) (*Bill, error) {
	return s.bills.GetByAdmission(ctx, admissionID)
}
