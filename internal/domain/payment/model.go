package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	// KindVisit is the consultation fee collected when a visit is created.
	KindVisit Kind = "VISIT"
	// KindAdvance is a deposit against an inpatient stay, deducted from
	// the settlement at discharge.
	KindAdvance Kind = "ADVANCE"
	// KindSettlement is the final payment clearing a discharge bill.
	KindSettlement Kind = "SETTLEMENT"
	// KindRefund returns money to the patient when advances exceeded the
	// bill.
	KindRefund Kind = "REFUND"
)

func (k Kind) Valid() bool {
	switch k {
	case KindVisit, KindAdvance, KindSettlement, KindRefund:
		return true
	}
	return false
}

type Mode string

const (
	ModeCash Mode = "CASH"
	ModeUPI  Mode = "UPI"
	ModeCard Mode = "CARD"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeCash, ModeUPI, ModeCard:
		return true
	}
	return false
}

// Payment maps to the payments table. Rows are append-only receipts; a
// wrong payment is corrected with a refund row, never by editing.
type Payment struct {
	PaymentID   string          `db:"payment_id" json:"payment_id"`
	PatientID   string          `db:"patient_id" json:"patient_id"`
	VisitID     string          `db:"visit_id" json:"visit_id,omitempty"`
	AdmissionID string          `db:"admission_id" json:"admission_id,omitempty"`
	Kind        Kind            `db:"kind" json:"kind"`
	Mode        Mode            `db:"mode" json:"mode"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	ReceivedBy  string          `db:"received_by" json:"received_by"`
	ReceivedAt  time.Time       `db:"received_at" json:"received_at"`
}
