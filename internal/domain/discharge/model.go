package discharge

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill is the itemized discharge settlement for one admission. Every
// component is kept so the receipt can be reprinted without recomputing,
// and Net is always the sum of the components minus the advances. A
// negative Net means the hospital owes the patient the difference.
type Bill struct {
	AdmissionID  string          `db:"admission_id" json:"admission_id"`
	PatientID    string          `db:"patient_id" json:"patient_id"`
	VisitFee     decimal.Decimal `db:"visit_fee" json:"visit_fee"`
	FileCharge   decimal.Decimal `db:"file_charge" json:"file_charge"`
	BedDays      int             `db:"bed_days" json:"bed_days"`
	BedRate      decimal.Decimal `db:"bed_rate" json:"bed_rate"`
	BedCharge    decimal.Decimal `db:"bed_charge" json:"bed_charge"`
	ChargesTotal decimal.Decimal `db:"charges_total" json:"charges_total"`
	AdvanceTotal decimal.Decimal `db:"advance_total" json:"advance_total"`
	Net          decimal.Decimal `db:"net" json:"net"`
	SettledBy    string          `db:"settled_by" json:"settled_by"`
	SettledAt    time.Time       `db:"settled_at" json:"settled_at"`
}

// CreditDue reports whether advances exceeded the bill.
func (b *Bill) CreditDue() bool {
	return b.Net.IsNegative()
}

// AmountDue is what the patient still owes, never below zero.
func (b *Bill) AmountDue() decimal.Decimal {
	if b.Net.IsNegative() {
		return decimal.Zero
	}
	return b.Net
}

// Credit is the excess the hospital owes back when advances exceeded the
// bill, zero otherwise.
func (b *Bill) Credit() decimal.Decimal {
	if b.Net.IsNegative() {
		return b.Net.Neg()
	}
	return decimal.Zero
}
