package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

type ChargeKind string

const (
	ChargeInvestigation ChargeKind = "INVESTIGATION"
	ChargeProcedure     ChargeKind = "PROCEDURE"
	ChargeService       ChargeKind = "SERVICE"
	ChargeOT            ChargeKind = "OT"
	ChargeManual        ChargeKind = "MANUAL"
	ChargeBed           ChargeKind = "BED"
)

func (k ChargeKind) Valid() bool {
	switch k {
	case ChargeInvestigation, ChargeProcedure, ChargeService, ChargeOT, ChargeManual, ChargeBed:
		return true
	}
	return false
}

// Charge is one line in the charge ledger. Exactly one of VisitID and
// AdmissionID is set; a charge belongs to an outpatient visit or an
// inpatient stay, never both. Amount is always Quantity times UnitPrice,
// and owner totals are recomputed from the rows on every read so there
// is no stored total to drift.
type Charge struct {
	ChargeID    string          `db:"charge_id" json:"charge_id"`
	VisitID     string          `db:"visit_id" json:"visit_id,omitempty"`
	AdmissionID string          `db:"admission_id" json:"admission_id,omitempty"`
	Kind        ChargeKind      `db:"kind" json:"kind"`
	Description string          `db:"description" json:"description"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	CreatedBy   string          `db:"created_by" json:"created_by"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Owner names the record a set of charges hangs off.
type Owner struct {
	VisitID     string `json:"visit_id,omitempty"`
	AdmissionID string `json:"admission_id,omitempty"`
}

func (o Owner) valid() bool {
	return (o.VisitID == "") != (o.AdmissionID == "")
}

// ServiceHours converts a timed service window to billable hours. Any
// started hour bills in full, so 90 minutes is 2 hours.
func ServiceHours(start, end time.Time) int {
	d := end.Sub(start)
	hours := int(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	return hours
}
