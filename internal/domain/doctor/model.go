package doctor

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Doctor maps to the doctors table. Consultation fees are captured per
// visit kind so a follow-up can be priced below a fresh consultation.
// Visits freeze the applicable fee at creation time, so changing a fee
// here never reprices an existing visit.
type Doctor struct {
	DoctorID       string          `db:"doctor_id" json:"doctor_id"`
	Name           string          `db:"name" json:"name"`
	Specialization string          `db:"specialization" json:"specialization"`
	NewVisitFee    decimal.Decimal `db:"new_visit_fee" json:"new_visit_fee"`
	FollowUpFee    decimal.Decimal `db:"follow_up_fee" json:"follow_up_fee"`
	Status         Status          `db:"status" json:"status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
