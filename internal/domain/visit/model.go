package visit

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindNew      Kind = "NEW"
	KindFollowUp Kind = "FOLLOW_UP"
)

func (k Kind) Valid() bool {
	return k == KindNew || k == KindFollowUp
}

type PaymentMode string

const (
	ModeCash PaymentMode = "CASH"
	ModeUPI  PaymentMode = "UPI"
	ModeCard PaymentMode = "CARD"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case ModeCash, ModeUPI, ModeCard:
		return true
	}
	return false
}

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// CanTransition reports whether a visit may move from its current status
// to next. Completed and cancelled visits are terminal.
func (s Status) CanTransition(next Status) bool {
	if s != StatusActive {
		return false
	}
	return next == StatusCompleted || next == StatusCancelled
}

// Visit maps to the visits table. SerialNumber is the patient's queue
// position for (doctor, visit date): the first visit of the day is 1,
// with no gaps and no duplicates. Fee is frozen from the doctor's tier
// at creation; later fee changes never reprice a visit.
type Visit struct {
	VisitID      string          `db:"visit_id" json:"visit_id"`
	PatientID    string          `db:"patient_id" json:"patient_id"`
	DoctorID     string          `db:"doctor_id" json:"doctor_id"`
	VisitDate    time.Time       `db:"visit_date" json:"visit_date"`
	SerialNumber int             `db:"serial_number" json:"serial_number"`
	Kind         Kind            `db:"kind" json:"kind"`
	Fee          decimal.Decimal `db:"fee" json:"fee"`
	PaymentMode  PaymentMode     `db:"payment_mode" json:"payment_mode"`
	Status       Status          `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
