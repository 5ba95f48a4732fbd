package ipd

import (
	"time"

	"github.com/shopspring/decimal"
)

type WardClass string

const (
	WardGeneral     WardClass = "GENERAL"
	WardSemiPrivate WardClass = "SEMI_PRIVATE"
	WardPrivate     WardClass = "PRIVATE"
)

func (w WardClass) Valid() bool {
	switch w {
	case WardGeneral, WardSemiPrivate, WardPrivate:
		return true
	}
	return false
}

type BedStatus string

const (
	BedAvailable   BedStatus = "AVAILABLE"
	BedOccupied    BedStatus = "OCCUPIED"
	BedMaintenance BedStatus = "MAINTENANCE"
)

// CanTransition enumerates the legal bed status moves. Any bed can be
// flagged for maintenance; only an available bed can be occupied, and a
// maintenance bed returns to the pool by operator action only.
func (s BedStatus) CanTransition(next BedStatus) bool {
	switch s {
	case BedAvailable:
		return next == BedOccupied || next == BedMaintenance
	case BedOccupied:
		return next == BedAvailable || next == BedMaintenance
	case BedMaintenance:
		return next == BedAvailable
	}
	return false
}

// Bed maps to the beds table. DailyRate is charged per stay day at
// discharge, read from whatever bed the patient ends the stay in.
type Bed struct {
	BedID     string          `db:"bed_id" json:"bed_id"`
	Label     string          `db:"label" json:"label"`
	WardClass WardClass       `db:"ward_class" json:"ward_class"`
	DailyRate decimal.Decimal `db:"daily_rate" json:"daily_rate"`
	Status    BedStatus       `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

type AdmissionStatus string

const (
	StatusAdmitted    AdmissionStatus = "ADMITTED"
	StatusTransferred AdmissionStatus = "TRANSFERRED"
	StatusDischarged  AdmissionStatus = "DISCHARGED"
)

// CanTransition enumerates the legal admission moves. Discharged is
// terminal; a transferred patient can transfer again or be discharged.
func (s AdmissionStatus) CanTransition(next AdmissionStatus) bool {
	switch s {
	case StatusAdmitted, StatusTransferred:
		return next == StatusTransferred || next == StatusDischarged
	case StatusDischarged:
		return false
	}
	return false
}

// Admission maps to the admissions table. VisitID links back to the OPD
// visit that led to the admission so settlement can fold in the
// consultation fee. FileCharge is the fixed admission paperwork charge
// captured once at admit time.
type Admission struct {
	AdmissionID  string          `db:"admission_id" json:"admission_id"`
	PatientID    string          `db:"patient_id" json:"patient_id"`
	DoctorID     string          `db:"doctor_id" json:"doctor_id"`
	VisitID      string          `db:"visit_id" json:"visit_id,omitempty"`
	BedID        string          `db:"bed_id" json:"bed_id"`
	FileCharge   decimal.Decimal `db:"file_charge" json:"file_charge"`
	Status       AdmissionStatus `db:"status" json:"status"`
	AdmittedAt   time.Time       `db:"admitted_at" json:"admitted_at"`
	DischargedAt *time.Time      `db:"discharged_at" json:"discharged_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// BedTransfer records one bed move within an admission. Transfers are
// append-only history; the admission row always carries the current bed.
type BedTransfer struct {
	ID            int64     `db:"id" json:"id"`
	AdmissionID   string    `db:"admission_id" json:"admission_id"`
	FromBedID     string    `db:"from_bed_id" json:"from_bed_id"`
	ToBedID       string    `db:"to_bed_id" json:"to_bed_id"`
	TransferredAt time.Time `db:"transferred_at" json:"transferred_at"`
}

// StayDays converts an admission window to billable days. Any part of a
// calendar day counts as a full day and a same-day discharge still bills
// one day, so the result is the day delta plus one, floored at one.
func StayDays(admittedAt, dischargedAt time.Time) int {
	a := time.Date(admittedAt.Year(), admittedAt.Month(), admittedAt.Day(), 0, 0, 0, 0, time.UTC)
	d := time.Date(dischargedAt.Year(), dischargedAt.Month(), dischargedAt.Day(), 0, 0, 0, 0, time.UTC)
	days := int(d.Sub(a).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}
