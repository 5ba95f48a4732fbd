package patient

import "time"

// Gender is a closed set; anything else is rejected at the service layer.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Patient maps to the patients table. Patients are registered once and
// corrected in place; they are never deleted because visits, admissions and
// charges reference them by id.
type Patient struct {
	PatientID    string    `db:"patient_id" json:"patient_id"`
	Name         string    `db:"name" json:"name"`
	Age          int       `db:"age" json:"age"`
	Gender       Gender    `db:"gender" json:"gender"`
	Address      string    `db:"address" json:"address"`
	MobileNumber string    `db:"mobile_number" json:"mobile_number"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
