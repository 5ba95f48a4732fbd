package visit

import (
	"context"
	"time"

	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/hmserr"
	"github.com/hms/hms/internal/platform/idgen"
)

// serialRetries bounds how many times a visit creation re-runs after
// losing a serial race. Each retry recomputes MAX+1 in a fresh
// transaction, so under realistic reception traffic one retry settles it.
const serialRetries = 3

// PatientDirectory is the slice of the patient service a visit needs.
type PatientDirectory interface {
	Get(ctx context.Context, patientID string) (*patient.Patient, error)
}

// DoctorDirectory is the slice of the doctor service a visit needs.
type DoctorDirectory interface {
	Get(ctx context.Context, doctorID string) (*doctor.Doctor, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
	doctors  DoctorDirectory
	ids      *idgen.Allocator
	tx       db.Transactor
	now      func() time.Time
}

func NewService(repo Repository, patients PatientDirectory, doctors DoctorDirectory, ids *idgen.Allocator, tx db.Transactor) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		doctors:  doctors,
		ids:      ids,
		tx:       tx,
		now:      time.Now,
	}
}

// CreateRequest carries the reception desk's input for a new visit.
type CreateRequest struct {
	PatientID   string      `json:"patient_id"`
	DoctorID    string      `json:"doctor_id"`
	Kind        Kind        `json:"kind"`
	PaymentMode PaymentMode `json:"payment_mode"`
}

// Create registers a visit, freezing the doctor's current fee and
// allocating the day's next serial number for that doctor. The serial
// read and the visit insert share one transaction; if a concurrent
// creation takes the same serial first, the unique index rejects the
// insert and the whole allocation is retried from scratch.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Visit, error) {
	if !req.Kind.Valid() {
		return nil, hmserr.Validation("kind", "kind must be NEW or FOLLOW_UP")
	}
	if !req.PaymentMode.Valid() {
		return nil, hmserr.Validation("payment_mode", "payment mode must be CASH, UPI or CARD")
	}

	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		return nil, err
	}
	doc, err := s.doctors.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doc.Status != doctor.StatusActive {
		return nil, hmserr.Conflict(req.DoctorID, "doctor is not accepting visits")
	}

	fee := doc.NewVisitFee
	if req.Kind == KindFollowUp {
		fee = doc.FollowUpFee
	}

	now := s.now()
	visitDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var created *Visit
	for attempt := 0; attempt < serialRetries; attempt++ {
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			serial, err := s.repo.NextSerial(ctx, req.DoctorID, visitDate)
			if err != nil {
				return err
			}
			id, err := s.ids.Allocate(ctx, idgen.KindVisit, now)
			if err != nil {
				return err
			}
			v := &Visit{
				VisitID:      id,
				PatientID:    req.PatientID,
				DoctorID:     req.DoctorID,
				VisitDate:    visitDate,
				SerialNumber: serial,
				Kind:         req.Kind,
				Fee:          fee,
				PaymentMode:  req.PaymentMode,
				Status:       StatusActive,
			}
			if err := s.repo.Create(ctx, v); err != nil {
				return err
			}
			created = v
			return nil
		})
		if err == nil {
			return created, nil
		}
		if !db.IsUniqueViolation(err) {
			return nil, err
		}
	}
	return nil, hmserr.Conflict(req.DoctorID, "serial allocation contended, retry the visit")
}

func (s *Service) Get(ctx context.Context, visitID string) (*Visit, error) {
	return s.repo.GetByID(ctx, visitID)
}

// Complete closes out an active visit after the consultation.
func (s *Service) Complete(ctx context.Context, visitID string) error {
	return s.transition(ctx, visitID, StatusCompleted)
}

// Cancel voids an active visit. The serial number is not reissued; the
// day's queue keeps its gap rather than renumbering patients already told
// their position.
func (s *Service) Cancel(ctx context.Context, visitID string) error {
	return s.transition(ctx, visitID, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, visitID string, next Status) error {
	v, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return err
	}
	if !v.Status.CanTransition(next) {
		return hmserr.Conflict(visitID, "visit is "+string(v.Status)+", cannot move to "+string(next))
	}
	return s.repo.UpdateStatus(ctx, visitID, next)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// Queue returns the day's visits for a doctor in serial order.
func (s *Service) Queue(ctx context.Context, doctorID string, date time.Time) ([]*Visit, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return s.repo.ListByDoctorDate(ctx, doctorID, day)
}
