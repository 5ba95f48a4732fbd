package ipd

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/hmserr"
	"github.com/hms/hms/internal/platform/idgen"
)

type PatientDirectory interface {
	Get(ctx context.Context, patientID string) (*patient.Patient, error)
}

type DoctorDirectory interface {
	Get(ctx context.Context, doctorID string) (*doctor.Doctor, error)
}

type Service struct {
	beds       BedRepository
	admissions AdmissionRepository
	patients   PatientDirectory
	doctors    DoctorDirectory
	ids        *idgen.Allocator
	tx         db.Transactor
	now        func() time.Time
}

func NewService(beds BedRepository, admissions AdmissionRepository, patients PatientDirectory, doctors DoctorDirectory, ids *idgen.Allocator, tx db.Transactor) *Service {
	return &Service{
		beds:       beds,
		admissions: admissions,
		patients:   patients,
		doctors:    doctors,
		ids:        ids,
		tx:         tx,
		now:        time.Now,
	}
}

// -- Beds --

func (s *Service) AddBed(ctx context.Context, b *Bed) error {
	if !b.WardClass.Valid() {
		return hmserr.Validation("ward_class", "ward class must be GENERAL, SEMI_PRIVATE or PRIVATE")
	}
	if b.DailyRate.IsNegative() {
		return hmserr.Validation("daily_rate", "daily rate must not be negative")
	}
	id, err := s.ids.Allocate(ctx, idgen.KindBed, s.now())
	if err != nil {
		return err
	}
	b.BedID = id
	b.Status = BedAvailable
	return s.beds.Create(ctx, b)
}

func (s *Service) GetBed(ctx context.Context, bedID string) (*Bed, error) {
	return s.beds.GetByID(ctx, bedID)
}

// SetBedMaintenance takes a bed out of service. Flagging an occupied
// bed does not end the stay; the bed simply will not return to the pool
// when the patient leaves it.
func (s *Service) SetBedMaintenance(ctx context.Context, bedID string) error {
	bed, err := s.beds.GetByID(ctx, bedID)
	if err != nil {
		return err
	}
	if !bed.Status.CanTransition(BedMaintenance) {
		return hmserr.Conflict(bedID, "bed is already under maintenance")
	}
	return s.beds.SetStatus(ctx, bedID, bed.Status, BedMaintenance)
}

// ReturnBedToService puts a maintenance bed back in the pool.
func (s *Service) ReturnBedToService(ctx context.Context, bedID string) error {
	return s.beds.SetStatus(ctx, bedID, BedMaintenance, BedAvailable)
}

func (s *Service) ListBeds(ctx context.Context, status BedStatus, ward WardClass, limit, offset int) ([]*Bed, int, error) {
	return s.beds.List(ctx, status, ward, limit, offset)
}

// releaseBed frees a bed the patient is leaving. A bed flagged for
// maintenance mid-stay keeps that flag instead of rejoining the pool.
func (s *Service) releaseBed(ctx context.Context, bedID string) error {
	err := s.beds.Release(ctx, bedID)
	if !hmserr.IsKind(err, hmserr.KindConflict) {
		return err
	}
	bed, getErr := s.beds.GetByID(ctx, bedID)
	if getErr != nil {
		return getErr
	}
	if bed.Status == BedMaintenance {
		return nil
	}
	return err
}

// -- Admissions --

type AdmitRequest struct {
	PatientID  string          `json:"patient_id"`
	DoctorID   string          `json:"doctor_id"`
	VisitID    string          `json:"visit_id"`
	BedID      string          `json:"bed_id"`
	FileCharge decimal.Decimal `json:"file_charge"`
}

// Admit opens an inpatient stay. The bed acquisition and the admission
// insert run in one transaction: when two receptions race for the last
// bed, exactly one admission lands and the loser sees a conflict with
// nothing written.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*Admission, error) {
	if req.FileCharge.IsNegative() {
		return nil, hmserr.Validation("file_charge", "file charge must not be negative")
	}
	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		return nil, err
	}
	if _, err := s.doctors.Get(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	now := s.now()
	var adm *Admission
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Checked inside the transaction so two racing admits for the
		// same patient cannot both pass.
		if existing, err := s.admissions.ActiveByPatient(ctx, req.PatientID); err == nil {
			return hmserr.Conflict(existing.AdmissionID, "patient is already admitted")
		} else if !hmserr.IsKind(err, hmserr.KindNotFound) {
			return err
		}
		if err := s.beds.Acquire(ctx, req.BedID); err != nil {
			return err
		}
		id, err := s.ids.Allocate(ctx, idgen.KindAdmission, now)
		if err != nil {
			return err
		}
		adm = &Admission{
			AdmissionID: id,
			PatientID:   req.PatientID,
			DoctorID:    req.DoctorID,
			VisitID:     req.VisitID,
			BedID:       req.BedID,
			FileCharge:  req.FileCharge,
			Status:      StatusAdmitted,
			AdmittedAt:  now,
		}
		return s.admissions.Create(ctx, adm)
	})
	if err != nil {
		return nil, err
	}
	return adm, nil
}

func (s *Service) Get(ctx context.Context, admissionID string) (*Admission, error) {
	return s.admissions.GetByID(ctx, admissionID)
}

// Transfer moves a patient to another bed. Acquiring the target bed,
// releasing the old one and recording the move form one transaction, so
// a failed acquisition leaves the stay untouched.
func (s *Service) Transfer(ctx context.Context, admissionID, toBedID string) (*Admission, error) {
	adm, err := s.admissions.GetByID(ctx, admissionID)
	if err != nil {
		return nil, err
	}
	if !adm.Status.CanTransition(StatusTransferred) {
		return nil, hmserr.Conflict(admissionID, "admission is "+string(adm.Status)+", cannot transfer")
	}
	if toBedID == adm.BedID {
		return nil, hmserr.Validation("bed_id", "patient is already in that bed")
	}

	fromBedID := adm.BedID
	now := s.now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.beds.Acquire(ctx, toBedID); err != nil {
			return err
		}
		if err := s.releaseBed(ctx, fromBedID); err != nil {
			return err
		}
		adm.BedID = toBedID
		adm.Status = StatusTransferred
		if err := s.admissions.Update(ctx, adm); err != nil {
			return err
		}
		return s.admissions.RecordTransfer(ctx, &BedTransfer{
			AdmissionID:   admissionID,
			FromBedID:     fromBedID,
			ToBedID:       toBedID,
			TransferredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return adm, nil
}

// Discharge closes the stay and frees the bed. It joins any transaction
// already open on ctx, which is how settlement makes the status flip and
// the bill atomic. A second discharge hits the terminal-state check and
// conflicts.
func (s *Service) Discharge(ctx context.Context, admissionID string, at time.Time) (*Admission, error) {
	var adm *Admission
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		adm, err = s.admissions.GetByID(ctx, admissionID)
		if err != nil {
			return err
		}
		if !adm.Status.CanTransition(StatusDischarged) {
			return hmserr.Conflict(admissionID, "admission already discharged")
		}
		if err := s.releaseBed(ctx, adm.BedID); err != nil {
			return err
		}
		adm.Status = StatusDischarged
		adm.DischargedAt = &at
		return s.admissions.Update(ctx, adm)
	})
	if err != nil {
		return nil, err
	}
	return adm, nil
}

func (s *Service) Transfers(ctx context.Context, admissionID string) ([]*BedTransfer, error) {
	if _, err := s.admissions.GetByID(ctx, admissionID); err != nil {
		return nil, err
	}
	return s.admissions.Transfers(ctx, admissionID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Admission, int, error) {
	return s.admissions.ListByPatient(ctx, patientID, limit, offset)
}
