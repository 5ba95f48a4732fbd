package ipd

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/hmserr"
	"github.com/hms/hms/internal/platform/idgen"
)

// -- Mocks --

type mockBedRepo struct {
	mu   sync.Mutex
	beds map[string]*Bed
}

func newMockBedRepo() *mockBedRepo {
	return &mockBedRepo{beds: make(map[string]*Bed)}
}

func (m *mockBedRepo) Create(_ context.Context, b *Bed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beds[b.BedID] = b
	return nil
}

func (m *mockBedRepo) GetByID(_ context.Context, bedID string) (*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[bedID]
	if !ok {
		return nil, hmserr.NotFound(bedID, "bed not found")
	}
	return b, nil
}

func (m *mockBedRepo) Acquire(ctx context.Context, bedID string) error {
	return m.SetStatus(ctx, bedID, BedAvailable, BedOccupied)
}

func (m *mockBedRepo) Release(ctx context.Context, bedID string) error {
	return m.SetStatus(ctx, bedID, BedOccupied, BedAvailable)
}

func (m *mockBedRepo) SetStatus(_ context.Context, bedID string, from, to BedStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[bedID]
	if !ok {
		return hmserr.NotFound(bedID, "bed not found")
	}
	if b.Status != from {
		return hmserr.Conflict(bedID, "bed is not "+string(from))
	}
	b.Status = to
	return nil
}

func (m *mockBedRepo) List(_ context.Context, status BedStatus, ward WardClass, limit, offset int) ([]*Bed, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Bed
	for _, b := range m.beds {
		if (status == "" || b.Status == status) && (ward == "" || b.WardClass == ward) {
			result = append(result, b)
		}
	}
	return result, len(result), nil
}

type mockAdmissionRepo struct {
	mu         sync.Mutex
	admissions map[string]*Admission
	transfers  []*BedTransfer
}

func newMockAdmissionRepo() *mockAdmissionRepo {
	return &mockAdmissionRepo{admissions: make(map[string]*Admission)}
}

func (m *mockAdmissionRepo) Create(_ context.Context, a *Admission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admissions[a.AdmissionID] = a
	return nil
}

func (m *mockAdmissionRepo) GetByID(_ context.Context, admissionID string) (*Admission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admissions[admissionID]
	if !ok {
		return nil, hmserr.NotFound(admissionID, "admission not found")
	}
	return a, nil
}

func (m *mockAdmissionRepo) Update(_ context.Context, a *Admission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admissions[a.AdmissionID] = a
	return nil
}

func (m *mockAdmissionRepo) ActiveByPatient(_ context.Context, patientID string) (*Admission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admissions {
		if a.PatientID == patientID && a.Status != StatusDischarged {
			return a, nil
		}
	}
	return nil, hmserr.NotFound(patientID, "no active admission for patient")
}

func (m *mockAdmissionRepo) RecordTransfer(_ context.Context, t *BedTransfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = int64(len(m.transfers) + 1)
	m.transfers = append(m.transfers, t)
	return nil
}

func (m *mockAdmissionRepo) Transfers(_ context.Context, admissionID string) ([]*BedTransfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*BedTransfer
	for _, t := range m.transfers {
		if t.AdmissionID == admissionID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockAdmissionRepo) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]*Admission, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Admission
	for _, a := range m.admissions {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

type mockPatients struct{}

func (mockPatients) Get(_ context.Context, id string) (*patient.Patient, error) {
	if id == "P999" {
		return nil, hmserr.NotFound(id, "patient not found")
	}
	return &patient.Patient{PatientID: id}, nil
}

type mockDoctors struct{}

func (mockDoctors) Get(_ context.Context, id string) (*doctor.Doctor, error) {
	return &doctor.Doctor{DoctorID: id, Status: doctor.StatusActive}, nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// serialTx runs transactions one at a time, the way the database
// serialises writers contending on the same rows.
type serialTx struct{ mu sync.Mutex }

func (s *serialTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

type memCounterStore struct {
	mu   sync.Mutex
	vals map[string]int64
}

func (m *memCounterStore) Next(_ context.Context, kind idgen.Kind, bucket string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vals == nil {
		m.vals = make(map[string]int64)
	}
	key := string(kind) + "/" + bucket
	m.vals[key]++
	return m.vals[key], nil
}

func fixture() (*Service, *mockBedRepo, *mockAdmissionRepo) {
	return fixtureWithTx(passthroughTx{})
}

func fixtureWithTx(tx db.Transactor) (*Service, *mockBedRepo, *mockAdmissionRepo) {
	beds := newMockBedRepo()
	admissions := newMockAdmissionRepo()
	svc := NewService(beds, admissions, mockPatients{}, mockDoctors{},
		idgen.NewAllocator(&memCounterStore{}), tx)
	return svc, beds, admissions
}

func addBed(t *testing.T, svc *Service, label string, ward WardClass) *Bed {
	t.Helper()
	b := &Bed{Label: label, WardClass: ward, DailyRate: decimal.NewFromInt(1500)}
	if err := svc.AddBed(context.Background(), b); err != nil {
		t.Fatalf("AddBed: %v", err)
	}
	return b
}

func admit(t *testing.T, svc *Service, patientID, bedID string) *Admission {
	t.Helper()
	adm, err := svc.Admit(context.Background(), AdmitRequest{
		PatientID:  patientID,
		DoctorID:   "D20260115001",
		BedID:      bedID,
		FileCharge: decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	return adm
}

// -- Tests --

func TestAdmit_OccupiesBed(t *testing.T) {
	svc, beds, _ := fixture()
	bed := addBed(t, svc, "G-101", WardGeneral)

	adm := admit(t, svc, "P202601150001", bed.BedID)
	if adm.Status != StatusAdmitted {
		t.Errorf("status = %s, want ADMITTED", adm.Status)
	}

	got, _ := beds.GetByID(context.Background(), bed.BedID)
	if got.Status != BedOccupied {
		t.Errorf("bed status = %s, want OCCUPIED", got.Status)
	}
}

func TestAdmit_BedUnavailable(t *testing.T) {
	svc, _, admissions := fixture()
	bed := addBed(t, svc, "G-101", WardGeneral)
	admit(t, svc, "P202601150001", bed.BedID)

	_, err := svc.Admit(context.Background(), AdmitRequest{
		PatientID: "P202601150002", DoctorID: "D20260115001", BedID: bed.BedID,
	})
	if !hmserr.IsKind(err, hmserr.KindConflict) {
		t.Fatalf("expected conflict for occupied bed, got %v", err)
	}
	// The losing admission left nothing behind.
	if len(admissions.admissions) != 1 {
		t.Errorf("admissions = %d, want 1", len(admissions.admissions))
	}
}

func TestAdmit_PatientAlreadyAdmitted(t *testing.T) {
	svc, _, _ := fixture()
	first := addBed(t, svc, "G-101", WardGeneral)
	second := addBed(t, svc, "G-102", WardGeneral)
	admit(t, svc, "P202601150001", first.BedID)

	_, err := svc.Admit(context.Background(), AdmitRequest{
		PatientID: "P202601150001", DoctorID: "D20260115001", BedID: second.BedID,
	})
	if !hmserr.IsKind(err, hmserr.KindConflict) {
		t.Fatalf("expected conflict for double admission, got %v", err)
	}
}

func TestAdmit_ConcurrentSamePatient(t *testing.T) {
	svc, beds, admissions := fixtureWithTx(&serialTx{})
	first := addBed(t, svc, "G-101", WardGeneral)
	second := addBed(t, svc, "G-102", WardGeneral)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, bedID := range []string{first.BedID, second.BedID} {
		wg.Add(1)
		go func(bedID string) {
			defer wg.Done()
			_, err := svc.Admit(context.Background(), AdmitRequest{
				PatientID: "P202601150001", DoctorID: "D20260115001", BedID: bedID,
			})
			errs <- err
		}(bedID)
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case hmserr.IsKind(err, hmserr.KindConflict):
			lost++
		default:
			t.Fatalf("unexpected admit error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("admits: %d succeeded, %d conflicted, want 1 and 1", won, lost)
	}
	if len(admissions.admissions) != 1 {
		t.Errorf("admissions = %d, want 1", len(admissions.admissions))
	}

	// Only the winner's bed is occupied.
	occupied := 0
	for _, bedID := range []string{first.BedID, second.BedID} {
		b, _ := beds.GetByID(context.Background(), bedID)
		if b.Status == BedOccupied {
			occupied++
		}
	}
	if occupied != 1 {
		t.Errorf("occupied beds = %d, want 1", occupied)
	}
}

func TestTransfer_MovesBedsAtomically(t *testing.T) {
	svc, beds, _ := fixture()
	from := addBed(t, svc, "G-101", WardGeneral)
	to := addBed(t, svc, "P-201", WardPrivate)
	adm := admit(t, svc, "P202601150001", from.BedID)

	moved, err := svc.Transfer(context.Background(), adm.AdmissionID, to.BedID)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if moved.BedID != to.BedID || moved.Status != StatusTransferred {
		t.Errorf("admission after transfer: bed=%s status=%s", moved.BedID, moved.Status)
	}

	oldBed, _ := beds.GetByID(context.Background(), from.BedID)
	newBed, _ := beds.GetByID(context.Background(), to.BedID)
	if oldBed.Status != BedAvailable || newBed.Status != BedOccupied {
		t.Errorf("bed states after transfer: old=%s new=%s", oldBed.Status, newBed.Status)
	}

	transfers, err := svc.Transfers(context.Background(), adm.AdmissionID)
	if err != nil {
		t.Fatalf("Transfers: %v", err)
	}
	if len(transfers) != 1 || transfers[0].FromBedID != from.BedID || transfers[0].ToBedID != to.BedID {
		t.Errorf("transfer history = %+v", transfers)
	}
}

func TestTransfer_TargetOccupied(t *testing.T) {
	svc, beds, _ := fixture()
	a := addBed(t, svc, "G-101", WardGeneral)
	b := addBed(t, svc, "G-102", WardGeneral)
	admA := admit(t, svc, "P202601150001", a.BedID)
	admit(t, svc, "P202601150002", b.BedID)

	_, err := svc.Transfer(context.Background(), admA.AdmissionID, b.BedID)
	if !hmserr.IsKind(err, hmserr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	// The patient stays in the original bed.
	current, _ := svc.Get(context.Background(), admA.AdmissionID)
	if current.BedID != a.BedID {
		t.Errorf("admission bed = %s, want %s", current.BedID, a.BedID)
	}
	origin, _ := beds.GetByID(context.Background(), a.BedID)
	if origin.Status != BedOccupied {
		t.Errorf("origin bed = %s, want OCCUPIED", origin.Status)
	}
}

func TestDischarge_FreesBedOnce(t *testing.T) {
	svc, beds, _ := fixture()
	bed := addBed(t, svc, "G-101", WardGeneral)
	adm := admit(t, svc, "P202601150001", bed.BedID)

	out, err := svc.Discharge(context.Background(), adm.AdmissionID, time.Now())
	if err != nil {
		t.Fatalf("Discharge: %v", err)
	}
	if out.Status != StatusDischarged || out.DischargedAt == nil {
		t.Errorf("admission after discharge: %+v", out)
	}
	freed, _ := beds.GetByID(context.Background(), bed.BedID)
	if freed.Status != BedAvailable {
		t.Errorf("bed status = %s, want AVAILABLE", freed.Status)
	}

	_, err = svc.Discharge(context.Background(), adm.AdmissionID, time.Now())
	if !hmserr.IsKind(err, hmserr.KindConflict) {
		t.Fatalf("expected conflict on second discharge, got %v", err)
	}
}

func TestBedMaintenance(t *testing.T) {
	svc, _, _ := fixture()
	bed := addBed(t, svc, "G-101", WardGeneral)

	if err := svc.SetBedMaintenance(context.Background(), bed.BedID); err != nil {
		t.Fatalf("SetBedMaintenance: %v", err)
	}

	// A maintenance bed cannot be admitted into.
	_, err := svc.Admit(context.Background(), AdmitRequest{
		PatientID: "P202601150001", DoctorID: "D20260115001", BedID: bed.BedID,
	})
	if !hmserr.IsKind(err, hmserr.KindConflict) {
		t.Fatalf("expected conflict admitting to maintenance bed, got %v", err)
	}

	if err := svc.ReturnBedToService(context.Background(), bed.BedID); err != nil {
		t.Fatalf("ReturnBedToService: %v", err)
	}
	admit(t, svc, "P202601150001", bed.BedID)
}

func TestBedMaintenance_OccupiedBedStaysFlagged(t *testing.T) {
	svc, beds, _ := fixture()
	bed := addBed(t, svc, "G-101", WardGeneral)
	adm := admit(t, svc, "P202601150001", bed.BedID)

	// Flagging an occupied bed does not end the stay.
	if err := svc.SetBedMaintenance(context.Background(), bed.BedID); err != nil {
		t.Fatalf("SetBedMaintenance: %v", err)
	}
	if err := svc.SetBedMaintenance(context.Background(), bed.BedID); !hmserr.IsKind(err, hmserr.KindConflict) {
		t.Fatalf("expected conflict flagging twice, got %v", err)
	}

	// On discharge the bed keeps its maintenance flag instead of
	// rejoining the pool.
	if _, err := svc.Discharge(context.Background(), adm.AdmissionID, time.Now()); err != nil {
		t.Fatalf("Discharge: %v", err)
	}
	got, _ := beds.GetByID(context.Background(), bed.BedID)
	if got.Status != BedMaintenance {
		t.Errorf("bed status = %s, want MAINTENANCE", got.Status)
	}
}

func TestAddBed_Validation(t *testing.T) {
	svc, _, _ := fixture()
	err := svc.AddBed(context.Background(), &Bed{Label: "X-1", WardClass: "DELUXE"})
	if !hmserr.IsKind(err, hmserr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
