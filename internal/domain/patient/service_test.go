package patient

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hms/hms/internal/platform/hmserr"
	"github.com/hms/hms/internal/platform/idgen"
)

// -- Mock Repository --

type mockRepo struct {
	patients map[string]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[string]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	for _, existing := range m.patients {
		if existing.MobileNumber == p.MobileNumber {
			return hmserr.Conflict(p.MobileNumber, "mobile number already registered")
		}
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.patients[p.PatientID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, patientID string) (*Patient, error) {
	p, ok := m.patients[patientID]
	if !ok {
		return nil, hmserr.NotFound(patientID, "patient not found")
	}
	return p, nil
}

func (m *mockRepo) GetByMobile(_ context.Context, mobile string) (*Patient, error) {
	for _, p := range m.patients {
		if p.MobileNumber == mobile {
			return p, nil
		}
	}
	return nil, hmserr.NotFound("", "patient not found")
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.PatientID]; !ok {
		return hmserr.NotFound(p.PatientID, "patient not found")
	}
	p.UpdatedAt = time.Now()
	m.patients[p.PatientID] = p
	return nil
}

func (m *mockRepo) Search(_ context.Context, term string, limit, offset int) ([]*Patient, int, error) {
	var result []*Patient
	for _, p := range m.patients {
		if term == "" || strings.Contains(p.Name, term) ||
			strings.Contains(p.PatientID, term) || strings.Contains(p.MobileNumber, term) {
			result = append(result, p)
		}
	}
	return result, len(result), nil
}

// -- Mock Counter Store --

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

func newService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, idgen.NewAllocator(&memCounterStore{})), repo
}

// -- Tests --

func TestRegister_AssignsPatientID(t *testing.T) {
	svc, _ := newService()
	p := &Patient{Name: "Asha Rao", Age: 34, Gender: GenderFemale, MobileNumber: "9876543210"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !strings.HasPrefix(p.PatientID, "P") {
		t.Errorf("patient id %q missing P prefix", p.PatientID)
	}
	if len(p.PatientID) != len("P")+8+4 {
		t.Errorf("patient id %q has wrong length", p.PatientID)
	}
}

func TestRegister_DuplicateMobile(t *testing.T) {
	svc, _ := newService()
	first := &Patient{Name: "Asha Rao", Age: 34, Gender: GenderFemale, MobileNumber: "9876543210"}
	if err := svc.Register(context.Background(), first); err != nil {
		t.Fatalf("Register: %v", err)
	}
	second := &Patient{Name: "Someone Else", Age: 40, Gender: GenderMale, MobileNumber: "9876543210"}
	err := svc.Register(context.Background(), second)
	if !hmserr.IsKind(err, hmserr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newService()
	cases := []struct {
		name  string
		p     *Patient
		field string
	}{
		{"empty name", &Patient{Age: 30, Gender: GenderMale, MobileNumber: "9000000001"}, "name"},
		{"negative age", &Patient{Name: "X", Age: -1, Gender: GenderMale, MobileNumber: "9000000002"}, "age"},
		{"age too high", &Patient{Name: "X", Age: 151, Gender: GenderMale, MobileNumber: "9000000003"}, "age"},
		{"bad gender", &Patient{Name: "X", Age: 30, Gender: "UNKNOWN", MobileNumber: "9000000004"}, "gender"},
		{"empty mobile", &Patient{Name: "X", Age: 30, Gender: GenderMale}, "mobile_number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Register(context.Background(), tc.p)
			if !hmserr.IsKind(err, hmserr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var he *hmserr.Error
			if !errors.As(err, &he) || he.Field != tc.field {
				t.Errorf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestUpdate_KeepsID(t *testing.T) {
	svc, repo := newService()
	p := &Patient{Name: "Asha Rao", Age: 34, Gender: GenderFemale, MobileNumber: "9876543210"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	id := p.PatientID

	updated := &Patient{PatientID: id, Name: "Asha R Rao", Age: 35, Gender: GenderFemale, MobileNumber: "9876543210", Address: "14 Lake Rd"}
	if err := svc.Update(context.Background(), updated); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), id)
	if got.Name != "Asha R Rao" || got.Address != "14 Lake Rd" {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestUpdate_UnknownPatient(t *testing.T) {
	svc, _ := newService()
	err := svc.Update(context.Background(), &Patient{PatientID: "P202601010001", Name: "X", Age: 30, Gender: GenderMale, MobileNumber: "9000000000"})
	if !hmserr.IsKind(err, hmserr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSearch_MatchesIDNameMobile(t *testing.T) {
	svc, _ := newService()
	a := &Patient{Name: "Asha Rao", Age: 34, Gender: GenderFemale, MobileNumber: "9876543210"}
	b := &Patient{Name: "Vik Mehta", Age: 50, Gender: GenderMale, MobileNumber: "9123456789"}
	for _, p := range []*Patient{a, b} {
		if err := svc.Register(context.Background(), p); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	got, total, err := svc.Search(context.Background(), "Asha", 20, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 || len(got) != 1 || got[0].MobileNumber != "9876543210" {
		t.Errorf("search by name returned %d rows", total)
	}

	_, total, _ = svc.Search(context.Background(), "9123", 20, 0)
	if total != 1 {
		t.Errorf("search by mobile returned %d rows", total)
	}
}
