package doctor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/platform/hmserr"
	"github.com/hms/hms/internal/platform/idgen"
)

type mockRepo struct {
	doctors map[string]*Doctor
}

func newMockRepo() *mockRepo {
	return &mockRepo{doctors: make(map[string]*Doctor)}
}

func (m *mockRepo) Create(_ context.Context, d *Doctor) error {
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()
	m.doctors[d.DoctorID] = d
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, doctorID string) (*Doctor, error) {
	d, ok := m.doctors[doctorID]
	if !ok {
		return nil, hmserr.NotFound(doctorID, "doctor not found")
	}
	return d, nil
}

func (m *mockRepo) Update(_ context.Context, d *Doctor) error {
	if _, ok := m.doctors[d.DoctorID]; !ok {
		return hmserr.NotFound(d.DoctorID, "doctor not found")
	}
	m.doctors[d.DoctorID] = d
	return nil
}

func (m *mockRepo) List(_ context.Context, activeOnly bool, limit, offset int) ([]*Doctor, int, error) {
	var result []*Doctor
	for _, d := range m.doctors {
		if activeOnly && d.Status != StatusActive {
			continue
		}
		result = append(result, d)
	}
	return result, len(result), nil
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

func newService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, idgen.NewAllocator(&memCounterStore{})), repo
}

func TestRegister_DefaultsToActive(t *testing.T) {
	svc, _ := newService()
	d := &Doctor{
		Name:           "Dr. Iyer",
		Specialization: "Cardiology",
		NewVisitFee:    decimal.NewFromInt(500),
		FollowUpFee:    decimal.NewFromInt(300),
	}
	if err := svc.Register(context.Background(), d); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if d.Status != StatusActive {
		t.Errorf("status = %s, want ACTIVE", d.Status)
	}
	if !strings.HasPrefix(d.DoctorID, "D") || len(d.DoctorID) != len("D")+8+3 {
		t.Errorf("doctor id %q has wrong shape", d.DoctorID)
	}
}

func TestRegister_RejectsNegativeFee(t *testing.T) {
	svc, _ := newService()
	d := &Doctor{Name: "Dr. Iyer", NewVisitFee: decimal.NewFromInt(-1)}
	err := svc.Register(context.Background(), d)
	if !hmserr.IsKind(err, hmserr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeactivate_OnceOnly(t *testing.T) {
	svc, _ := newService()
	d := &Doctor{Name: "Dr. Iyer", NewVisitFee: decimal.NewFromInt(500), FollowUpFee: decimal.NewFromInt(300)}
	if err := svc.Register(context.Background(), d); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.Deactivate(context.Background(), d.DoctorID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	err := svc.Deactivate(context.Background(), d.DoctorID)
	if !hmserr.IsKind(err, hmserr.KindConflict) {
		t.Fatalf("expected conflict on second deactivate, got %v", err)
	}
}

func TestList_ActiveOnly(t *testing.T) {
	svc, _ := newService()
	active := &Doctor{Name: "Dr. A", NewVisitFee: decimal.NewFromInt(500), FollowUpFee: decimal.NewFromInt(300)}
	inactive := &Doctor{Name: "Dr. B", NewVisitFee: decimal.NewFromInt(400), FollowUpFee: decimal.NewFromInt(200)}
	for _, d := range []*Doctor{active, inactive} {
		if err := svc.Register(context.Background(), d); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if err := svc.Deactivate(context.Background(), inactive.DoctorID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	doctors, total, err := svc.List(context.Background(), true, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || doctors[0].DoctorID != active.DoctorID {
		t.Errorf("active list returned %d rows", total)
	}
}
