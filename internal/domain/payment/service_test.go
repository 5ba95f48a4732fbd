package payment

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/hmserr"
	"github.com/hms/hms/internal/platform/idgen"
)

type mockRepo struct {
	payments []*Payment
}

func (m *mockRepo) Create(_ context.Context, p *Payment) error {
	m.payments = append(m.payments, p)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, paymentID string) (*Payment, error) {
	for _, p := range m.payments {
		if p.PaymentID == paymentID {
			return p, nil
		}
	}
	return nil, hmserr.NotFound(paymentID, "payment not found")
}

func (m *mockRepo) ListByAdmission(_ context.Context, admissionID string) ([]*Payment, error) {
	var result []*Payment
	for _, p := range m.payments {
		if p.AdmissionID == admissionID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]*Payment, int, error) {
	var result []*Payment
	for _, p := range m.payments {
		if p.PatientID == patientID {
			result = append(result, p)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) AdvanceTotal(_ context.Context, admissionID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range m.payments {
		if p.AdmissionID == admissionID && p.Kind == KindAdvance {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
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

func fixture() (*Service, *mockRepo) {
	repo := &mockRepo{}
	return NewService(repo, idgen.NewAllocator(&memCounterStore{})), repo
}

func TestRecord_AssignsIDAndActor(t *testing.T) {
	svc, _ := fixture()
	ctx := auth.WithActor(context.Background(), "U20260115002", auth.RoleReception)

	p, err := svc.Record(ctx, RecordRequest{
		PatientID:   "P202601150001",
		AdmissionID: "IPD202601150001",
		Kind:        KindAdvance,
		Mode:        ModeCash,
		Amount:      decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !strings.HasPrefix(p.PaymentID, "PAY") {
		t.Errorf("payment id %q missing PAY prefix", p.PaymentID)
	}
	if p.ReceivedBy != "U20260115002" {
		t.Errorf("received_by = %q", p.ReceivedBy)
	}
}

func TestRecord_Validation(t *testing.T) {
	svc, _ := fixture()
	base := RecordRequest{
		PatientID: "P202601150001",
		Kind:      KindVisit,
		Mode:      ModeCash,
		Amount:    decimal.NewFromInt(300),
	}

	bad := base
	bad.Kind = "TIP"
	if _, err := svc.Record(context.Background(), bad); !hmserr.IsKind(err, hmserr.KindValidation) {
		t.Errorf("bad kind: got %v", err)
	}

	bad = base
	bad.Mode = "CHEQUE"
	if _, err := svc.Record(context.Background(), bad); !hmserr.IsKind(err, hmserr.KindValidation) {
		t.Errorf("bad mode: got %v", err)
	}

	bad = base
	bad.Amount = decimal.Zero
	if _, err := svc.Record(context.Background(), bad); !hmserr.IsKind(err, hmserr.KindValidation) {
		t.Errorf("zero amount: got %v", err)
	}

	bad = base
	bad.Kind = KindAdvance
	if _, err := svc.Record(context.Background(), bad); !hmserr.IsKind(err, hmserr.KindValidation) {
		t.Errorf("advance without admission: got %v", err)
	}
}

func TestAdvanceTotal_OnlyAdvancesCount(t *testing.T) {
	svc, _ := fixture()
	ctx := context.Background()

	requests := []RecordRequest{
		{PatientID: "P1", AdmissionID: "IPD1", Kind: KindAdvance, Mode: ModeCash, Amount: decimal.NewFromInt(600)},
		{PatientID: "P1", AdmissionID: "IPD1", Kind: KindAdvance, Mode: ModeUPI, Amount: decimal.NewFromInt(400)},
		{PatientID: "P1", AdmissionID: "IPD1", Kind: KindSettlement, Mode: ModeCash, Amount: decimal.NewFromInt(2000)},
		{PatientID: "P2", AdmissionID: "IPD2", Kind: KindAdvance, Mode: ModeCash, Amount: decimal.NewFromInt(999)},
	}
	for _, req := range requests {
		if _, err := svc.Record(ctx, req); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	total, err := svc.AdvanceTotal(ctx, "IPD1")
	if err != nil {
		t.Fatalf("AdvanceTotal: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("advance total = %s, want 1000", total)
	}
}
