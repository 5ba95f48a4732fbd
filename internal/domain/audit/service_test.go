package audit

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/idgen"
)

type mockRepo struct {
	entries []*Entry
}

func (m *mockRepo) Append(_ context.Context, e *Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRepo) List(_ context.Context, q Query) ([]*Entry, int, error) {
	var result []*Entry
	for _, e := range m.entries {
		if q.EntityKind != "" && e.EntityKind != q.EntityKind {
			continue
		}
		if q.EntityID != "" && e.EntityID != q.EntityID {
			continue
		}
		if q.ActorID != "" && e.ActorID != q.ActorID {
			continue
		}
		result = append(result, e)
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

func TestRecord_CapturesActorAndSnapshots(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, idgen.NewAllocator(&memCounterStore{}))
	ctx := auth.WithActor(context.Background(), "U20260115001", auth.RoleAdmin)

	before := map[string]string{"amount": "100"}
	after := map[string]string{"amount": "250"}
	if err := svc.Record(ctx, ActionUpdate, "charge", "C20260115093000001", before, after); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ActorID != "U20260115001" {
		t.Errorf("actor = %q", e.ActorID)
	}
	if !strings.HasPrefix(e.AuditID, "LOG") {
		t.Errorf("audit id %q missing LOG prefix", e.AuditID)
	}

	var got map[string]string
	if err := json.Unmarshal(e.New, &got); err != nil || got["amount"] != "250" {
		t.Errorf("new snapshot = %s", e.New)
	}
	if err := json.Unmarshal(e.Old, &got); err != nil || got["amount"] != "100" {
		t.Errorf("old snapshot = %s", e.Old)
	}
}

func TestRecord_CreateHasNoOldValue(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, idgen.NewAllocator(&memCounterStore{}))

	if err := svc.Record(context.Background(), ActionCreate, "charge", "C1", nil, map[string]string{"amount": "50"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if repo.entries[0].Old != nil {
		t.Errorf("old snapshot on create = %s", repo.entries[0].Old)
	}
}

func TestList_Filters(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, idgen.NewAllocator(&memCounterStore{}))
	ctx := auth.WithActor(context.Background(), "U1", auth.RoleAdmin)

	_ = svc.Record(ctx, ActionCreate, "charge", "C1", nil, "a")
	_ = svc.Record(ctx, ActionCreate, "visit", "V1", nil, "b")

	entries, total, err := svc.List(context.Background(), Query{EntityKind: "charge"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || entries[0].EntityID != "C1" {
		t.Errorf("filtered list = %d rows", total)
	}
}
