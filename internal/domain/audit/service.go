package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/idgen"
)

type Service struct {
	repo Repository
	ids  *idgen.Allocator
	now  func() time.Time
}

func NewService(repo Repository, ids *idgen.Allocator) *Service {
	return &Service{repo: repo, ids: ids, now: time.Now}
}

// Record appends a ledger entry, marshalling the before and after
// snapshots. It runs on whatever transaction is open on ctx, so when a
// charge write rolls back its audit entry rolls back with it. The actor
// comes from the request context.
func (s *Service) Record(ctx context.Context, action, entityKind, entityID string, oldValue, newValue interface{}) error {
	now := s.now()
	id, err := s.ids.Allocate(ctx, idgen.KindAudit, now)
	if err != nil {
		return err
	}

	e := &Entry{
		AuditID:    id,
		ActorID:    auth.ActorIDFromContext(ctx),
		Action:     action,
		EntityKind: entityKind,
		EntityID:   entityID,
		At:         now,
	}
	if oldValue != nil {
		if e.Old, err = json.Marshal(oldValue); err != nil {
			return err
		}
	}
	if newValue != nil {
		if e.New, err = json.Marshal(newValue); err != nil {
			return err
		}
	}

	if err := s.repo.Append(ctx, e); err != nil {
		return err
	}
	log.Debug().
		Str("audit_id", e.AuditID).
		Str("action", action).
		Str("entity", entityKind+"/"+entityID).
		Msg("audit entry recorded")
	return nil
}

func (s *Service) List(ctx context.Context, q Query) ([]*Entry, int, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	return s.repo.List(ctx, q)
}
