package doctor

import (
	"context"
	"strings"
	"time"

	"github.com/hms/hms/internal/platform/hmserr"
	"github.com/hms/hms/internal/platform/idgen"
)

type Service struct {
	repo Repository
	ids  *idgen.Allocator
}

func NewService(repo Repository, ids *idgen.Allocator) *Service {
	return &Service{repo: repo, ids: ids}
}

func validate(d *Doctor) error {
	if strings.TrimSpace(d.Name) == "" {
		return hmserr.Validation("name", "name is required")
	}
	if d.NewVisitFee.IsNegative() {
		return hmserr.Validation("new_visit_fee", "fee must not be negative")
	}
	if d.FollowUpFee.IsNegative() {
		return hmserr.Validation("follow_up_fee", "fee must not be negative")
	}
	return nil
}

func (s *Service) Register(ctx context.Context, d *Doctor) error {
	if err := validate(d); err != nil {
		return err
	}
	if d.Status == "" {
		d.Status = StatusActive
	}
	if !d.Status.Valid() {
		return hmserr.Validation("status", "status must be ACTIVE or INACTIVE")
	}
	id, err := s.ids.Allocate(ctx, idgen.KindDoctor, time.Now())
	if err != nil {
		return err
	}
	d.DoctorID = id
	return s.repo.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, doctorID string) (*Doctor, error) {
	return s.repo.GetByID(ctx, doctorID)
}

func (s *Service) Update(ctx context.Context, d *Doctor) error {
	if err := validate(d); err != nil {
		return err
	}
	if !d.Status.Valid() {
		return hmserr.Validation("status", "status must be ACTIVE or INACTIVE")
	}
	if _, err := s.repo.GetByID(ctx, d.DoctorID); err != nil {
		return err
	}
	return s.repo.Update(ctx, d)
}

// Deactivate takes a doctor off the roster without touching history.
// Inactive doctors refuse new visits but keep their past records.
func (s *Service) Deactivate(ctx context.Context, doctorID string) error {
	d, err := s.repo.GetByID(ctx, doctorID)
	if err != nil {
		return err
	}
	if d.Status == StatusInactive {
		return hmserr.Conflict(doctorID, "doctor already inactive")
	}
	d.Status = StatusInactive
	return s.repo.Update(ctx, d)
}

func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, activeOnly, limit, offset)
}
