package patient

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

func validate(p *Patient) error {
	if strings.TrimSpace(p.Name) == "" {
		return hmserr.Validation("name", "name is required")
	}
	if p.Age < 0 || p.Age > 150 {
		return hmserr.Validation("age", "age must be between 0 and 150")
	}
	if !p.Gender.Valid() {
		return hmserr.Validation("gender", "gender must be MALE, FEMALE or OTHER")
	}
	if strings.TrimSpace(p.MobileNumber) == "" {
		return hmserr.Validation("mobile_number", "mobile number is required")
	}
	return nil
}

// Register assigns a new patient id and stores the record. The mobile
// number must not already be registered.
func (s *Service) Register(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	id, err := s.ids.Allocate(ctx, idgen.KindPatient, time.Now())
	if err != nil {
		return err
	}
	p.PatientID = id
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, patientID string) (*Patient, error) {
	return s.repo.GetByID(ctx, patientID)
}

// Update corrects demographic fields in place. The patient id never changes.
func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	existing, err := s.repo.GetByID(ctx, p.PatientID)
	if err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	return s.repo.Update(ctx, p)
}

// Search matches the term against patient id, mobile number and name.
func (s *Service) Search(ctx context.Context, term string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, strings.TrimSpace(term), limit, offset)
}
