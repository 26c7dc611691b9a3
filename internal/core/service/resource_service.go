package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/halolight/platform/internal/core/domain"
	"github.com/halolight/platform/internal/core/ports"
)

// resourceService is deliberately thin: the collections it serves carry no
// business rules. Authorization happened upstream; the handler passes the
// verified owner identity down.
type resourceService struct {
	repo ports.ResourceRepository
	now  func() time.Time
	log  zerolog.Logger
}

// NewResourceService returns the shared thin-resource service.
func NewResourceService(repo ports.ResourceRepository, log zerolog.Logger) ports.ResourceService {
	return &resourceService{repo: repo, now: time.Now, log: log}
}

func (s *resourceService) Create(ctx context.Context, kind domain.ResourceKind, ownerID string, input ports.ResourceInput) (*domain.ResourceItem, error) {
	if input.Title == "" {
		return nil, domain.ErrInvalidInput
	}
	now := s.now().UTC()
	return s.repo.Create(ctx, &domain.ResourceItem{
		ID:        uuid.NewString(),
		Kind:      kind,
		OwnerID:   ownerID,
		Title:     input.Title,
		Payload:   input.Payload,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *resourceService) Get(ctx context.Context, kind domain.ResourceKind, id string) (*domain.ResourceItem, error) {
	return s.repo.FindByID(ctx, kind, id)
}

func (s *resourceService) List(ctx context.Context, kind domain.ResourceKind) ([]*domain.ResourceItem, error) {
	return s.repo.List(ctx, kind)
}

func (s *resourceService) Update(ctx context.Context, kind domain.ResourceKind, id string, input ports.ResourceInput) (*domain.ResourceItem, error) {
	item, err := s.repo.FindByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if input.Title != "" {
		item.Title = input.Title
	}
	if input.Payload != nil {
		item.Payload = input.Payload
	}
	item.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, item)
}

func (s *resourceService) Delete(ctx context.Context, kind domain.ResourceKind, id string) error {
	return s.repo.Delete(ctx, kind, id)
}
