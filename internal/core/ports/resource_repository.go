package ports

import (
	"context"

	"github.com/halolight/platform/internal/core/domain"
)

// ResourceRepository stores the thin resource collections. All kinds share
// one shape, so one repository serves them all.
type ResourceRepository interface {
	Create(ctx context.Context, item *domain.ResourceItem) (*domain.ResourceItem, error)
	FindByID(ctx context.Context, kind domain.ResourceKind, id string) (*domain.ResourceItem, error)
	List(ctx context.Context, kind domain.ResourceKind) ([]*domain.ResourceItem, error)
	Update(ctx context.Context, item *domain.ResourceItem) (*domain.ResourceItem, error)
	Delete(ctx context.Context, kind domain.ResourceKind, id string) error
}
