package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/halolight/platform/internal/core/domain"
)

const resourcesCollection = "resources"

type ResourceRepository struct {
	collection *mongo.Collection
}

func NewResourceRepository(db *mongo.Database) *ResourceRepository {
	return &ResourceRepository{collection: db.Collection(resourcesCollection)}
}

type mongoResource struct {
	ID        string         `bson:"_id"`
	Kind      string         `bson:"kind"`
	OwnerID   string         `bson:"owner_id"`
	Title     string         `bson:"title"`
	Payload   map[string]any `bson:"payload,omitempty"`
	CreatedAt int64          `bson:"created_at"`
	UpdatedAt int64          `bson:"updated_at"`
}

func toMongoResource(item *domain.ResourceItem) mongoResource {
	return mongoResource{
		ID:        item.ID,
		Kind:      string(item.Kind),
		OwnerID:   item.OwnerID,
		Title:     item.Title,
		Payload:   item.Payload,
		CreatedAt: item.CreatedAt.Unix(),
		UpdatedAt: item.UpdatedAt.Unix(),
	}
}

func (m mongoResource) toDomain() *domain.ResourceItem {
	return &domain.ResourceItem{
		ID:        m.ID,
		Kind:      domain.ResourceKind(m.Kind),
		OwnerID:   m.OwnerID,
		Title:     m.Title,
		Payload:   m.Payload,
		CreatedAt: unixToTime(m.CreatedAt),
		UpdatedAt: unixToTime(m.UpdatedAt),
	}
}

func (r *ResourceRepository) Create(ctx context.Context, item *domain.ResourceItem) (*domain.ResourceItem, error) {
	if _, err := r.collection.InsertOne(ctx, toMongoResource(item)); err != nil {
		return nil, fmt.Errorf("insert %s: %w", item.Kind, err)
	}
	return item, nil
}

func (r *ResourceRepository) FindByID(ctx context.Context, kind domain.ResourceKind, id string) (*domain.ResourceItem, error) {
	var mr mongoResource
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "kind": string(kind)}).Decode(&mr)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrResourceNotFound
		}
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return mr.toDomain(), nil
}

func (r *ResourceRepository) List(ctx context.Context, kind domain.ResourceKind) ([]*domain.ResourceItem, error) {
	cur, err := r.collection.Find(ctx, bson.M{"kind": string(kind)})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer cur.Close(ctx)

	var out []*domain.ResourceItem
	for cur.Next(ctx) {
		var mr mongoResource
		if err := cur.Decode(&mr); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		out = append(out, mr.toDomain())
	}
	return out, cur.Err()
}

func (r *ResourceRepository) Update(ctx context.Context, item *domain.ResourceItem) (*domain.ResourceItem, error) {
	filter := bson.M{"_id": item.ID, "kind": string(item.Kind)}
	res, err := r.collection.ReplaceOne(ctx, filter, toMongoResource(item))
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", item.Kind, err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrResourceNotFound
	}
	return item, nil
}

func (r *ResourceRepository) Delete(ctx context.Context, kind domain.ResourceKind, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "kind": string(kind)})
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}
