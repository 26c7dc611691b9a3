package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/halolight/platform/internal/core/domain"
)

const sessionsCollection = "sessions"

type SessionRepository struct {
	collection *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{collection: db.Collection(sessionsCollection)}
}

// expires_at is a real bson date so the TTL index can reap dead families.
type mongoSession struct {
	ID              string    `bson:"_id"`
	UserID          string    `bson:"user_id"`
	Generation      int64     `bson:"generation"`
	RefreshHash     string    `bson:"refresh_hash"`
	PrevRefreshHash string    `bson:"prev_refresh_hash,omitempty"`
	IssuedAt        int64     `bson:"issued_at"`
	ExpiresAt       time.Time `bson:"expires_at"`
	Revoked         bool      `bson:"revoked"`
}

func toMongoSession(s *domain.Session) mongoSession {
	return mongoSession{
		ID:              s.ID,
		UserID:          s.UserID,
		Generation:      s.Generation,
		RefreshHash:     s.RefreshHash,
		PrevRefreshHash: s.PrevRefreshHash,
		IssuedAt:        s.IssuedAt.Unix(),
		ExpiresAt:       s.ExpiresAt.UTC(),
		Revoked:         s.Revoked,
	}
}

func (m mongoSession) toDomain() *domain.Session {
	return &domain.Session{
		ID:              m.ID,
		UserID:          m.UserID,
		Generation:      m.Generation,
		RefreshHash:     m.RefreshHash,
		PrevRefreshHash: m.PrevRefreshHash,
		IssuedAt:        unixToTime(m.IssuedAt),
		ExpiresAt:       m.ExpiresAt.UTC(),
		Revoked:         m.Revoked,
	}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if _, err := r.collection.InsertOne(ctx, toMongoSession(session)); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Find(ctx context.Context, id string) (*domain.Session, error) {
	var ms mongoSession
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ms); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return ms.toDomain(), nil
}

func (r *SessionRepository) Rotate(ctx context.Context, id string, fromGeneration int64, refreshHash, newHash string, newExpiresAt, now time.Time) (*domain.Session, error) {
	filter := bson.M{
		"_id":          id,
		"generation":   fromGeneration,
		"refresh_hash": refreshHash,
		"revoked":      false,
		"expires_at":   bson.M{"$gt": now.UTC()},
	}
	update := bson.M{
		"$inc": bson.M{"generation": 1},
		"$set": bson.M{
			"refresh_hash":      newHash,
			"prev_refresh_hash": refreshHash,
			"expires_at":        newExpiresAt.UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ms mongoSession
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ms); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	return ms.toDomain(), nil
}

func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return fmt.Errorf("revoke sessions for user: %w", err)
	}
	return nil
}

func (r *SessionRepository) CountActiveForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	filter := bson.M{
		"user_id":    userID,
		"revoked":    false,
		"expires_at": bson.M{"$gt": now.UTC()},
	}
	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return n, nil
}
