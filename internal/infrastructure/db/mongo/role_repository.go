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

const (
	rolesCollection     = "roles"
	userRolesCollection = "user_roles"
)

type RoleRepository struct {
	roles     *mongo.Collection
	userRoles *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{
		roles:     db.Collection(rolesCollection),
		userRoles: db.Collection(userRolesCollection),
	}
}

type mongoRole struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	Label       string `bson:"label,omitempty"`
	Description string `bson:"description,omitempty"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
}

type mongoUserRole struct {
	UserID    string `bson:"user_id"`
	RoleID    string `bson:"role_id"`
	CreatedAt int64  `bson:"created_at"`
}

func toMongoRole(role *domain.Role) mongoRole {
	return mongoRole{
		ID:          role.ID,
		Name:        role.Name,
		Label:       role.Label,
		Description: role.Description,
		CreatedAt:   role.CreatedAt.Unix(),
		UpdatedAt:   role.UpdatedAt.Unix(),
	}
}

func (m mongoRole) toDomain() *domain.Role {
	return &domain.Role{
		ID:          m.ID,
		Name:        m.Name,
		Label:       m.Label,
		Description: m.Description,
		CreatedAt:   unixToTime(m.CreatedAt),
		UpdatedAt:   unixToTime(m.UpdatedAt),
	}
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	if _, err := r.roles.InsertOne(ctx, toMongoRole(role)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRoleExists
		}
		return nil, fmt.Errorf("insert role: %w", err)
	}
	return role, nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *RoleRepository) findOne(ctx context.Context, filter bson.M) (*domain.Role, error) {
	var mr mongoRole
	if err := r.roles.FindOne(ctx, filter).Decode(&mr); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return mr.toDomain(), nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	cur, err := r.roles.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Role
	for cur.Next(ctx) {
		var mr mongoRole
		if err := cur.Decode(&mr); err != nil {
			return nil, fmt.Errorf("decode role: %w", err)
		}
		out = append(out, mr.toDomain())
	}
	return out, cur.Err()
}

func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	res, err := r.roles.ReplaceOne(ctx, bson.M{"_id": role.ID}, toMongoRole(role))
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrRoleNotFound
	}
	return role, nil
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.roles.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// Assign upserts the association so re-assigning an existing role is a no-op
// rather than a duplicate link.
func (r *RoleRepository) Assign(ctx context.Context, userID, roleID string) error {
	filter := bson.M{"user_id": userID, "role_id": roleID}
	update := bson.M{"$setOnInsert": mongoUserRole{UserID: userID, RoleID: roleID, CreatedAt: time.Now().Unix()}}
	if _, err := r.userRoles.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (r *RoleRepository) Unassign(ctx context.Context, userID, roleID string) error {
	res, err := r.userRoles.DeleteOne(ctx, bson.M{"user_id": userID, "role_id": roleID})
	if err != nil {
		return fmt.Errorf("unassign role: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

func (r *RoleRepository) RolesForUser(ctx context.Context, userID string) ([]*domain.Role, error) {
	cur, err := r.userRoles.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("roles for user: %w", err)
	}
	defer cur.Close(ctx)

	var roleIDs []string
	for cur.Next(ctx) {
		var link mongoUserRole
		if err := cur.Decode(&link); err != nil {
			return nil, fmt.Errorf("decode assignment: %w", err)
		}
		roleIDs = append(roleIDs, link.RoleID)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(roleIDs) == 0 {
		return nil, nil
	}

	roleCur, err := r.roles.Find(ctx, bson.M{"_id": bson.M{"$in": roleIDs}})
	if err != nil {
		return nil, fmt.Errorf("roles for user: %w", err)
	}
	defer roleCur.Close(ctx)

	var out []*domain.Role
	for roleCur.Next(ctx) {
		var mr mongoRole
		if err := roleCur.Decode(&mr); err != nil {
			return nil, fmt.Errorf("decode role: %w", err)
		}
		out = append(out, mr.toDomain())
	}
	return out, roleCur.Err()
}

func (r *RoleRepository) UsersWithRole(ctx context.Context, roleID string) ([]string, error) {
	cur, err := r.userRoles.Find(ctx, bson.M{"role_id": roleID})
	if err != nil {
		return nil, fmt.Errorf("users with role: %w", err)
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var link mongoUserRole
		if err := cur.Decode(&link); err != nil {
			return nil, fmt.Errorf("decode assignment: %w", err)
		}
		out = append(out, link.UserID)
	}
	return out, cur.Err()
}

func (r *RoleRepository) ClearAssignments(ctx context.Context, roleID string) error {
	if _, err := r.userRoles.DeleteMany(ctx, bson.M{"role_id": roleID}); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	return nil
}
