package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/halolight/platform/internal/core/domain"
)

const (
	permissionsCollection     = "permissions"
	rolePermissionsCollection = "role_permissions"
)

type PermissionRepository struct {
	perms     *mongo.Collection
	rolePerms *mongo.Collection
}

func NewPermissionRepository(db *mongo.Database) *PermissionRepository {
	return &PermissionRepository{
		perms:     db.Collection(permissionsCollection),
		rolePerms: db.Collection(rolePermissionsCollection),
	}
}

type mongoPermission struct {
	ID          string `bson:"_id"`
	Pattern     string `bson:"pattern"`
	Description string `bson:"description,omitempty"`
	CreatedAt   int64  `bson:"created_at"`
}

type mongoRolePermission struct {
	RoleID       string `bson:"role_id"`
	PermissionID string `bson:"permission_id"`
}

func (m mongoPermission) toDomain() (*domain.Permission, error) {
	pattern, err := domain.ParsePattern(m.Pattern)
	if err != nil {
		// A stored pattern failing to parse means the write path was
		// bypassed; surface it rather than silently granting nothing odd.
		return nil, fmt.Errorf("stored permission %s: %w", m.ID, err)
	}
	return &domain.Permission{
		ID:          m.ID,
		Pattern:     pattern,
		Description: m.Description,
		CreatedAt:   unixToTime(m.CreatedAt),
	}, nil
}

func (r *PermissionRepository) Create(ctx context.Context, perm *domain.Permission) (*domain.Permission, error) {
	doc := mongoPermission{
		ID:          perm.ID,
		Pattern:     perm.Pattern.String(),
		Description: perm.Description,
		CreatedAt:   perm.CreatedAt.Unix(),
	}
	if _, err := r.perms.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrPermissionExists
		}
		return nil, fmt.Errorf("insert permission: %w", err)
	}
	return perm, nil
}

func (r *PermissionRepository) FindByID(ctx context.Context, id string) (*domain.Permission, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *PermissionRepository) FindByPattern(ctx context.Context, pattern domain.Pattern) (*domain.Permission, error) {
	return r.findOne(ctx, bson.M{"pattern": pattern.String()})
}

func (r *PermissionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Permission, error) {
	var mp mongoPermission
	if err := r.perms.FindOne(ctx, filter).Decode(&mp); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("find permission: %w", err)
	}
	return mp.toDomain()
}

func (r *PermissionRepository) List(ctx context.Context) ([]*domain.Permission, error) {
	cur, err := r.perms.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer cur.Close(ctx)
	return decodePermissions(ctx, cur)
}

func (r *PermissionRepository) UpdateDescription(ctx context.Context, id, description string) (*domain.Permission, error) {
	res, err := r.perms.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"description": description}})
	if err != nil {
		return nil, fmt.Errorf("update permission: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrPermissionNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *PermissionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.perms.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPermissionNotFound
	}
	return nil
}

// SetForRole replaces the role's grant links in one delete-insert sweep.
func (r *PermissionRepository) SetForRole(ctx context.Context, roleID string, permissionIDs []string) error {
	if _, err := r.rolePerms.DeleteMany(ctx, bson.M{"role_id": roleID}); err != nil {
		return fmt.Errorf("set role permissions: %w", err)
	}
	if len(permissionIDs) == 0 {
		return nil
	}
	docs := make([]any, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		docs = append(docs, mongoRolePermission{RoleID: roleID, PermissionID: id})
	}
	if _, err := r.rolePerms.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("set role permissions: %w", err)
	}
	return nil
}

func (r *PermissionRepository) PermissionsForRole(ctx context.Context, roleID string) ([]*domain.Permission, error) {
	cur, err := r.rolePerms.Find(ctx, bson.M{"role_id": roleID})
	if err != nil {
		return nil, fmt.Errorf("permissions for role: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var link mongoRolePermission
		if err := cur.Decode(&link); err != nil {
			return nil, fmt.Errorf("decode grant: %w", err)
		}
		ids = append(ids, link.PermissionID)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	permCur, err := r.perms.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("permissions for role: %w", err)
	}
	defer permCur.Close(ctx)
	return decodePermissions(ctx, permCur)
}

func (r *PermissionRepository) RoleCountForPermission(ctx context.Context, permissionID string) (int64, error) {
	n, err := r.rolePerms.CountDocuments(ctx, bson.M{"permission_id": permissionID})
	if err != nil {
		return 0, fmt.Errorf("role count for permission: %w", err)
	}
	return n, nil
}

func decodePermissions(ctx context.Context, cur *mongo.Cursor) ([]*domain.Permission, error) {
	var out []*domain.Permission
	for cur.Next(ctx) {
		var mp mongoPermission
		if err := cur.Decode(&mp); err != nil {
			return nil, fmt.Errorf("decode permission: %w", err)
		}
		perm, err := mp.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, perm)
	}
	return out, cur.Err()
}
