package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/pkg/textfold"
)

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(UsersCollection)}
}

// Create inserts a new user
func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(user.Email)
	user.NameFolded = textfold.Fold(user.Name)
	return insert(ctx, r.coll, user)
}

// GetByID retrieves a user by ID
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return findByID[domain.User](ctx, r.coll, id)
}

// GetByEmail retrieves a user by email
func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.coll, bson.M{"email": strings.ToLower(email)})
}

// List retrieves users matching the scoped filter
func (r *MongoUserRepository) List(ctx context.Context, params ListParams) ([]*domain.User, int64, error) {
	return findPage[domain.User](ctx, r.coll, listFilter(params, userFields), userFields.sortBy, params.Skip, params.Limit)
}

// Update replaces the mutable fields of a user
func (r *MongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	user.NameFolded = textfold.Fold(user.Name)
	set := bson.M{
		"name":       user.Name,
		"nameFolded": user.NameFolded,
		"phone":      user.Phone,
		"role":       user.Role,
		"isActive":   user.IsActive,
		"updatedAt":  user.UpdatedAt,
	}
	unset := bson.M{}
	for key, value := range map[string]string{"tenantId": user.TenantID, "branchId": user.BranchID} {
		if value == "" {
			unset[key] = ""
		} else {
			set[key] = value
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"passwordHash": hash,
		"updatedAt":    time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful login
func (r *MongoUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"lastLoginAt": at}})
	return err
}

// ExistsByEmail checks whether the email is taken
func (r *MongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"email": strings.ToLower(email)})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
