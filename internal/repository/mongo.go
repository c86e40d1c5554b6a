package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

// findOne decodes the first match, returning (nil, nil) when none exists
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// findByID is findOne on _id; malformed ids are reported as not found
func findByID[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, nil
	}
	return findOne[T](ctx, coll, bson.M{"_id": oid})
}

// findPage runs a paginated query and counts the total matches
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D, skip, limit int64) ([]*T, int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", coll.Name(), err)
	}

	opts := options.Find().SetSort(sort).SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	defer cur.Close(ctx)

	items := make([]*T, 0)
	for cur.Next(ctx) {
		var item T
		if err := cur.Decode(&item); err != nil {
			return nil, 0, fmt.Errorf("decode %s: %w", coll.Name(), err)
		}
		items = append(items, &item)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// insert stores doc and maps unique index violations to ErrDuplicate
func insert(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert %s: %w", coll.Name(), err)
	}
	return nil
}

// replace overwrites the document with the same _id
func replace(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("replace %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Indexes returns the index definitions Servus relies on, keyed by
// collection name
func Indexes() map[string][]mongo.IndexModel {
	tenantBranch := bson.D{{Key: "tenantId", Value: 1}, {Key: "branchId", Value: 1}}
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "branchId", Value: 1}, {Key: "role", Value: 1}}},
			{Keys: bson.D{{Key: "nameFolded", Value: 1}}},
		},
		TenantsCollection: {
			{Keys: bson.D{{Key: "tenantId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		BranchesCollection: {
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "name", Value: 1}}},
		},
		MinistriesCollection: {
			{Keys: tenantBranch},
		},
		MembershipsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "tenantId", Value: 1}}},
			{
				Keys: bson.D{{Key: "userId", Value: 1}, {Key: "tenantId", Value: 1}, {Key: "branchId", Value: 1}, {Key: "ministryId", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"isActive": true}),
			},
		},
		EventsCollection: {
			{Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "branchId", Value: 1}, {Key: "startAt", Value: 1}}},
		},
		TemplatesCollection: {
			{Keys: tenantBranch},
		},
	}
}
