package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TenantReferencedCollections lists the collections whose documents carry
// a tenantId
var TenantReferencedCollections = []string{
	UsersCollection,
	BranchesCollection,
	MinistriesCollection,
	MembershipsCollection,
	EventsCollection,
	TemplatesCollection,
}

// TenantReferences inspects and rewrites tenantId values across
// collections
type TenantReferences struct {
	db *mongo.Database
}

// NewTenantReferences creates a new TenantReferences
func NewTenantReferences(db *mongo.Database) *TenantReferences {
	return &TenantReferences{db: db}
}

// TenantIDCount is one distinct tenantId value found in a collection
type TenantIDCount struct {
	TenantID string
	// ObjectID is set when the value is stored as an ObjectId instead of a
	// string; TenantID then holds its hex form
	ObjectID  bool
	Documents int64
}

// value returns the tenantId as it is stored
func (c TenantIDCount) value() (interface{}, error) {
	if !c.ObjectID {
		return c.TenantID, nil
	}
	oid, err := primitive.ObjectIDFromHex(c.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant id %q: %w", c.TenantID, err)
	}
	return oid, nil
}

// CountByTenantID returns the number of documents per distinct tenantId in
// a collection. String and ObjectId values with the same hex are counted
// apart. Documents without a tenantId are not counted.
func (r *TenantReferences) CountByTenantID(ctx context.Context, collection string) ([]TenantIDCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tenantId": bson.M{"$exists": true, "$ne": ""}}}},
		{{Key: "$group", Value: bson.M{"_id": "$tenantId", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var counts []TenantIDCount
	for cur.Next(ctx) {
		var row struct {
			TenantID interface{} `bson:"_id"`
			Count    int64       `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts = append(counts, tenantIDCount(row.TenantID, row.Count))
	}
	return counts, cur.Err()
}

func tenantIDCount(v interface{}, n int64) TenantIDCount {
	switch id := v.(type) {
	case string:
		return TenantIDCount{TenantID: id, Documents: n}
	case primitive.ObjectID:
		return TenantIDCount{TenantID: id.Hex(), ObjectID: true, Documents: n}
	default:
		return TenantIDCount{TenantID: fmt.Sprint(id), Documents: n}
	}
}

// ReplaceTenantID rewrites every document whose tenantId is exactly from
// (same value and BSON type) to the string to
func (r *TenantReferences) ReplaceTenantID(ctx context.Context, collection string, from TenantIDCount, to string) (int64, error) {
	value, err := from.value()
	if err != nil {
		return 0, err
	}
	res, err := r.db.Collection(collection).UpdateMany(ctx,
		bson.M{"tenantId": value},
		bson.M{"$set": bson.M{"tenantId": to}},
	)
	if err != nil {
		return 0, fmt.Errorf("rewrite %s tenant references: %w", collection, err)
	}
	return res.ModifiedCount, nil
}
