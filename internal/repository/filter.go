package repository

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/prohmpiriya/servus/internal/scope"
	"github.com/prohmpiriya/servus/pkg/textfold"
)

// searchField is a document field matched by the search parameter
type searchField struct {
	name   string
	folded bool // field stores textfold.Fold output
}

// collectionFields describes how a collection stores the scoped keys
type collectionFields struct {
	branchField string
	search      []searchField
	sortBy      bson.D
	// tenantWide collections store branchless documents that belong to
	// every branch of the tenant
	tenantWide bool
	// windowed collections filter From/To against startAt/endAt
	windowed bool
}

var (
	userFields = collectionFields{
		branchField: scope.KeyBranchID,
		search:      []searchField{{name: "nameFolded", folded: true}, {name: "email"}},
		sortBy:      bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}},
	}
	branchFields = collectionFields{
		branchField: "_id",
		search:      []searchField{{name: "name"}, {name: "address.city"}},
		sortBy:      bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}},
	}
	ministryFields = collectionFields{
		branchField: scope.KeyBranchID,
		search:      []searchField{{name: "name"}},
		sortBy:      bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}},
		tenantWide:  true,
	}
	membershipFields = collectionFields{
		branchField: scope.KeyBranchID,
		sortBy:      bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}},
		tenantWide:  true,
	}
	eventFields = collectionFields{
		branchField: scope.KeyBranchID,
		search:      []searchField{{name: "title"}},
		sortBy:      bson.D{{Key: "startAt", Value: 1}, {Key: "_id", Value: 1}},
		tenantWide:  true,
		windowed:    true,
	}
	templateFields = collectionFields{
		branchField: scope.KeyBranchID,
		search:      []searchField{{name: "name"}},
		sortBy:      bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}},
		tenantWide:  true,
	}
)

// scopeToBSON translates a scope filter into a Mongo query. Absent keys are
// left out of the document; none is ever written as null.
func scopeToBSON(f scope.Filter, fields collectionFields) bson.M {
	m := bson.M{}
	if f.TenantID != nil {
		m[scope.KeyTenantID] = *f.TenantID
	}
	if f.BranchID != nil {
		if fields.branchField == "_id" {
			// a malformed id stays a string and matches nothing
			if oid, err := primitive.ObjectIDFromHex(*f.BranchID); err == nil {
				m["_id"] = oid
			} else {
				m["_id"] = *f.BranchID
			}
		} else if fields.tenantWide {
			// a nil match also covers a missing branchId
			m[fields.branchField] = bson.M{"$in": bson.A{*f.BranchID, nil}}
		} else {
			m[fields.branchField] = *f.BranchID
		}
	}
	if f.Role != nil {
		m[scope.KeyRole] = *f.Role
	}
	if f.IsActive != nil {
		m[scope.KeyIsActive] = *f.IsActive
	}
	if f.Search != nil && len(fields.search) > 0 {
		if or := searchClause(*f.Search, fields.search); len(or) > 0 {
			m["$or"] = or
		}
	}
	return m
}

func searchClause(term string, fields []searchField) bson.A {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	or := make(bson.A, 0, len(fields))
	for _, field := range fields {
		pattern := regexp.QuoteMeta(term)
		if field.folded {
			pattern = textfold.ContainsPattern(term)
		}
		or = append(or, bson.M{field.name: primitive.Regex{Pattern: pattern, Options: "i"}})
	}
	return or
}

// listFilter builds the full query for a listing request
func listFilter(p ListParams, fields collectionFields) bson.M {
	m := scopeToBSON(p.Scope, fields)
	if p.UserID != "" {
		m["userId"] = p.UserID
	}
	if p.MinistryID != "" {
		m["ministryId"] = p.MinistryID
	}
	if fields.windowed && (p.From != nil || p.To != nil) {
		single := bson.M{}
		if p.To != nil {
			single["startAt"] = bson.M{"$lt": *p.To}
		}
		if p.From != nil {
			single["endAt"] = bson.M{"$gt": *p.From}
		}
		recurring := bson.M{"recurrence": bson.M{"$exists": true, "$ne": nil}}
		if p.To != nil {
			recurring["startAt"] = bson.M{"$lt": *p.To}
		}
		if p.From != nil {
			// a nil match also covers a missing until
			recurring["$or"] = bson.A{
				bson.M{"recurrence.until": nil},
				bson.M{"recurrence.until": bson.M{"$gte": *p.From}},
			}
		}
		window := bson.A{single, recurring}
		if existing, ok := m["$or"]; ok {
			delete(m, "$or")
			m["$and"] = bson.A{bson.M{"$or": existing}, bson.M{"$or": window}}
		} else {
			m["$or"] = window
		}
	}
	return m
}
