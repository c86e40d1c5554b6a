// Package maintenance holds the data repair operations run by servusctl.
package maintenance

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/prohmpiriya/servus/internal/domain"
	"github.com/prohmpiriya/servus/internal/repository"
	"github.com/prohmpiriya/servus/pkg/logger"
)

// Reference states
const (
	ReferenceOK     = "ok"
	ReferenceLegacy = "legacy" // tenant document id instead of the external id
	ReferenceOrphan = "orphan" // matches no tenant
)

// Stored tenantId types
const (
	TypeString   = "string"
	TypeObjectID = "objectId"
)

const tenantPageSize = 500

// TenantLister pages through tenants
type TenantLister interface {
	List(ctx context.Context, isActive *bool, search string, skip, limit int64) ([]*domain.Tenant, int64, error)
}

// ReferenceStore counts and rewrites tenantId values per collection
type ReferenceStore interface {
	CountByTenantID(ctx context.Context, collection string) ([]repository.TenantIDCount, error)
	ReplaceTenantID(ctx context.Context, collection string, from repository.TenantIDCount, to string) (int64, error)
}

// TenantReference is one distinct tenantId value found in a collection
type TenantReference struct {
	Collection string `yaml:"collection" json:"collection"`
	TenantID   string `yaml:"tenant_id" json:"tenant_id"`
	// Type is the BSON type the value is stored as
	Type       string `yaml:"type" json:"type"`
	Documents  int64  `yaml:"documents" json:"documents"`
	Status     string `yaml:"status" json:"status"`
	// ReplaceWith is the external id a legacy reference maps to
	ReplaceWith string `yaml:"replace_with,omitempty" json:"replace_with,omitempty"`
	// Rewritten counts documents changed by an applied fix
	Rewritten int64 `yaml:"rewritten,omitempty" json:"rewritten,omitempty"`
}

// TenantReport is the outcome of a check or fix run
type TenantReport struct {
	Tenants    int               `yaml:"tenants" json:"tenants"`
	Applied    bool              `yaml:"applied" json:"applied"`
	References []TenantReference `yaml:"references" json:"references"`
}

// Count returns how many references have status
func (r *TenantReport) Count(status string) int {
	n := 0
	for _, ref := range r.References {
		if ref.Status == status {
			n++
		}
	}
	return n
}

// TenantChecker finds and repairs tenant references that do not use the
// external tenant id
type TenantChecker struct {
	tenants     TenantLister
	refs        ReferenceStore
	collections []string
}

// NewTenantChecker creates a checker over collections
func NewTenantChecker(tenants TenantLister, refs ReferenceStore, collections []string) *TenantChecker {
	return &TenantChecker{tenants: tenants, refs: refs, collections: collections}
}

// Check reports every distinct tenantId per collection. It never writes.
func (c *TenantChecker) Check(ctx context.Context) (*TenantReport, error) {
	byExternal, byHex, err := c.loadTenants(ctx)
	if err != nil {
		return nil, err
	}

	report := &TenantReport{Tenants: len(byExternal), References: []TenantReference{}}
	for _, coll := range c.collections {
		counts, err := c.refs.CountByTenantID(ctx, coll)
		if err != nil {
			return nil, err
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].TenantID != counts[j].TenantID {
				return counts[i].TenantID < counts[j].TenantID
			}
			return !counts[i].ObjectID && counts[j].ObjectID
		})

		for _, cnt := range counts {
			ref := TenantReference{
				Collection: coll,
				TenantID:   cnt.TenantID,
				Type:       TypeString,
				Documents:  cnt.Documents,
				Status:     ReferenceOrphan,
			}
			if cnt.ObjectID {
				ref.Type = TypeObjectID
			}
			switch {
			case !cnt.ObjectID && byExternal[cnt.TenantID]:
				ref.Status = ReferenceOK
			case byHex[cnt.TenantID] != "":
				ref.Status = ReferenceLegacy
				ref.ReplaceWith = byHex[cnt.TenantID]
			}
			report.References = append(report.References, ref)
		}
	}
	return report, nil
}

// Fix rewrites legacy references to the external tenant id. Without apply
// it only reports what would change.
func (c *TenantChecker) Fix(ctx context.Context, apply bool) (*TenantReport, error) {
	report, err := c.Check(ctx)
	if err != nil {
		return nil, err
	}
	report.Applied = apply
	if !apply {
		return report, nil
	}

	for i := range report.References {
		ref := &report.References[i]
		if ref.Status != ReferenceLegacy {
			continue
		}
		from := repository.TenantIDCount{TenantID: ref.TenantID, ObjectID: ref.Type == TypeObjectID}
		n, err := c.refs.ReplaceTenantID(ctx, ref.Collection, from, ref.ReplaceWith)
		if err != nil {
			return report, err
		}
		ref.Rewritten = n
		logger.InfoCtx(ctx, "rewrote tenant references",
			zap.String("collection", ref.Collection),
			zap.String("from", ref.TenantID),
			zap.String("type", ref.Type),
			zap.String("to", ref.ReplaceWith),
			zap.Int64("documents", n),
		)
	}
	return report, nil
}

// loadTenants returns the set of external ids and a document id -> external
// id map
func (c *TenantChecker) loadTenants(ctx context.Context) (map[string]bool, map[string]string, error) {
	byExternal := make(map[string]bool)
	byHex := make(map[string]string)
	for skip := int64(0); ; skip += tenantPageSize {
		page, total, err := c.tenants.List(ctx, nil, "", skip, tenantPageSize)
		if err != nil {
			return nil, nil, fmt.Errorf("list tenants: %w", err)
		}
		for _, t := range page {
			byExternal[t.TenantID] = true
			byHex[t.ID.Hex()] = t.TenantID
		}
		if len(page) == 0 || skip+int64(len(page)) >= total {
			break
		}
	}
	return byExternal, byHex, nil
}
