package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditLogsTable is the PostgreSQL table written by PostgresAuditSink
const AuditLogsTable = "audit_logs"

// AuditLogsSchema creates the audit table when it does not exist
const AuditLogsSchema = `
CREATE TABLE IF NOT EXISTS audit_logs (
	id            UUID PRIMARY KEY,
	tenant_id     TEXT,
	branch_id     TEXT,
	user_id       TEXT,
	user_email    TEXT,
	user_role     TEXT,
	action        TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id   TEXT,
	status        INT NOT NULL,
	ip_address    TEXT,
	user_agent    TEXT,
	request_id    TEXT,
	old_values    JSONB,
	new_values    JSONB,
	changes       JSONB,
	metadata      JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_tenant_created ON audit_logs (tenant_id, created_at DESC);
`

const insertAuditLogSQL = `
	INSERT INTO audit_logs (
		id, tenant_id, branch_id, user_id, user_email, user_role,
		action, resource_type, resource_id, status,
		ip_address, user_agent, request_id,
		old_values, new_values, changes, metadata, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10,
		$11, $12, $13,
		$14, $15, $16, $17, $18
	)
`

// --- MongoDB ---

type documentInserter interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// MongoAuditSink writes audit entries to a MongoDB collection
type MongoAuditSink struct {
	coll documentInserter
}

// NewMongoAuditSink creates a sink over the given collection
func NewMongoAuditSink(coll documentInserter) *MongoAuditSink {
	return &MongoAuditSink{coll: coll}
}

// Write inserts the batch unordered so one bad document does not drop the rest
func (s *MongoAuditSink) Write(ctx context.Context, entries []*AuditEntry) error {
	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = e
	}
	_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("insert audit entries: %w", err)
	}
	return nil
}

// --- PostgreSQL ---

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresAuditSink writes audit entries to the audit_logs table in one
// pgx batch per flush
type PostgresAuditSink struct {
	pool batchSender
}

// NewPostgresAuditSink creates a sink over a pgx pool
func NewPostgresAuditSink(pool batchSender) *PostgresAuditSink {
	return &PostgresAuditSink{pool: pool}
}

// Write queues one insert per entry and executes the batch
func (s *PostgresAuditSink) Write(ctx context.Context, entries []*AuditEntry) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		metadata := jsonOrNil(e.Metadata)
		if metadata == nil {
			metadata = []byte("{}")
		}
		batch.Queue(insertAuditLogSQL,
			e.ID, e.TenantID, e.BranchID, e.UserID, e.UserEmail, e.UserRole,
			string(e.Action), e.ResourceType, e.ResourceID, e.Status,
			e.IPAddress, e.UserAgent, e.RequestID,
			jsonOrNil(e.OldValues), jsonOrNil(e.NewValues), jsonOrNil(e.Changes), metadata, e.CreatedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	var errs []error
	for range entries {
		if _, err := results.Exec(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := results.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("insert audit entries: %w", errors.Join(errs...))
	}
	return nil
}

func jsonOrNil(m map[string]interface{}) []byte {
	if m == nil {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return b
}

// --- Kafka ---

// MessagePublisher publishes a keyed message to a topic
type MessagePublisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// KafkaAuditSink publishes each audit entry as JSON keyed by tenant
type KafkaAuditSink struct {
	publisher MessagePublisher
	topic     string
}

// NewKafkaAuditSink creates a sink publishing to topic
func NewKafkaAuditSink(publisher MessagePublisher, topic string) *KafkaAuditSink {
	return &KafkaAuditSink{publisher: publisher, topic: topic}
}

// Write publishes every entry and reports all failures
func (s *KafkaAuditSink) Write(ctx context.Context, entries []*AuditEntry) error {
	var errs []error
	for _, e := range entries {
		value, err := json.Marshal(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		key := ""
		if e.TenantID != nil {
			key = *e.TenantID
		}
		if err := s.publisher.Publish(ctx, s.topic, key, value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("publish audit entries: %w", errors.Join(errs...))
	}
	return nil
}
