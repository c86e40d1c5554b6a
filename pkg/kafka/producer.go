// Package kafka publishes Servus domain events and audit entries with
// franz-go.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// ErrNoBrokers is returned when the producer is built without seed brokers
var ErrNoBrokers = errors.New("kafka: no brokers configured")

// ProducerConfig holds producer settings
type ProducerConfig struct {
	Brokers      []string
	ClientID     string
	WriteTimeout time.Duration
}

// Producer writes keyed records synchronously
type Producer struct {
	client  *kgo.Client
	timeout time.Duration
}

// NewProducer creates a producer and verifies a broker is reachable
func NewProducer(ctx context.Context, cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerLinger(50 * time.Millisecond),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}

	return &Producer{client: client, timeout: cfg.WriteTimeout}, nil
}

// Publish writes value to topic under key and waits for the ack
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	record := &kgo.Record{Topic: topic, Value: value}
	if key != "" {
		record.Key = []byte(key)
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// HealthCheck pings the cluster
func (p *Producer) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes buffered records and closes the client
func (p *Producer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
