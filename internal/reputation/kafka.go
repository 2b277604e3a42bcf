package reputation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"sentinelguard/pkg/domain"
	"sentinelguard/pkg/platform/circuit"
)

// DefaultTopic carries executed-transfer events.
const DefaultTopic = "sentinelguard.transfers.v1"

// probeEvery controls how often an open breaker lets an event through to
// test whether the broker recovered.
const probeEvery = 10

// KafkaNotifier publishes transfer events asynchronously. A circuit breaker
// stops the produce attempts while the broker is down; events emitted during
// an outage are dropped, not queued.
type KafkaNotifier struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger
	skipped atomic.Uint64
}

type KafkaOption func(*KafkaNotifier)

func WithTopic(topic string) KafkaOption {
	return func(n *KafkaNotifier) { n.topic = topic }
}

func WithLogger(logger *slog.Logger) KafkaOption {
	return func(n *KafkaNotifier) { n.logger = logger }
}

// NewKafka connects to the brokers and ensures the topic exists. Topic
// creation races with other instances, so an already-exists answer is fine.
func NewKafka(ctx context.Context, brokers []string, opts ...KafkaOption) (*KafkaNotifier, error) {
	n := &KafkaNotifier{
		topic:   DefaultTopic,
		breaker: circuit.New("reputation-kafka"),
	}
	for _, opt := range opts {
		opt(n)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, fmt.Errorf("connect reputation brokers: %w", err)
	}
	n.client = client

	admin := kadm.NewClient(client)
	created, err := admin.CreateTopics(ctx, 1, 1, nil, n.topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create reputation topic: %w", err)
	}
	for _, response := range created {
		if response.Err != nil && !errors.Is(response.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create topic %s: %w", response.Topic, response.Err)
		}
	}
	return n, nil
}

// TransferExecuted publishes the event without blocking. Broker failures
// only move the breaker; the caller never sees them.
func (n *KafkaNotifier) TransferExecuted(ctx context.Context, from, to domain.Address, amount domain.Amount) {
	if n.breaker.IsOpen() {
		// Let the occasional event through as a recovery probe.
		if n.skipped.Add(1)%probeEvery != 0 {
			return
		}
	}

	payload, err := json.Marshal(Event{
		From:       from,
		To:         to,
		Amount:     amount,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		if n.logger != nil {
			n.logger.ErrorContext(ctx, "encode reputation event", slog.Any("error", err))
		}
		return
	}

	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(from),
		Value: payload,
	}
	n.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			_, change := n.breaker.RecordFailure()
			if change.Opened && n.logger != nil {
				n.logger.Warn("reputation breaker opened", slog.Any("error", err))
			}
			return
		}
		_, change := n.breaker.RecordSuccess()
		if change.Closed && n.logger != nil {
			n.logger.Info("reputation breaker closed")
		}
	})
}

// Close flushes in-flight records and releases the client.
func (n *KafkaNotifier) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = n.client.Flush(ctx)
	n.client.Close()
}
