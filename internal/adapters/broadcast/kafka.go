package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"bloodbridge/internal/domain"
)

// DefaultTopic carries urgent donor alerts.
const DefaultTopic = "bloodbridge.donor-alerts"

// KafkaConfig holds broker settings for the alert broadcaster.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// producer is the subset of *kgo.Client the broadcaster uses.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaBroadcaster publishes donor alerts as JSON records keyed by request id,
// so every alert for one request lands on the same partition.
type KafkaBroadcaster struct {
	client producer
	closer func()
	topic  string
	logger *slog.Logger
}

// NewKafkaBroadcaster connects a franz-go client to the configured brokers.
func NewKafkaBroadcaster(cfg KafkaConfig, logger *slog.Logger) (*KafkaBroadcaster, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka broadcaster requires at least one broker")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaBroadcaster{client: client, closer: client.Close, topic: topic, logger: logger}, nil
}

func newKafkaBroadcaster(p producer, topic string, logger *slog.Logger) *KafkaBroadcaster {
	return &KafkaBroadcaster{client: p, closer: func() {}, topic: topic, logger: logger}
}

// Broadcast publishes alert and waits for the brokers to acknowledge it.
func (b *KafkaBroadcaster) Broadcast(ctx context.Context, alert *domain.DonorAlert) error {
	if alert == nil {
		return fmt.Errorf("%w: nil alert", domain.ErrInvalidInput)
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal donor alert: %w", err)
	}
	record := &kgo.Record{
		Topic: b.topic,
		Key:   []byte(alert.RequestID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "alert_id", Value: []byte(alert.ID)},
			{Key: "urgency", Value: []byte(alert.Urgency)},
		},
	}
	if err := b.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce donor alert: %w", err)
	}
	b.logger.DebugContext(ctx, "donor alert published",
		"topic", b.topic,
		"alert_id", alert.ID,
		"request_id", alert.RequestID,
		"donors", len(alert.DonorIDs),
	)
	return nil
}

// Close flushes and closes the underlying client.
func (b *KafkaBroadcaster) Close() {
	b.closer()
}

// EnsureTopic creates topic on the cluster if it does not exist yet.
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions int32, replication int16) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return fmt.Errorf("create kafka client: %w", err)
	}
	defer client.Close()

	resp, err := kadm.NewClient(client).CreateTopics(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

type noopBroadcaster struct {
	logger *slog.Logger
}

// NewNoopBroadcaster returns a Broadcaster that only logs, used when no brokers are configured.
func NewNoopBroadcaster(logger *slog.Logger) domain.Broadcaster {
	return &noopBroadcaster{logger: logger}
}

func (n *noopBroadcaster) Broadcast(ctx context.Context, alert *domain.DonorAlert) error {
	n.logger.InfoContext(ctx, "donor alert would be broadcast (noop)",
		"request_id", alert.RequestID,
		"donors", len(alert.DonorIDs),
	)
	return nil
}
