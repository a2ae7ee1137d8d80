package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher mirrors ledger entries onto a Kafka topic for downstream
// consumers (SIEM, reporting). The persisted ledger stays authoritative; a
// publish failure only surfaces as a worker warning.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// NewKafkaPublisher connects to the given brokers and ensures the topic
// exists before first use.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordRetries(3),
		kgo.RetryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &KafkaPublisher{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	topics, err := admin.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}
	if topics.Has(topic) {
		return nil
	}
	if _, err := admin.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		return fmt.Errorf("create kafka topic %q: %w", topic, err)
	}
	return nil
}

type entryEvent struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	ActorID       string    `json:"actor_id"`
	ActorType     string    `json:"actor_type"`
	Action        string    `json:"action"`
	TargetAccount string    `json:"target_account,omitempty"`
	Module        string    `json:"module,omitempty"`
	Details       string    `json:"details,omitempty"`
	Outcome       string    `json:"outcome"`
	Timestamp     time.Time `json:"timestamp"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entryEvent{
		ID:            entry.ID.String(),
		Kind:          string(entry.Kind),
		ActorID:       entry.ActorID.String(),
		ActorType:     entry.ActorType,
		Action:        string(entry.Action),
		TargetAccount: entry.TargetAccount,
		Module:        entry.Module,
		Details:       entry.Details,
		Outcome:       string(entry.Outcome),
		Timestamp:     entry.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.ActorID.String()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
