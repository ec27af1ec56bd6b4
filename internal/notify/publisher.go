// Package notify publishes progression events for other services to consume.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/gymrpg/internal/telemetry/tracing"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const EventTypeLevelUp = "level_up"

// LevelUp is emitted once per sync push that raised the owner's level.
type LevelUp struct {
	OwnerKey        string    `json:"owner_key"`
	Username        string    `json:"username"`
	PreviousLevel   int       `json:"previous_level"`
	Level           int       `json:"level"`
	TotalExperience int       `json:"total_experience"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher writes to topic synchronously, waiting for all in-sync replicas.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
		Async:                  false,
	})
}

func NewKafkaPublisherWithWriter(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
	}
}

// PublishLevelUp keys the message by owner so one owner's events stay ordered.
func (p *KafkaPublisher) PublishLevelUp(ctx context.Context, event LevelUp) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "notify.kafka.levelup")
	span.SetAttributes(
		attribute.String("owner", event.OwnerKey),
		attribute.Int("level", event.Level),
	)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	value, err := json.Marshal(envelope{Type: EventTypeLevelUp, Payload: event})
	if err != nil {
		return fmt.Errorf("marshal level up event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OwnerKey),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(EventTypeLevelUp)},
		},
		Time: event.OccurredAt,
	}); err != nil {
		return fmt.Errorf("write level up event: %w", err)
	}

	log.Debugf("level up event published: owner [%s] level %d -> %d", event.OwnerKey, event.PreviousLevel, event.Level)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event; used when kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishLevelUp(_ context.Context, event LevelUp) error {
	log.Tracef("kafka disabled, dropping level up event of owner [%s]", event.OwnerKey)
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
