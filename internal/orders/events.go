package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types published to the order event stream
const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

// EventPublisher publishes order domain events after commit
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, order *Order, previous Status) error
	Close() error
}

// orderEvent is the message envelope written to Kafka
type orderEvent struct {
	EventType      string `json:"eventType"`
	EventID        string `json:"eventId"`
	AggregateID    string `json:"aggregateId"`
	OccurredAt     string `json:"occurredAt"`
	Version        int    `json:"version"`
	PreviousStatus string `json:"previousStatus,omitempty"`
	Data           *Order `json:"data"`
}

// KafkaPublisher implements EventPublisher using a sarama sync producer
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaPublisher creates a new Kafka publisher for order events
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Version = sarama.V2_8_0_0

	saramaConfig.Net.DialTimeout = 10 * time.Second
	saramaConfig.Net.ReadTimeout = 10 * time.Second
	saramaConfig.Net.WriteTimeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	logger.Info("Kafka producer created",
		zap.Strings("brokers", brokers),
		zap.String("topic", topic),
	)

	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}, nil
}

// Publish writes one order event, keyed by order id so that events for the
// same order stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, order *Order, previous Status) error {
	event := orderEvent{
		EventType:      eventType,
		EventID:        uuid.New().String(),
		AggregateID:    fmt.Sprintf("%d", order.ID),
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
		Version:        1,
		PreviousStatus: string(previous),
		Data:           order,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.AggregateID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}

	p.logger.Debug("order event published",
		zap.String("event_type", eventType),
		zap.Int64("order_id", order.ID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close closes the underlying producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
