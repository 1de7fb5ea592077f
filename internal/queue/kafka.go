package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"todoshare/internal/config"
	"todoshare/pkg/logger"
	"todoshare/pkg/models"
)

// EnsureTopic creates the change topic with configured partitions (idempotent).
// Call at startup; if it fails (e.g. no broker or topic exists), app still runs.
func EnsureTopic(ctx context.Context, cfg *config.Config) {
	if !cfg.KafkaEnabled() {
		return
	}
	conn, err := kafka.DialContext(ctx, "tcp", cfg.KafkaBrokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()
	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             cfg.KafkaTopic,
		NumPartitions:     cfg.KafkaPartitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug(ctx, "Kafka create topic failed (topic may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topic ensured", "topic", cfg.KafkaTopic, "partitions", cfg.KafkaPartitions)
}

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes row changes to the change topic.
type Publisher struct {
	w MessageWriter
}

// flushInterval bounds how long a synchronous write waits for its batch.
const flushInterval = 5 * time.Millisecond

// NewWriter builds the change-topic producer. Messages are hashed by key so
// all changes of one owner stay on one partition, in order.
func NewWriter(cfg *config.Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: flushInterval,
		RequiredAcks: kafka.RequireOne,
	}
}

func NewPublisher(w MessageWriter) *Publisher {
	return &Publisher{w: w}
}

// Publish sends c keyed by the owner of the changed row.
func (p *Publisher) Publish(ctx context.Context, c models.Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	key := c.Table
	if rec, err := c.Record(); err == nil {
		if owner, ok := rec["owner_id"].(string); ok {
			key = owner
		}
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload}); err != nil {
		return fmt.Errorf("publish %s %s: %w", c.Table, c.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
