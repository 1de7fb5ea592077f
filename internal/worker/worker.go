package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"todoshare/internal/config"
	"todoshare/internal/realtime"
	"todoshare/pkg/logger"
	"todoshare/pkg/models"
)

// Dispatcher hands changes to the local realtime hub. Without Kafka it is
// also the publisher the controllers write to.
type Dispatcher struct {
	hub       *realtime.Hub
	processed atomic.Int64
}

func NewDispatcher(hub *realtime.Hub) *Dispatcher {
	return &Dispatcher{hub: hub}
}

// Publish broadcasts c to this process's subscribers.
func (d *Dispatcher) Publish(ctx context.Context, c models.Change) error {
	if !models.IsKnownTable(c.Table) {
		return fmt.Errorf("change for unknown table %q", c.Table)
	}
	n := d.hub.Broadcast(ctx, c)
	d.processed.Add(1)
	logger.Debug(ctx, "Change dispatched", "table", c.Table, "type", c.Type, "subscribers", n)
	return nil
}

// Processed is the number of changes dispatched so far.
func (d *Dispatcher) Processed() int64 {
	return d.processed.Load()
}

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewReader builds a change-topic consumer in a group of its own, so every
// replica sees every change. A fresh group starts at the newest offset:
// clients that connect later refetch instead of replaying history.
func NewReader(cfg *config.Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic,
		GroupID:     "realtime-" + uuid.NewString(),
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
}

// Run consumes the change topic until ctx is done, dispatching each change
// to the local hub.
func Run(ctx context.Context, reader MessageReader, d *Dispatcher) {
	defer reader.Close()
	logger.Info(ctx, "Kafka change consumer started")
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "Kafka change consumer stopped", "processed", d.Processed())
				return
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, d, msg.Value); err != nil {
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
			// Commit anyway to avoid poison pill blocking the partition
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
	}
}

func handleMessage(ctx context.Context, d *Dispatcher, payload []byte) error {
	var c models.Change
	if err := json.Unmarshal(payload, &c); err != nil {
		return fmt.Errorf("decode change: %w", err)
	}
	return d.Publish(ctx, c)
}
