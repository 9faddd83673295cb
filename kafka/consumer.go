package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/websitedesigna/tastygrill/models"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, evt models.OrderEvent) error

type Consumer struct {
	reader *kafka.Reader
	log    *zap.Logger
}

// NewConsumer reads the order events topic. Each instance should use its
// own group id so every instance sees every event.
func NewConsumer(brokers []string, topic, groupID string, log *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    1e6,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{
		reader: reader,
		log:    log.With(zap.String("topic", topic), zap.String("group_id", groupID)),
	}
}

// Run consumes until ctx is cancelled. Malformed messages and handler
// errors are logged and skipped.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	c.log.Info("kafka consumer started")
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				c.log.Info("kafka consumer stopped")
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		evt, err := DecodeEvent(m)
		if err != nil {
			c.log.Warn("invalid order event", zap.Int64("offset", m.Offset), zap.Error(err))
			continue
		}
		if err := handle(ctx, evt); err != nil {
			c.log.Warn("order event handler failed",
				zap.String("order_id", evt.OrderID.String()),
				zap.Error(err),
			)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func DecodeEvent(m kafka.Message) (models.OrderEvent, error) {
	var evt models.OrderEvent
	if err := json.Unmarshal(m.Value, &evt); err != nil {
		return evt, err
	}
	if evt.Type == "" {
		return evt, errors.New("missing event type")
	}
	return evt, nil
}
