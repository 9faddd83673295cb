package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/websitedesigna/tastygrill/models"
)

// Producer writes order events to a topic, keyed by order id so every
// change to one order lands on the same partition.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{writer: writer, topic: topic}
}

func (p *Producer) Name() string { return "kafka" }

func (p *Producer) Send(ctx context.Context, evt models.OrderEvent) error {
	msg, err := EncodeEvent(evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func EncodeEvent(evt models.OrderEvent) (kafka.Message, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(evt.OrderID.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
			{Key: "source", Value: []byte(evt.Source)},
		},
		Time: evt.OccurredAt,
	}, nil
}
