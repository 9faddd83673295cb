package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

// MessageHandler processes one message body. Returning an error leaves the
// message on the queue until its visibility timeout expires.
type MessageHandler func(ctx context.Context, body string) error

// SQSConsumer long-polls a queue.
type SQSConsumer struct {
	client   *sqs.Client
	queueURL string
	log      *zap.Logger
}

func NewSQSConsumer(cfg sdkaws.Config, queueURL string, log *zap.Logger) *SQSConsumer {
	return &SQSConsumer{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
		log:      log.With(zap.String("queue_url", queueURL)),
	}
}

// StartPolling receives and dispatches messages until ctx is cancelled.
func (c *SQSConsumer) StartPolling(ctx context.Context, handler MessageHandler) error {
	c.log.Info("sqs polling started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info("sqs polling stopped")
			return ctx.Err()
		default:
		}
		if err := c.pollOnce(ctx, handler); err != nil && ctx.Err() == nil {
			c.log.Warn("sqs poll failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func (c *SQSConsumer) pollOnce(ctx context.Context, handler MessageHandler) error {
	result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            sdkaws.String(c.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
		VisibilityTimeout:   30,
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, msg := range result.Messages {
		if msg.Body == nil {
			continue
		}
		if err := handler(ctx, *msg.Body); err != nil {
			c.log.Warn("sqs message handling failed", zap.String("message_id", sdkaws.ToString(msg.MessageId)), zap.Error(err))
			continue
		}
		if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      sdkaws.String(c.queueURL),
			ReceiptHandle: msg.ReceiptHandle,
		}); err != nil {
			c.log.Warn("sqs delete failed", zap.Error(err))
		}
	}
	return nil
}
