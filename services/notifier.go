package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/websitedesigna/tastygrill/models"
	awspkg "github.com/websitedesigna/tastygrill/pkg/aws"
)

// Notifier delivers a user-facing notification. It never blocks the caller
// on delivery and never fails it.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n models.Notification) {
	fields := []zap.Field{
		zap.String("level", string(n.Level)),
		zap.String("kind", n.Kind),
		zap.String("message", n.Message),
	}
	if n.UserID != nil {
		fields = append(fields, zap.String("user_id", n.UserID.String()))
	}
	if n.OrderID != nil {
		fields = append(fields, zap.String("order_id", n.OrderID.String()))
	}
	l.log.Info("notification", fields...)
}

// SNSNotifier publishes notifications to the notifications topic, where a
// mailer or push service can pick them up.
type SNSNotifier struct {
	client   awspkg.SNSPublisher
	topicArn string
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewSNSNotifier(client awspkg.SNSPublisher, topicArn string, log *zap.Logger) *SNSNotifier {
	return &SNSNotifier{client: client, topicArn: topicArn, log: log}
}

func (s *SNSNotifier) Notify(ctx context.Context, n models.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		s.log.Warn("notification encode failed", zap.Error(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		attrs := map[string]string{"kind": n.Kind, "level": string(n.Level)}
		if err := s.client.Publish(pubCtx, s.topicArn, data, attrs); err != nil {
			s.log.Warn("notification publish failed", zap.String("kind", n.Kind), zap.Error(err))
		}
	}()
}

// Wait blocks until pending publishes are done.
func (s *SNSNotifier) Wait() {
	s.wg.Wait()
}

type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n models.Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
