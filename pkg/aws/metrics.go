package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const asyncPutTimeout = 5 * time.Second

// MetricsClient writes custom metrics to CloudWatch. A disabled client
// accepts every call and does nothing.
type MetricsClient struct {
	client    *cloudwatch.Client
	namespace string
	enabled   bool
}

func NewMetricsClient(cfg sdkaws.Config, namespace string, enabled bool) *MetricsClient {
	if namespace == "" {
		namespace = "TastyGrill"
	}
	return &MetricsClient{
		client:    cloudwatch.NewFromConfig(cfg),
		namespace: namespace,
		enabled:   enabled,
	}
}

func (m *MetricsClient) PutMetric(ctx context.Context, metricName string, value float64, unit types.StandardUnit, dimensions map[string]string) error {
	if m == nil || !m.enabled {
		return nil
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: sdkaws.String(metricName),
				Value:      sdkaws.Float64(value),
				Unit:       unit,
				Timestamp:  sdkaws.Time(time.Now()),
				Dimensions: toDimensions(dimensions),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put metric: %w", err)
	}
	return nil
}

func toDimensions(dimensions map[string]string) []types.Dimension {
	keys := make([]string, 0, len(dimensions))
	for k := range dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dims := make([]types.Dimension, 0, len(keys))
	for _, k := range keys {
		dims = append(dims, types.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(dimensions[k])})
	}
	return dims
}

func (m *MetricsClient) RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error {
	return m.PutMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions)
}

// RecordLatency records a duration in milliseconds.
func (m *MetricsClient) RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error {
	return m.PutMetric(ctx, metricName, float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
}

func (m *MetricsClient) RecordValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error {
	return m.PutMetric(ctx, metricName, value, types.StandardUnitNone, dimensions)
}

// RecordCountAsync sends a count from its own goroutine so request paths do
// not wait on CloudWatch.
func (m *MetricsClient) RecordCountAsync(metricName string, dimensions map[string]string) {
	m.async(func(ctx context.Context) error { return m.RecordCount(ctx, metricName, dimensions) })
}

func (m *MetricsClient) RecordLatencyAsync(metricName string, duration time.Duration, dimensions map[string]string) {
	m.async(func(ctx context.Context) error { return m.RecordLatency(ctx, metricName, duration, dimensions) })
}

func (m *MetricsClient) async(put func(ctx context.Context) error) {
	if !m.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPutTimeout)
		defer cancel()
		_ = put(ctx)
	}()
}

func (m *MetricsClient) IsEnabled() bool {
	return m != nil && m.enabled
}

const (
	MetricHTTPRequests = "HTTPRequests"
	MetricHTTPErrors   = "HTTPErrors"
	MetricHTTPLatency  = "HTTPLatency"
	MetricHTTP4xx      = "HTTP4xxErrors"
	MetricHTTP5xx      = "HTTP5xxErrors"

	MetricOrdersCreated     = "OrdersCreated"
	MetricOrdersFailed      = "OrdersFailed"
	MetricOrderStatusChange = "OrderStatusChanged"
	MetricPaymentSucceeded  = "PaymentSucceeded"
	MetricPaymentFailed     = "PaymentFailed"
	MetricCheckoutStarted   = "CheckoutStarted"
	MetricCheckoutLatency   = "CheckoutLatency"

	MetricCacheHits        = "CacheHits"
	MetricCacheMisses      = "CacheMisses"
	MetricEventsReceived   = "OrderEventsReceived"
	MetricDashboardClients = "DashboardClients"
)
