package aws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledMetricsClientIsNoop(t *testing.T) {
	m := NewMetricsClient(sdkaws.Config{Region: "eu-west-2"}, "", false)

	assert.False(t, m.IsEnabled())
	assert.NoError(t, m.RecordCount(context.Background(), MetricOrdersCreated, nil))
	assert.NoError(t, m.RecordLatency(context.Background(), MetricCheckoutLatency, time.Second, map[string]string{"Service": "x"}))

	var nilClient *MetricsClient
	assert.False(t, nilClient.IsEnabled())
	assert.NoError(t, nilClient.RecordCount(context.Background(), MetricOrdersCreated, nil))
}

func TestRecordCountAsyncDoesNotWaitForCloudWatch(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	m := NewMetricsClient(sdkaws.Config{
		Region:       "eu-west-2",
		BaseEndpoint: sdkaws.String(srv.URL),
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
	}, "", true)

	done := make(chan struct{})
	go func() {
		m.RecordCountAsync(MetricOrdersCreated, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RecordCountAsync blocked on the metrics endpoint")
	}
	require.Eventually(t, func() bool { return hits.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	var nilClient *MetricsClient
	nilClient.RecordCountAsync(MetricOrdersCreated, nil)
	nilClient.RecordLatencyAsync(MetricCheckoutLatency, time.Second, nil)
}

func TestToDimensionsIsSorted(t *testing.T) {
	dims := toDimensions(map[string]string{"Status": "2xx", "Method": "GET", "Path": "/menu"})

	require.Len(t, dims, 3)
	assert.Equal(t, "Method", *dims[0].Name)
	assert.Equal(t, "Path", *dims[1].Name)
	assert.Equal(t, "Status", *dims[2].Name)
}

func TestParseSecretMap(t *testing.T) {
	m, err := ParseSecretMap(`{"POSTGRES_PASSWORD":"s3cret","STRIPE_SECRET_KEY":"sk_test"}`)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", m["POSTGRES_PASSWORD"])

	_, err = ParseSecretMap("not json")
	assert.Error(t, err)
}

func TestLoadAWSConfig_LocalEndpoint(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	ctx := context.Background()

	cfg, err := LoadAWSConfig(ctx, "eu-west-2", "http://localhost:4566")
	require.NoError(t, err)

	assert.Equal(t, "eu-west-2", cfg.Region)
	require.NotNil(t, cfg.BaseEndpoint)
	assert.Equal(t, "http://localhost:4566", *cfg.BaseEndpoint)
	creds, err := cfg.Credentials.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)
}
