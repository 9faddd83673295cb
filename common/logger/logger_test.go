package logger

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())

	var fromGin, fromRequest string
	r.GET("/", func(c *gin.Context) {
		fromGin = RequestIDFrom(c)
		fromRequest = RequestIDFrom(c.Request.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", fromGin)
	assert.Equal(t, "abc-123", fromRequest)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestWithAddsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core)

	With(WithRequestID(context.Background(), "rid-1"), l).Info("hello")
	With(context.Background(), l).Info("bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "rid-1", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestInitializeWithShipWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := Initialize("production", &buf)
	require.NoError(t, err)

	l.Info("shipped", zap.String("k", "v"))
	_ = l.Sync()

	assert.Contains(t, buf.String(), `"msg":"shipped"`)
	assert.Same(t, l, Log)
}
