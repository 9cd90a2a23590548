package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestNewEvent_Fields(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("CST", 8*3600))
	event, err := NewEvent("cart.added", "visitor-1", "storefront", at, map[string]string{"product_id": "1"})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "cart.added", event.EventType)
	assert.Equal(t, "visitor-1", event.Key)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, time.UTC, event.OccurredAt.Location())
	assert.True(t, at.Equal(event.OccurredAt))

	var data map[string]string
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, "1", data["product_id"])
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("cart.added", "v", "storefront", time.Now(), make(chan int))
	require.Error(t, err)
}

func TestEvent_WithMetadataAndCorrelation(t *testing.T) {
	event, err := NewEvent("checkout.started", "v", "storefront", time.Now(), nil)
	require.NoError(t, err)

	event.WithCorrelationID("corr-1").WithMetadata("language", "zh")
	raw, err := event.Marshal()
	require.NoError(t, err)

	var restored Event
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.Equal(t, event.EventID, restored.EventID)
	assert.Equal(t, "corr-1", restored.CorrelationID)
	assert.Equal(t, "zh", restored.Metadata["language"])
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "codenexus.storefront.checkout", Topic("storefront", "checkout"))
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"b1:9092", "b2:9092"})
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
	assert.False(t, cfg.Async)
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, discardLogger())
	topic := Topic("test", "publish")

	event, err := NewEvent("cart.added", "visitor-9", "storefront", time.Now(), nil)
	require.NoError(t, err)
	event.WithCorrelationID("req-7")

	require.NoError(t, p.Publish(context.Background(), topic, event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, topic, msg.Topic)
	assert.Equal(t, "visitor-9", string(msg.Key))
	assert.Equal(t, "cart.added", header(msg, "event_type"))
	assert.Equal(t, "storefront", header(msg, "source"))
	assert.Equal(t, "req-7", header(msg, "correlation_id"))
	assert.Equal(t, 1.0, testutil.ToFloat64(messagesPublished.WithLabelValues(topic, "cart.added")))
	assert.Equal(t, 1, testutil.CollectAndCount(messageBytes.WithLabelValues(topic).(prometheus.Histogram)))
}

func TestProducer_Publish_InjectsTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	event, err := NewEvent("checkout.confirmed", "v", "storefront", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, NewProducerWithWriter(w, nil, discardLogger()).Publish(ctx, "t", event))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", header(w.msgs[0], "traceparent"))
}

func TestProducer_Publish_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	topic := Topic("test", "error")
	event, err := NewEvent("cart.added", "v", "storefront", time.Now(), nil)
	require.NoError(t, err)

	err = NewProducerWithWriter(w, nil, discardLogger()).Publish(context.Background(), topic, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event to "+topic)
	assert.Equal(t, 1.0, testutil.ToFloat64(publishErrors.WithLabelValues(topic)))
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewProducerWithWriter(w, nil, discardLogger()).Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}
