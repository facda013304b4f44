package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{ServiceName: "memllm"}.Enabled())
	assert.True(t, Config{JaegerEndpoint: "http://localhost:14268/api/traces"}.Enabled())
}

func TestProviderSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer := NewTracerWithExporter("tracing-test", exporter)
	defer tracer.Shutdown(context.Background())

	ctx, span := StartProviderSpan(context.Background(), tracer.Tracer(), "llms.generate", "openai_like", "gpt-4o")
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))

	RecordSpanTokens(span, 10, 5)
	EndSpan(span, 20*time.Millisecond, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "llms.generate", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	attrs := attrMap(spans[0].Attributes)
	assert.Equal(t, "openai_like", attrs["llm.provider"].AsString())
	assert.Equal(t, "gpt-4o", attrs["llm.model"].AsString())
	assert.Equal(t, int64(15), attrs["tokens.total"].AsInt64())
	assert.Equal(t, 20.0, attrs["duration_ms"].AsFloat64())
}

func TestEndSpan_Error(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer := NewTracerWithExporter("tracing-test", exporter)
	defer tracer.Shutdown(context.Background())

	_, span := StartProviderSpan(context.Background(), tracer.Tracer(), "embeddings.embed", "ollama", "nomic-embed-text")
	EndSpan(span, time.Millisecond, errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "connection refused", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestIDsWithoutSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))
	assert.NotNil(t, Default(nil))
}
