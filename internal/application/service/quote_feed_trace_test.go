package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/testutils"
)

func TestRefreshRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	src := testutils.NewScriptedSource()
	src.Set("AAA", testutils.Response{Quote: model.Quote{Current: 2, Open: 1}})
	src.Set("BBB", testutils.Response{Err: errors.New("timeout")})

	feed := NewQuoteFeed(src, []string{"AAA", "BBB"}, time.Second, discardLogger(), WithTracer(tp.Tracer("test")))
	_, published := feed.Refresh(context.Background())
	require.True(t, published)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "feed.refresh", spans[0].Name())

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(1), attrs["feed.cycle"].AsInt64())
	assert.Equal(t, "scripted", attrs["feed.source"].AsString())
	assert.Equal(t, int64(1), attrs["feed.quotes"].AsInt64())
	assert.Equal(t, int64(1), attrs["feed.dropped"].AsInt64())
	assert.True(t, attrs["feed.published"].AsBool())
}
