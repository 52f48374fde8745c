package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider_StdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewProvider("sds-api", ExporterStdout, &buf)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "directory.search")
	span.End()
	require.NoError(t, Shutdown(context.Background(), tp))

	assert.Contains(t, buf.String(), `"Name":"directory.search"`)
	assert.Contains(t, buf.String(), "sds-api")
}

func TestNewProvider_NoneRecordsThroughExtraProcessors(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp, err := NewProvider("sds-api", ExporterNone, nil, sdktrace.WithSpanProcessor(sr))
	require.NoError(t, err)
	defer func() { _ = Shutdown(context.Background(), tp) }()

	_, span := tp.Tracer("test").Start(context.Background(), "request")
	span.End()

	require.Len(t, sr.Ended(), 1)
	assert.Equal(t, "request", sr.Ended()[0].Name())
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider("sds-api", "zipkin", nil)
	assert.EqualError(t, err, `unknown trace exporter "zipkin"`)
}
