package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitializeOTel_TracingEnabled(t *testing.T) {
	var buf bytes.Buffer
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "creditstudy-test",
		ServiceVersion: "0.0.1",
		EnableTracing:  true,
		TraceWriter:    &buf,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)

	ctx, end := providers.StartStage(context.Background(), "split",
		attribute.Int64("seed", 2468))
	end(nil)
	require.NoError(t, providers.Shutdown(ctx))

	out := buf.String()
	assert.Contains(t, out, "split")
	assert.Contains(t, out, "creditstudy-test")
}

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{EnableTracing: false}, nil)
	require.NoError(t, err)
	assert.Nil(t, providers.TracerProvider)

	// stage helpers still work against the noop tracer
	ctx, end := providers.StartStage(context.Background(), "load")
	end(errors.New("boom"))
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestInitializeOTel_DefaultsWhenNil(t *testing.T) {
	providers, err := InitializeOTel(nil, nil)
	require.NoError(t, err)
	require.NotNil(t, providers.Tracer)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })
}
