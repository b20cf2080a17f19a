package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/chris-regnier/lintel/internal/config"
)

// shutdownCtx returns a context with a short timeout for test shutdown calls,
// avoiding 10s gRPC connection timeouts when no collector is running.
func shutdownCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 1*time.Second)
}

func enabledConfig(protocol string) config.TelemetryConfig {
	return config.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		Protocol:    protocol,
		Insecure:    true,
		ServiceName: "lintel-test",
		SampleRate:  1.0,
	}
}

func TestInit_DisabledReturnsNoop(t *testing.T) {
	t.Setenv(EnvEnabled, "")

	shutdown, err := Init(context.Background(), config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		start    bool
		expected bool
	}{
		{"unset keeps config", "", true, true},
		{"false disables", "false", true, false},
		{"true enables", "true", false, true},
		{"upper case", "TRUE", false, true},
		{"mixed case", "True", false, true},
		{"one enables", "1", false, true},
		{"garbage disables", "yes please", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvEnabled, tt.env)
			got := ApplyEnv(config.TelemetryConfig{Enabled: tt.start})
			assert.Equal(t, tt.expected, got.Enabled)
		})
	}
}

func TestApplyEnv_Endpoint(t *testing.T) {
	t.Setenv(EnvEndpoint, "collector:4318")
	got := ApplyEnv(config.TelemetryConfig{Endpoint: "localhost:4317"})
	assert.Equal(t, "collector:4318", got.Endpoint)
}

func TestInit_EnvVarOverrideDisables(t *testing.T) {
	t.Setenv(EnvEnabled, "false")

	shutdown, err := Init(context.Background(), enabledConfig("grpc"))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_EnvVarOverrideEnables(t *testing.T) {
	// Exporters connect lazily, so Init succeeds without a collector.
	t.Setenv(EnvEnabled, "true")
	cfg := enabledConfig("grpc")
	cfg.Enabled = false

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, otel.GetTracerProvider())

	ctx, cancel := shutdownCtx()
	defer cancel()
	_ = shutdown(ctx)
}

func TestInit_Protocols(t *testing.T) {
	t.Setenv(EnvEnabled, "")
	for _, protocol := range []string{"grpc", "http", ""} {
		t.Run("protocol="+protocol, func(t *testing.T) {
			shutdown, err := Init(context.Background(), enabledConfig(protocol))
			require.NoError(t, err)

			ctx, cancel := shutdownCtx()
			defer cancel()
			_ = shutdown(ctx)
		})
	}
}

func TestInit_WithHeaders(t *testing.T) {
	t.Setenv(EnvEnabled, "")
	cfg := enabledConfig("grpc")
	cfg.Headers = map[string]string{"Authorization": "Bearer test-token"}

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := shutdownCtx()
	defer cancel()
	_ = shutdown(ctx)
}
