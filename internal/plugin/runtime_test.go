package plugin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePluginScript is a POSIX shell one-liner standing in for a child
// plugin: it handshakes successfully, accepts every activation, and
// answers pings, echoing back whatever request_id it was sent.
const fakePluginScript = `while IFS= read -r line; do
  case "$line" in
    *'"kind":"handshake"'*)
      printf '%s\n' '{"kind":"handshake_ack","protocol_version":2,"accepted":true,"reported_capabilities":[]}'
      ;;
    *'"kind":"activate"'*)
      rid=$(printf '%s' "$line" | sed -n 's/.*"request_id":"\([^"]*\)".*/\1/p')
      printf '%s\n' "{\"kind\":\"activate_result\",\"request_id\":\"$rid\",\"ok\":true}"
      ;;
    *'"kind":"ping"'*)
      rid=$(printf '%s' "$line" | sed -n 's/.*"request_id":"\([^"]*\)".*/\1/p')
      printf '%s\n' "{\"kind\":\"pong\",\"request_id\":\"$rid\"}"
      ;;
  esac
done`

func fakePluginConfig() RuntimeConfig {
	return RuntimeConfig{
		Command:                   "sh",
		Args:                      []string{"-c", fakePluginScript},
		WatchdogIntervalMs:        10,
		ProtocolVersion:           2,
		SupportedProtocolVersions: []int{2},
		SessionPingTimeoutMs:      500,
		MaxKeepAliveSessions:      2,
		SessionIdleTTLMs:          200,
	}
}

func testManifest() Manifest {
	return Manifest{ID: "plugin.demo", Version: "1.0.0", Capabilities: []Capability{CapabilityReadVault}}
}

func TestRuntimeConfig_ClampsMinimums(t *testing.T) {
	cfg := RuntimeConfig{}.Clamped()
	assert.Equal(t, int64(1), cfg.WatchdogIntervalMs)
	assert.Equal(t, int64(10), cfg.SessionPingTimeoutMs)
	assert.Equal(t, 1, cfg.MaxKeepAliveSessions)
	assert.Equal(t, int64(100), cfg.SessionIdleTTLMs)
}

func TestRuntime_ActivateSucceedsAndTerminatesWithoutKeepAlive(t *testing.T) {
	rt := NewRuntime(fakePluginConfig())
	defer rt.Close()

	outcome := rt.Activate(context.Background(), testManifest(), "on_startup", ActivationSpec{TimeoutMs: 2000}, nil)
	require.Equal(t, StatusReady, outcome.Status)
	assert.Equal(t, int64(1), rt.Telemetry.SpawnCount)

	rt.mu.Lock()
	sessionCount := len(rt.sessions)
	rt.mu.Unlock()
	assert.Zero(t, sessionCount)
}

func TestRuntime_KeepAliveReusesSessionViaPing(t *testing.T) {
	cfg := fakePluginConfig()
	cfg.KeepAliveSession = true
	rt := NewRuntime(cfg)
	defer rt.Close()

	first := rt.Activate(context.Background(), testManifest(), "on_startup", ActivationSpec{TimeoutMs: 2000}, nil)
	require.Equal(t, StatusReady, first.Status)

	second := rt.Activate(context.Background(), testManifest(), "on_startup", ActivationSpec{TimeoutMs: 2000}, nil)
	require.Equal(t, StatusReady, second.Status)

	assert.Equal(t, int64(1), rt.Telemetry.SpawnCount, "second activation should reuse the pooled session")
}

func TestRuntime_KeepAliveEvictsAfterIdleTTL(t *testing.T) {
	cfg := fakePluginConfig()
	cfg.KeepAliveSession = true
	cfg.SessionIdleTTLMs = 100
	rt := NewRuntime(cfg)
	defer rt.Close()

	first := rt.Activate(context.Background(), testManifest(), "on_startup", ActivationSpec{TimeoutMs: 2000}, nil)
	require.Equal(t, StatusReady, first.Status)

	time.Sleep(150 * time.Millisecond)

	second := rt.Activate(context.Background(), testManifest(), "on_startup", ActivationSpec{TimeoutMs: 2000}, nil)
	require.Equal(t, StatusReady, second.Status)

	assert.Equal(t, int64(2), rt.Telemetry.SpawnCount)
	assert.Equal(t, int64(1), rt.Telemetry.EvictedByIdleTTLCount)
}

func TestRuntime_RejectsEmptyCommand(t *testing.T) {
	rt := NewRuntime(RuntimeConfig{})
	outcome := rt.Activate(context.Background(), testManifest(), "on_startup", ActivationSpec{TimeoutMs: 100}, nil)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, FailureInvalidConfig, outcome.Failure)
}

func TestRuntime_PreCancelledReturnsCancelledImmediately(t *testing.T) {
	rt := NewRuntime(fakePluginConfig())
	defer rt.Close()

	cancel := &CancelToken{}
	cancel.Cancel()

	outcome := rt.Activate(context.Background(), testManifest(), "on_startup", ActivationSpec{TimeoutMs: 2000}, cancel)
	assert.Equal(t, StatusCancelled, outcome.Status)
}

func TestRuntime_MaxKeepAliveSessionsEvictsLRU(t *testing.T) {
	cfg := fakePluginConfig()
	cfg.KeepAliveSession = true
	cfg.MaxKeepAliveSessions = 1
	rt := NewRuntime(cfg)
	defer rt.Close()

	m1 := Manifest{ID: "plugin.one", Version: "1.0.0"}
	m2 := Manifest{ID: "plugin.two", Version: "1.0.0"}

	o1 := rt.Activate(context.Background(), m1, "on_startup", ActivationSpec{TimeoutMs: 2000}, nil)
	require.Equal(t, StatusReady, o1.Status)
	o2 := rt.Activate(context.Background(), m2, "on_startup", ActivationSpec{TimeoutMs: 2000}, nil)
	require.Equal(t, StatusReady, o2.Status)

	rt.mu.Lock()
	sessionCount := len(rt.sessions)
	rt.mu.Unlock()
	assert.Equal(t, 1, sessionCount)
	assert.Equal(t, int64(1), rt.Telemetry.EvictedByLimitCount)
}
