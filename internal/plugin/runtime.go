package plugin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RuntimeStatus is the terminal outcome of one activation call.
type RuntimeStatus int

const (
	StatusReady RuntimeStatus = iota
	StatusFailed
	StatusCancelled
)

// FailureKind enumerates the plugin-runtime error taxonomy of §7.
type FailureKind string

const (
	FailureInvalidConfig       FailureKind = "invalid_config"
	FailureSpawnFailed         FailureKind = "spawn_failed"
	FailureTransportIO         FailureKind = "transport_io"
	FailureHandshakeRejected   FailureKind = "handshake_rejected"
	FailureProtocolMismatch    FailureKind = "protocol_mismatch"
	FailureCapabilityViolation FailureKind = "capability_violation"
	FailureProtocolViolation   FailureKind = "protocol_violation"
	FailureActivationRejected  FailureKind = "activation_rejected"
)

// ActivationOutcome is the result of one Activate call. Activated
// distinguishes a real activation attempt from a registry-level skip
// (already active, blocked by policy, failure budget exhausted) that
// reports a status without ever calling the runtime.
type ActivationOutcome struct {
	Status    RuntimeStatus
	Failure   FailureKind
	Detail    string
	ElapsedMs int64
	Activated bool
}

// CancelToken is a single shared, sequentially-consistent cancellation
// flag: once Cancel returns, every subsequent IsCancelled observes true.
type CancelToken struct {
	flag int32
}

// Cancel marks the token as cancelled.
func (c *CancelToken) Cancel() { atomic.StoreInt32(&c.flag, 1) }

// IsCancelled reports whether Cancel has been called.
func (c *CancelToken) IsCancelled() bool { return atomic.LoadInt32(&c.flag) != 0 }

// Manifest is the subset of plugin-manifest fields the runtime needs to
// activate a plugin.
type Manifest struct {
	ID           string
	Version      string
	Capabilities []Capability
}

// SessionKey returns "{plugin_id}:{plugin_version}:{sorted,deduped
// capability tags joined by ','}".
func (m Manifest) SessionKey() string {
	seen := make(map[Capability]struct{}, len(m.Capabilities))
	tags := make([]string, 0, len(m.Capabilities))
	for _, c := range m.Capabilities {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		tags = append(tags, string(c))
	}
	sort.Strings(tags)
	return fmt.Sprintf("%s:%s:%s", m.ID, m.Version, strings.Join(tags, ","))
}

// ActivationSpec parameterizes a single Activate call.
type ActivationSpec struct {
	TimeoutMs int64
}

// RuntimeConfig configures a ProcessPluginRuntime. Fields with documented
// minimums are clamped by Clamped, which NewRuntime applies.
type RuntimeConfig struct {
	Command                   string
	Args                      []string
	ExtraEnv                  map[string]string
	WatchdogIntervalMs        int64
	ProtocolVersion           int
	SupportedProtocolVersions []int
	KeepAliveSession          bool
	SessionPingTimeoutMs      int64
	MaxKeepAliveSessions      int
	SessionIdleTTLMs          int64
}

// Clamped returns a copy of cfg with every documented minimum enforced:
// WatchdogIntervalMs >= 1, SessionPingTimeoutMs >= 10,
// MaxKeepAliveSessions >= 1, SessionIdleTTLMs >= 100.
func (cfg RuntimeConfig) Clamped() RuntimeConfig {
	if cfg.WatchdogIntervalMs < 1 {
		cfg.WatchdogIntervalMs = 1
	}
	if cfg.SessionPingTimeoutMs < 10 {
		cfg.SessionPingTimeoutMs = 10
	}
	if cfg.MaxKeepAliveSessions < 1 {
		cfg.MaxKeepAliveSessions = 1
	}
	if cfg.SessionIdleTTLMs < 100 {
		cfg.SessionIdleTTLMs = 100
	}
	return cfg
}

// Telemetry accumulates counters across a runtime's lifetime.
type Telemetry struct {
	SpawnCount              int64
	SessionPingFailureCount int64
	EvictedByIdleTTLCount   int64
	EvictedByLimitCount     int64
}

type session struct {
	transport *Transport
	lastUsed  time.Time
}

// Runtime is a ProcessPluginRuntime: it spawns, handshakes with, and
// activates out-of-process plugins, optionally keeping a bounded pool of
// warm sessions alive between activations.
type Runtime struct {
	cfg RuntimeConfig

	mu           sync.Mutex
	sessions     map[string]*session
	sessionOrder []string // least-recently-used first

	Telemetry Telemetry
}

// NewRuntime returns a Runtime with cfg's documented minimums clamped.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	return &Runtime{
		cfg:      cfg.Clamped(),
		sessions: make(map[string]*session),
	}
}

// Close terminates every pooled session. Equivalent to dropping the
// runtime in the original implementation.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		s.transport.Terminate()
	}
	r.sessions = make(map[string]*session)
	r.sessionOrder = nil
}

// Activate runs the full activation state machine of §4.9 for one
// plugin/event pair.
func (r *Runtime) Activate(ctx context.Context, manifest Manifest, event string, spec ActivationSpec, cancel *CancelToken) ActivationOutcome {
	start := time.Now()
	elapsed := func() int64 { return time.Since(start).Milliseconds() }

	if cancel == nil {
		cancel = &CancelToken{}
	}

	// Step 1.
	if cancel.IsCancelled() {
		return ActivationOutcome{Status: StatusCancelled, ElapsedMs: elapsed()}
	}
	if r.cfg.Command == "" {
		return ActivationOutcome{Status: StatusFailed, Failure: FailureInvalidConfig, Detail: "empty command", ElapsedMs: elapsed()}
	}

	// Step 2.
	if r.cfg.KeepAliveSession {
		r.evictIdle()
	}

	sessionKey := manifest.SessionKey()

	// Step 3.
	transport, freshlySpawned, err := r.obtainTransport(ctx, sessionKey)
	if err != nil {
		return ActivationOutcome{Status: StatusFailed, Failure: FailureSpawnFailed, Detail: err.Error(), ElapsedMs: elapsed()}
	}

	// Step 4.
	if freshlySpawned {
		if outcome, ok := r.handshake(transport, manifest); !ok {
			transport.Terminate()
			outcome.ElapsedMs = elapsed()
			return outcome
		}
	}

	// Step 5 + 6.
	requestID := fmt.Sprintf("%s-%d", manifest.ID, start.UnixNano())
	if err := transport.Send(Activate(requestID, event, spec.TimeoutMs)); err != nil {
		transport.Terminate()
		return ActivationOutcome{Status: StatusFailed, Failure: FailureTransportIO, Detail: err.Error(), ElapsedMs: elapsed()}
	}

	deadline := start.Add(time.Duration(spec.TimeoutMs) * time.Millisecond)
	watchdog := time.Duration(r.cfg.WatchdogIntervalMs) * time.Millisecond

	var outcome ActivationOutcome
	for {
		if cancel.IsCancelled() {
			_ = transport.Send(Cancel(requestID, "cancelled"))
			outcome = ActivationOutcome{Status: StatusCancelled, ElapsedMs: elapsed()}
			break
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			_ = transport.Send(Cancel(requestID, "timeout"))
			outcome = ActivationOutcome{Status: StatusCancelled, ElapsedMs: elapsed()}
			break
		}

		waitSlice := watchdog
		if remaining < waitSlice {
			waitSlice = remaining
		}

		msg, ok, recvErr := transport.Receive(waitSlice)
		if recvErr != nil {
			outcome = ActivationOutcome{Status: StatusFailed, Failure: FailureTransportIO, Detail: recvErr.Error(), ElapsedMs: elapsed()}
			break
		}
		if !ok {
			continue // watchdog tick: re-check deadline/cancel
		}
		if msg.Kind != MessageActivateResult || msg.RequestID != requestID {
			continue
		}

		if msg.OK {
			outcome = ActivationOutcome{Status: StatusReady, ElapsedMs: elapsed()}
		} else {
			outcome = ActivationOutcome{Status: StatusFailed, Failure: FailureActivationRejected, Detail: msg.Error, ElapsedMs: elapsed()}
		}
		break
	}

	// Step 7: session disposition.
	healthy := outcome.Status == StatusReady || (outcome.Status == StatusFailed && outcome.Failure == FailureActivationRejected)
	if r.cfg.KeepAliveSession && healthy {
		r.keepSession(sessionKey, transport)
	} else {
		transport.Terminate()
	}

	return outcome
}

// obtainTransport reuses the pooled session for sessionKey if a Ping/Pong
// succeeds within SessionPingTimeoutMs, otherwise terminates the stale
// session (if any) and spawns a fresh child.
func (r *Runtime) obtainTransport(ctx context.Context, sessionKey string) (*Transport, bool, error) {
	r.mu.Lock()
	existing, ok := r.sessions[sessionKey]
	if ok {
		delete(r.sessions, sessionKey)
		r.removeFromOrder(sessionKey)
	}
	r.mu.Unlock()

	if ok {
		pingID := fmt.Sprintf("ping-%d", time.Now().UnixNano())
		if err := existing.transport.Send(Ping(pingID)); err == nil {
			msg, received, _ := existing.transport.Receive(time.Duration(r.cfg.SessionPingTimeoutMs) * time.Millisecond)
			if received && msg.Kind == MessagePong && msg.RequestID == pingID {
				return existing.transport, false, nil
			}
		}
		r.Telemetry.SessionPingFailureCount++
		existing.transport.Terminate()
	}

	transport, err := Spawn(ctx, ProcessSpec{Command: r.cfg.Command, Args: r.cfg.Args, ExtraEnv: r.cfg.ExtraEnv})
	if err != nil {
		return nil, false, err
	}
	r.Telemetry.SpawnCount++
	return transport, true, nil
}

// handshake sends a Handshake and validates the HandshakeAck per §4.9
// step 4.
func (r *Runtime) handshake(transport *Transport, manifest Manifest) (ActivationOutcome, bool) {
	err := transport.Send(Handshake(r.cfg.ProtocolVersion, r.cfg.SupportedProtocolVersions, manifest.ID, manifest.Version, manifest.Capabilities))
	if err != nil {
		return ActivationOutcome{Status: StatusFailed, Failure: FailureTransportIO, Detail: err.Error()}, false
	}

	msg, ok, recvErr := transport.Receive(time.Duration(r.cfg.SessionPingTimeoutMs) * time.Millisecond)
	if recvErr != nil {
		return ActivationOutcome{Status: StatusFailed, Failure: FailureTransportIO, Detail: recvErr.Error()}, false
	}
	if !ok {
		return ActivationOutcome{Status: StatusFailed, Failure: FailureProtocolViolation, Detail: "handshake timed out"}, false
	}
	if msg.Kind != MessageHandshakeAck {
		return ActivationOutcome{Status: StatusFailed, Failure: FailureProtocolViolation, Detail: fmt.Sprintf("unexpected message before handshake ack: %s", msg.Kind)}, false
	}
	if !msg.Accepted {
		return ActivationOutcome{Status: StatusFailed, Failure: FailureHandshakeRejected, Detail: msg.Reason}, false
	}

	supported := false
	for _, v := range r.cfg.SupportedProtocolVersions {
		if v == msg.ProtocolVersion {
			supported = true
			break
		}
	}
	if !supported {
		return ActivationOutcome{Status: StatusFailed, Failure: FailureProtocolMismatch, Detail: fmt.Sprintf("unsupported protocol version %d", msg.ProtocolVersion)}, false
	}

	declared := make(map[Capability]struct{}, len(manifest.Capabilities))
	for _, c := range manifest.Capabilities {
		declared[c] = struct{}{}
	}
	for _, c := range msg.ReportedCapabilities {
		if _, ok := declared[c]; !ok {
			return ActivationOutcome{Status: StatusFailed, Failure: FailureCapabilityViolation, Detail: fmt.Sprintf("reported capability %q not declared", c)}, false
		}
	}

	return ActivationOutcome{Status: StatusReady}, true
}

// keepSession stores transport as the MRU session for sessionKey and
// evicts LRU sessions until the pool respects MaxKeepAliveSessions.
func (r *Runtime) keepSession(sessionKey string, transport *Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionKey] = &session{transport: transport, lastUsed: time.Now()}
	r.removeFromOrder(sessionKey)
	r.sessionOrder = append(r.sessionOrder, sessionKey)

	for len(r.sessionOrder) > r.cfg.MaxKeepAliveSessions {
		lru := r.sessionOrder[0]
		r.sessionOrder = r.sessionOrder[1:]
		if s, ok := r.sessions[lru]; ok {
			s.transport.Terminate()
			delete(r.sessions, lru)
			r.Telemetry.EvictedByLimitCount++
		}
	}
}

// evictIdle terminates every pooled session whose idle time is >=
// SessionIdleTTLMs.
func (r *Runtime) evictIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()

	ttl := time.Duration(r.cfg.SessionIdleTTLMs) * time.Millisecond
	now := time.Now()

	var kept []string
	for _, key := range r.sessionOrder {
		s, ok := r.sessions[key]
		if !ok {
			continue
		}
		if now.Sub(s.lastUsed) >= ttl {
			s.transport.Terminate()
			delete(r.sessions, key)
			r.Telemetry.EvictedByIdleTTLCount++
			continue
		}
		kept = append(kept, key)
	}
	r.sessionOrder = kept
}

func (r *Runtime) removeFromOrder(key string) {
	for i, k := range r.sessionOrder {
		if k == key {
			r.sessionOrder = append(r.sessionOrder[:i], r.sessionOrder[i+1:]...)
			return
		}
	}
}
