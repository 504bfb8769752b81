package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ActivationEvent names a host event a plugin manifest subscribes to,
// e.g. "on_startup" or "on_command:vault.save".
type ActivationEvent string

// PluginState is the lifecycle state of a registered plugin.
type PluginState string

const (
	StateRegistered PluginState = "registered"
	StateActivating PluginState = "activating"
	StateActive     PluginState = "active"
	StateFailed     PluginState = "failed"
	StateDisabled   PluginState = "disabled"
	StateCancelled  PluginState = "cancelled"
)

// Policy gates capabilities a manifest may declare and bounds the host's
// plugin-activation loop: how many consecutive failures before a plugin is
// disabled, and how long one activation may run before being cancelled.
type Policy struct {
	AllowNetwork         bool
	MaxFailedActivations uint32
	ActivationTimeoutMs  int64
}

// DefaultPolicy returns the host's default plugin policy: network access
// denied, three consecutive failures before disabling, a 2s activation
// timeout.
func DefaultPolicy() Policy {
	return Policy{AllowNetwork: false, MaxFailedActivations: 3, ActivationTimeoutMs: 2000}
}

// maxFailedActivations returns p's failure budget clamped to at least 1.
func (p Policy) maxFailedActivations() uint32 {
	if p.MaxFailedActivations < 1 {
		return 1
	}
	return p.MaxFailedActivations
}

// PluginManifest is the full manifest a plugin registers with.
type PluginManifest struct {
	ID               string
	DisplayName      string
	Version          string
	ActivationEvents []ActivationEvent
	Capabilities     []Capability
	CommandAllowlist []string
	RuntimeConfig    RuntimeConfig
}

func (m PluginManifest) hasCapability(c Capability) bool {
	for _, cap_ := range m.Capabilities {
		if cap_ == c {
			return true
		}
	}
	return false
}

func (m PluginManifest) allowsCommand(name string) bool {
	for _, c := range m.CommandAllowlist {
		if c == name {
			return true
		}
	}
	return false
}

// Validate checks manifest well-formedness against policy's capability
// gates. The error strings for network/commands violations are part of
// the registry's observable contract.
func (m PluginManifest) Validate(policy Policy) error {
	if m.ID == "" {
		return fmt.Errorf("plugin manifest: id must not be empty")
	}
	if m.DisplayName == "" {
		return fmt.Errorf("plugin manifest: display_name must not be empty")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin manifest: version must not be empty")
	}
	if len(m.ActivationEvents) == 0 {
		return fmt.Errorf("plugin manifest: activation_events must not be empty")
	}
	if m.hasCapability(CapabilityNetwork) && !policy.AllowNetwork {
		return fmt.Errorf("network capability is blocked by policy")
	}
	if len(m.CommandAllowlist) > 0 && !m.hasCapability(CapabilityCommands) {
		return fmt.Errorf("plugin manifest: command_allowlist requires the commands capability")
	}
	for _, ev := range m.ActivationEvents {
		name, isCommand := commandEventTarget(ev)
		if !isCommand {
			continue
		}
		if !m.hasCapability(CapabilityCommands) {
			return fmt.Errorf("plugin manifest: activation event %q requires the commands capability", ev)
		}
		if !m.allowsCommand(name) {
			return fmt.Errorf("plugin manifest: activation event %q is not in command_allowlist", ev)
		}
	}
	return nil
}

func commandEventTarget(ev ActivationEvent) (string, bool) {
	const prefix = "on_command:"
	s := string(ev)
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}

// PluginRecord tracks one registered plugin's manifest, runtime, state,
// and lifecycle counters.
type PluginRecord struct {
	Manifest          PluginManifest
	State             PluginState
	ActivationCount   int
	FailureCount      int
	CancelledAttempts int
	TotalActivationMs int64
	LastError         string
	LastElapsedMs     int64

	runtime *Runtime
}

// Registry holds every registered plugin manifest and dispatches host
// events to the ones subscribed to them, gated by a single host-wide
// Policy.
type Registry struct {
	mu         sync.Mutex
	policy     Policy
	plugins    map[string]*PluginRecord
	newRuntime func(RuntimeConfig) *Runtime
}

// NewRegistry returns an empty Registry governed by DefaultPolicy.
func NewRegistry() *Registry {
	return NewRegistryWithPolicy(DefaultPolicy())
}

// NewRegistryWithPolicy returns an empty Registry governed by policy.
func NewRegistryWithPolicy(policy Policy) *Registry {
	return &Registry{
		policy:     policy,
		plugins:    make(map[string]*PluginRecord),
		newRuntime: NewRuntime,
	}
}

// SetPolicy replaces the registry's current policy. Already-registered
// manifests are not re-validated; the new policy takes effect on the next
// TriggerEvent dispatch.
func (r *Registry) SetPolicy(policy Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policy = policy
}

// Policy returns the registry's current policy.
func (r *Registry) Policy() Policy {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.policy
}

// RegisterManifest validates manifest against the registry's current
// policy and adds it in StateRegistered. Re-registering an existing plugin
// id replaces its record (terminating any runtime the prior record held).
func (r *Registry) RegisterManifest(manifest PluginManifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := manifest.Validate(r.policy); err != nil {
		return err
	}

	if prior, ok := r.plugins[manifest.ID]; ok && prior.runtime != nil {
		prior.runtime.Close()
	}
	r.plugins[manifest.ID] = &PluginRecord{
		Manifest: manifest,
		State:    StateRegistered,
	}
	return nil
}

// Disable forces a plugin to StateDisabled, skipping future TriggerEvent
// dispatch until re-registered.
func (r *Registry) Disable(pluginID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.plugins[pluginID]; ok {
		rec.State = StateDisabled
	}
}

// firstCapabilityBlockedByPolicy returns the first of manifest's declared
// capabilities that policy does not currently allow, e.g. Network when
// policy.AllowNetwork is false. Commands/ReadVault/WriteVault are always
// allowed.
func firstCapabilityBlockedByPolicy(manifest PluginManifest, policy Policy) (Capability, bool) {
	for _, c := range manifest.Capabilities {
		if c == CapabilityNetwork && !policy.AllowNetwork {
			return c, true
		}
	}
	return "", false
}

// Get returns a snapshot of the record for pluginID.
func (r *Registry) Get(pluginID string) (PluginRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.plugins[pluginID]
	if !ok {
		return PluginRecord{}, false
	}
	return *rec, true
}

// TriggerEvent dispatches event to every registered, non-disabled,
// non-cancelled plugin subscribed to it, iterating in plugin-id sorted
// order. It returns the outcome for every plugin it dispatched to,
// including ones it skipped without activating (policy-blocked,
// already-active, or failure-budget-exhausted).
func (r *Registry) TriggerEvent(ctx context.Context, event ActivationEvent, timeoutMs int64, cancel *CancelToken) map[string]ActivationOutcome {
	r.mu.Lock()
	ids := make([]string, 0, len(r.plugins))
	for id, rec := range r.plugins {
		if rec.State == StateDisabled || rec.State == StateCancelled {
			continue
		}
		if !subscribesTo(rec.Manifest, event) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	r.mu.Unlock()

	results := make(map[string]ActivationOutcome, len(ids))
	for _, id := range ids {
		results[id] = r.dispatchOne(ctx, id, event, timeoutMs, cancel)
	}
	return results
}

func subscribesTo(m PluginManifest, event ActivationEvent) bool {
	for _, ev := range m.ActivationEvents {
		if ev == event {
			return true
		}
	}
	return false
}

// dispatchOne runs one plugin through the per-event gates ahead of actual
// activation: a capability-vs-current-policy recheck (the manifest may
// have been valid at registration time under a since-replaced policy), an
// already-Active skip, and a failure-budget-exhausted skip. Only a plugin
// that passes all three is actually activated.
func (r *Registry) dispatchOne(ctx context.Context, pluginID string, event ActivationEvent, timeoutMs int64, cancel *CancelToken) ActivationOutcome {
	r.mu.Lock()
	rec, ok := r.plugins[pluginID]
	if !ok {
		r.mu.Unlock()
		return ActivationOutcome{Status: StatusFailed, Failure: FailureInvalidConfig, Detail: "unknown plugin id"}
	}
	policy := r.policy
	budget := policy.maxFailedActivations()

	if blocked, isBlocked := firstCapabilityBlockedByPolicy(rec.Manifest, policy); isBlocked {
		rec.FailureCount++
		rec.LastError = fmt.Sprintf("capability blocked by host policy: %s", blocked)
		if rec.FailureCount >= budget {
			rec.State = StateDisabled
		} else {
			rec.State = StateFailed
		}
		detail := rec.LastError
		r.mu.Unlock()
		return ActivationOutcome{Status: StatusFailed, Failure: FailureCapabilityViolation, Detail: detail}
	}

	if rec.State == StateActive {
		r.mu.Unlock()
		return ActivationOutcome{Status: StatusReady, Activated: false}
	}

	if rec.FailureCount >= budget {
		rec.State = StateDisabled
		detail := rec.LastError
		r.mu.Unlock()
		return ActivationOutcome{Status: StatusFailed, Detail: detail}
	}

	if rec.runtime == nil {
		rec.runtime = r.newRuntime(rec.Manifest.RuntimeConfig)
	}
	runtime := rec.runtime
	manifest := rec.Manifest
	rec.State = StateActivating
	r.mu.Unlock()

	return r.runHostActivation(ctx, pluginID, runtime, manifest, event, timeoutMs, cancel, budget)
}

// runHostActivation is the activation boundary of §4.10: it short-circuits
// to Cancelled if cancel is already set, calls runtime.Activate, then
// enforces the timeout regardless of what the runtime itself reports —
// elapsed time beyond timeoutMs is always rewritten to Cancelled.
func (r *Registry) runHostActivation(ctx context.Context, pluginID string, runtime *Runtime, manifest PluginManifest, event ActivationEvent, timeoutMs int64, cancel *CancelToken, budget uint32) ActivationOutcome {
	if cancel != nil && cancel.IsCancelled() {
		outcome := ActivationOutcome{Status: StatusCancelled}
		r.applyOutcome(pluginID, outcome, budget, timeoutMs)
		return outcome
	}

	start := time.Now()
	outcome := runtime.Activate(ctx, Manifest{ID: manifest.ID, Version: manifest.Version, Capabilities: manifest.Capabilities}, string(event), ActivationSpec{TimeoutMs: timeoutMs}, cancel)
	elapsedMs := time.Since(start).Milliseconds()

	if elapsedMs > timeoutMs {
		outcome = ActivationOutcome{Status: StatusCancelled, ElapsedMs: elapsedMs}
	} else {
		outcome.ElapsedMs = elapsedMs
	}
	if outcome.Status == StatusReady {
		outcome.Activated = true
	}

	r.applyOutcome(pluginID, outcome, budget, timeoutMs)
	return outcome
}

func (r *Registry) applyOutcome(pluginID string, outcome ActivationOutcome, budget uint32, timeoutMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.plugins[pluginID]
	if !ok {
		return
	}
	rec.LastElapsedMs = outcome.ElapsedMs
	rec.TotalActivationMs += outcome.ElapsedMs

	switch outcome.Status {
	case StatusReady:
		rec.State = StateActive
		rec.ActivationCount++
		rec.FailureCount = 0
		rec.LastError = ""
	case StatusCancelled:
		rec.State = StateCancelled
		rec.CancelledAttempts++
		rec.LastError = fmt.Sprintf("activation cancelled/timeout (>%dms)", timeoutMs)
	case StatusFailed:
		rec.LastError = outcome.Detail
		rec.FailureCount++
		if rec.FailureCount >= budget {
			rec.State = StateDisabled
		} else {
			rec.State = StateFailed
		}
	}
}
