// Package plugin implements the out-of-process plugin activation runtime:
// the wire protocol, the child-process transport, the activation state
// machine with session pooling, and the manifest/policy registry.
package plugin

// Capability is a coarse permission a plugin declares.
type Capability string

const (
	CapabilityCommands  Capability = "commands"
	CapabilityReadVault Capability = "read_vault"
	CapabilityWriteVault Capability = "write_vault"
	CapabilityNetwork   Capability = "network"
)

// MessageKind discriminates the tagged wire-message union.
type MessageKind string

const (
	MessageHandshake    MessageKind = "handshake"
	MessageHandshakeAck MessageKind = "handshake_ack"
	MessageActivate     MessageKind = "activate"
	MessageActivateResult MessageKind = "activate_result"
	MessageCancel       MessageKind = "cancel"
	MessagePing         MessageKind = "ping"
	MessagePong         MessageKind = "pong"
)

// WireMessage is the single flat struct backing every variant of the
// tagged wire protocol. Only the fields relevant to Kind are populated;
// unknown fields in incoming JSON are ignored by encoding/json by
// default, and missing optional arrays decode to nil (treated as empty),
// satisfying the forward-compatibility rule of §4.7.
type WireMessage struct {
	Kind MessageKind `json:"kind"`

	// Handshake / HandshakeAck
	ProtocolVersion            int        `json:"protocol_version,omitempty"`
	SupportedProtocolVersions  []int      `json:"supported_protocol_versions,omitempty"`
	PluginID                   string     `json:"plugin_id,omitempty"`
	PluginVersion              string     `json:"plugin_version,omitempty"`
	Capabilities               []Capability `json:"capabilities,omitempty"`
	Accepted                   bool       `json:"accepted,omitempty"`
	Reason                     string     `json:"reason,omitempty"`
	ReportedCapabilities       []Capability `json:"reported_capabilities,omitempty"`

	// Activate / ActivateResult / Cancel / Ping / Pong
	RequestID string `json:"request_id,omitempty"`
	Event     string `json:"event,omitempty"`
	TimeoutMs int64  `json:"timeout_ms,omitempty"`
	OK        bool   `json:"ok,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Handshake builds a MessageHandshake wire message.
func Handshake(protocolVersion int, supported []int, pluginID, pluginVersion string, caps []Capability) WireMessage {
	return WireMessage{
		Kind:                      MessageHandshake,
		ProtocolVersion:           protocolVersion,
		SupportedProtocolVersions: supported,
		PluginID:                  pluginID,
		PluginVersion:             pluginVersion,
		Capabilities:              caps,
	}
}

// HandshakeAck builds a MessageHandshakeAck wire message.
func HandshakeAck(protocolVersion int, accepted bool, reason string, reported []Capability) WireMessage {
	return WireMessage{
		Kind:                 MessageHandshakeAck,
		ProtocolVersion:      protocolVersion,
		Accepted:             accepted,
		Reason:               reason,
		ReportedCapabilities: reported,
	}
}

// Activate builds a MessageActivate wire message.
func Activate(requestID, event string, timeoutMs int64) WireMessage {
	return WireMessage{Kind: MessageActivate, RequestID: requestID, Event: event, TimeoutMs: timeoutMs}
}

// ActivateResult builds a MessageActivateResult wire message.
func ActivateResult(requestID string, ok bool, errMsg string) WireMessage {
	return WireMessage{Kind: MessageActivateResult, RequestID: requestID, OK: ok, Error: errMsg}
}

// Cancel builds a MessageCancel wire message.
func Cancel(requestID, reason string) WireMessage {
	return WireMessage{Kind: MessageCancel, RequestID: requestID, Reason: reason}
}

// Ping builds a MessagePing wire message.
func Ping(requestID string) WireMessage { return WireMessage{Kind: MessagePing, RequestID: requestID} }

// Pong builds a MessagePong wire message.
func Pong(requestID string) WireMessage { return WireMessage{Kind: MessagePong, RequestID: requestID} }
