package plugin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireMessage_HandshakeRoundTrip(t *testing.T) {
	msg := Handshake(2, []int{1, 2}, "plugin.demo", "1.0.0", []Capability{CapabilityReadVault, CapabilityCommands})

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded WireMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, msg, decoded)
}

func TestWireMessage_UnknownFieldsIgnored(t *testing.T) {
	raw := []byte(`{"kind":"ping","request_id":"r1","mystery_field":"future"}`)
	var msg WireMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, MessagePing, msg.Kind)
	assert.Equal(t, "r1", msg.RequestID)
}

func TestWireMessage_MissingOptionalArraysDecodeEmpty(t *testing.T) {
	raw := []byte(`{"kind":"handshake_ack","protocol_version":2,"accepted":true}`)
	var msg WireMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Nil(t, msg.ReportedCapabilities)
	assert.True(t, msg.Accepted)
}

func TestManifest_SessionKey_SortsAndDedupsCapabilities(t *testing.T) {
	m := Manifest{
		ID:      "plugin.demo",
		Version: "1.2.0",
		Capabilities: []Capability{
			CapabilityNetwork, CapabilityReadVault, CapabilityNetwork, CapabilityCommands,
		},
	}
	assert.Equal(t, "plugin.demo:1.2.0:commands,network,read_vault", m.SessionKey())
}
