package vcpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeChatEndpoint(t *testing.T) {
	assert.Equal(t, DefaultChatEndpoint, NormalizeChatEndpoint(""))
	assert.Equal(t, "http://localhost:5890/v1/chat/completions", NormalizeChatEndpoint("localhost:5890"))
	assert.Equal(t, "http://localhost:5890/v1/chat/completions", NormalizeChatEndpoint("http://localhost:5890/v1/models"))
	assert.Equal(t, "https://host/v1/chat/completions", NormalizeChatEndpoint("https://host/v1/chat/completions"))
}

func TestNormalizeAdminEndpoint(t *testing.T) {
	assert.Equal(t, DefaultAdminEndpoint, NormalizeAdminEndpoint(""))
	assert.Equal(t, "http://localhost:6005", NormalizeAdminEndpoint("localhost:6005/admin_api/check-auth"))
	assert.Equal(t, "http://localhost:6005", NormalizeAdminEndpoint("http://localhost:6005/admin_api/plugins"))
}

func TestInferWSEndpoint(t *testing.T) {
	assert.Equal(t, "ws://localhost:6005", InferWSEndpoint("http://localhost:6005"))
	assert.Equal(t, "wss://host", InferWSEndpoint("https://host"))
}

func TestBuildModelsEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:5890/v1/models", BuildModelsEndpoint("http://localhost:5890/v1/chat/completions"))
}

func TestBuildAdminAPIEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:6005/admin_api/plugins", BuildAdminAPIEndpoint("localhost:6005", "/plugins"))
	assert.Equal(t, "http://localhost:6005/admin_api", BuildAdminAPIEndpoint("localhost:6005", ""))
	assert.Equal(t, "http://other/x", BuildAdminAPIEndpoint("localhost:6005", "http://other/x"))
}
