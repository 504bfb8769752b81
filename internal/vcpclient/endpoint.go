// Package vcpclient probes a VCPToolBox-compatible AI runtime over HTTP:
// endpoint normalization, a health probe of the chat/models and admin
// surfaces, and a best-effort admin snapshot. Grounded on vcp.rs, which
// this package ports from a blocking Rust HTTP client (ureq) to Go's
// net/http.
package vcpclient

import "strings"

const (
	DefaultChatEndpoint  = "http://127.0.0.1:5890/v1/chat/completions"
	DefaultAdminEndpoint = "http://127.0.0.1:6005"
	DefaultWSEndpoint    = "ws://127.0.0.1:6005"
)

func withScheme(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "http://" + raw
}

// NormalizeChatEndpoint fills in a default scheme and the
// /v1/chat/completions suffix when raw doesn't already name a chat or
// models path.
func NormalizeChatEndpoint(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultChatEndpoint
	}

	normalized := withScheme(trimmed)
	if strings.Contains(normalized, "/v1/chat/completions") || strings.Contains(normalized, "/v1/chatvcp/completions") {
		return normalized
	}
	if strings.Contains(normalized, "/v1/models") {
		return strings.Replace(normalized, "/v1/models", "/v1/chat/completions", 1)
	}

	return strings.TrimRight(normalized, "/") + "/v1/chat/completions"
}

// NormalizeAdminEndpoint strips any known API suffix, leaving a bare
// admin origin.
func NormalizeAdminEndpoint(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultAdminEndpoint
	}

	normalized := withScheme(trimmed)
	for _, suffix := range []string{
		"/v1/chat/completions",
		"/v1/chatvcp/completions",
		"/v1/models",
		"/admin_api/check-auth",
	} {
		normalized = strings.ReplaceAll(normalized, suffix, "")
	}
	if head, _, found := strings.Cut(normalized, "/admin_api"); found {
		normalized = head
	}

	return strings.TrimRight(normalized, "/")
}

// InferWSEndpoint derives a websocket origin from an admin endpoint.
func InferWSEndpoint(adminEndpoint string) string {
	base := NormalizeAdminEndpoint(adminEndpoint)
	if rest, ok := strings.CutPrefix(base, "https://"); ok {
		return "wss://" + rest
	}
	if rest, ok := strings.CutPrefix(base, "http://"); ok {
		return "ws://" + rest
	}
	return DefaultWSEndpoint
}

// BuildModelsEndpoint rewrites a chat endpoint into its sibling /v1/models
// endpoint.
func BuildModelsEndpoint(chatEndpoint string) string {
	normalized := NormalizeChatEndpoint(chatEndpoint)
	if strings.Contains(normalized, "/v1/chat/completions") {
		return strings.Replace(normalized, "/v1/chat/completions", "/v1/models", 1)
	}
	if strings.Contains(normalized, "/v1/chatvcp/completions") {
		return strings.Replace(normalized, "/v1/chatvcp/completions", "/v1/models", 1)
	}
	if strings.Contains(normalized, "/v1/models") {
		return normalized
	}
	return strings.TrimRight(normalized, "/") + "/v1/models"
}

// BuildAdminAPIEndpoint joins an admin origin with a /admin_api-rooted
// path. An already-absolute path is returned unchanged.
func BuildAdminAPIEndpoint(adminEndpoint, path string) string {
	base := NormalizeAdminEndpoint(adminEndpoint)
	trimmedPath := strings.TrimSpace(path)

	if trimmedPath == "" {
		return base + "/admin_api"
	}
	if strings.HasPrefix(trimmedPath, "http://") || strings.HasPrefix(trimmedPath, "https://") {
		return trimmedPath
	}
	if strings.HasPrefix(trimmedPath, "/admin_api") {
		return base + trimmedPath
	}

	if !strings.HasPrefix(trimmedPath, "/") {
		trimmedPath = "/" + trimmedPath
	}
	return base + "/admin_api" + trimmedPath
}
