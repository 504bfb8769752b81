package vcpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// PluginSummary is one entry of an admin snapshot's plugin list.
type PluginSummary struct {
	Name    string
	Enabled *bool
}

// AdminSnapshot is a best-effort point-in-time read of a VCP runtime's
// admin surface. Unreachable sub-endpoints contribute a Warning instead
// of failing the whole snapshot.
type AdminSnapshot struct {
	GeneratedAtEpochMs int64
	Models             []string
	Plugins            []PluginSummary
	Warnings           []string
}

// FetchAdminSnapshot queries the models and plugins admin endpoints and
// assembles a snapshot, tolerating partial failures.
func FetchAdminSnapshot(cfg RuntimeConfig, now time.Time) AdminSnapshot {
	timeout := cfg.Timeout()
	snapshot := AdminSnapshot{GeneratedAtEpochMs: now.UnixMilli()}

	chatAuth := bearerOrEmpty(cfg.APIKey)
	adminAuth := strings.TrimSpace(cfg.AdminAuthHeader)

	modelsEndpoint := BuildModelsEndpoint(cfg.ChatEndpoint)
	if value, err := fetchJSON(modelsEndpoint, chatAuth, timeout); err != nil {
		snapshot.Warnings = append(snapshot.Warnings, fmt.Sprintf("models endpoint failed: %v", err))
	} else {
		snapshot.Models = extractModelsFromValue(value)
	}

	pluginsEndpoint := BuildAdminAPIEndpoint(cfg.AdminEndpoint, "/plugins")
	if value, err := fetchJSON(pluginsEndpoint, adminAuth, timeout); err != nil {
		snapshot.Warnings = append(snapshot.Warnings, fmt.Sprintf("plugins endpoint failed: %v", err))
	} else {
		snapshot.Plugins = extractPluginsFromValue(value)
	}

	dedupStrings(&snapshot.Models)
	return snapshot
}

func fetchJSON(endpoint, authorization string, timeout time.Duration) (any, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func extractModelsFromValue(value any) []string {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	data, ok := obj["data"].([]any)
	if !ok {
		return nil
	}
	models := make([]string, 0, len(data))
	for _, item := range data {
		if entry, ok := item.(map[string]any); ok {
			if id, ok := entry["id"].(string); ok && id != "" {
				models = append(models, id)
			}
		}
	}
	return models
}

func extractPluginsFromValue(value any) []PluginSummary {
	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range []string{"plugins", "data"} {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
	}

	plugins := make([]PluginSummary, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		if name == "" {
			continue
		}
		summary := PluginSummary{Name: name}
		if enabled, ok := entry["enabled"].(bool); ok {
			summary.Enabled = &enabled
		}
		plugins = append(plugins, summary)
	}
	return plugins
}

func dedupStrings(values *[]string) {
	seen := make(map[string]struct{}, len(*values))
	out := (*values)[:0]
	for _, v := range *values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	*values = out
}
