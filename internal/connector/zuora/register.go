package zuora

import (
	"strconv"
	"strings"

	"github.com/nucleus/ucl-zuora/internal/endpoint"
)

// init registers the Zuora factory with the default endpoint registry.
func init() {
	endpoint.Register(TemplateID, func(config map[string]any) (endpoint.Endpoint, error) {
		return New(ConfigFromMap(config))
	})
}

// ConfigFromMap reads the endpoint parameters used by the registry and the gateway.
func ConfigFromMap(config map[string]any) *Config {
	return &Config{
		BaseURL:     getString(config, "baseUrl", ""),
		Sandbox:     getBool(config, "sandbox", false),
		European:    getBool(config, "european", false),
		AccessToken: getString(config, "accessToken", ""),
		APIKeyID:    getString(config, "apiKeyId", ""),
		APISecret:   getString(config, "apiSecret", ""),
		ForceREST:   getBool(config, "forceRest", false),
		Partner:     getString(config, "partnerId", ""),
		Project:     getString(config, "project", ""),
		Concurrency: getInt(config, "concurrency", 1),
		Streams:     getStrings(config, "streams"),
	}
}

// --- Config Helpers ---

func getString(m map[string]any, key, defaultVal string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return defaultVal
}

func getInt(m map[string]any, key string, defaultVal int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBool(m map[string]any, key string, defaultVal bool) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// getStrings accepts a []string, a []any of strings, or a comma-separated string.
func getStrings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}
