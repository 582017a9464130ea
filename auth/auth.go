package auth

import (
	"log/slog"
	"strings"
)

// Credentials identify a user to the context service. They arrive with each request and are only
// forwarded, never stored by the gateway.
type Credentials struct {
	APIURL   string `json:"api_url,omitempty"`
	Username string `json:"username"`
	APIKey   string `json:"api_key"`
}

// Missing returns the JSON names of required fields that are blank. The API URL is optional
// because requests without one are routed to the default service.
func (c Credentials) Missing() (fields []string) {
	if strings.TrimSpace(c.Username) == "" {
		fields = append(fields, "username")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		fields = append(fields, "api_key")
	}
	return fields
}

// BaseURL returns the service URL to call, without a trailing slash.
func (c Credentials) BaseURL(defaultURL string) string {
	u := strings.TrimSpace(c.APIURL)
	if u == "" {
		u = defaultURL
	}
	return strings.TrimRight(u, "/")
}

func (c Credentials) Authorization() string {
	return "Bearer " + c.APIKey
}

// LogValue keeps the API key out of logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("api_url", c.APIURL),
		slog.String("username", c.Username),
	)
}
