package azureagent

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	defaultAPIVersion = "2024-05-01-preview"
	projectAPIVersion = "2024-12-01-preview"
	projectTokenScope = "https://ml.azure.com/.default"
)

// Connection is the parsed form of agent.connection_string.
type Connection struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	// Project is set for the Azure AI Projects form. Endpoint is then the
	// project's agents base URL and requests carry an Entra ID token.
	Project bool
}

// ParseConnectionString accepts three forms:
//
//   - a bare endpoint URL;
//   - "Endpoint=<url>;ApiKey=<key>;ApiVersion=<version>" (keys are case
//     insensitive, order free);
//   - the Azure AI Projects form "<host>;<subscription>;<resource-group>;<project>".
//
// Without an ApiKey the client falls back to the Azure default credential
// chain. The projects form always uses it.
func ParseConnectionString(raw string) (Connection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Connection{}, fmt.Errorf("empty connection string")
	}

	var conn Connection
	switch {
	case !strings.Contains(raw, "="):
		parts := strings.Split(raw, ";")
		switch len(parts) {
		case 1:
			conn.Endpoint = raw
		case 4:
			return parseProjectConnection(parts)
		default:
			return Connection{}, fmt.Errorf("connection string has %d segments, want <host>;<subscription>;<resource-group>;<project>", len(parts))
		}
	default:
		for _, part := range strings.Split(raw, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key, value, ok := strings.Cut(part, "=")
			if !ok {
				return Connection{}, fmt.Errorf("invalid connection string segment %q", part)
			}
			value = strings.TrimSpace(value)
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "endpoint":
				conn.Endpoint = value
			case "apikey", "api_key", "key":
				conn.APIKey = value
			case "apiversion", "api_version", "api-version":
				conn.APIVersion = value
			default:
				return Connection{}, fmt.Errorf("unknown connection string key %q", strings.TrimSpace(key))
			}
		}
	}

	if conn.Endpoint == "" {
		return Connection{}, fmt.Errorf("connection string has no Endpoint")
	}
	if err := checkEndpoint(conn.Endpoint); err != nil {
		return Connection{}, err
	}
	conn.Endpoint = strings.TrimRight(conn.Endpoint, "/")
	if conn.APIVersion == "" {
		conn.APIVersion = defaultAPIVersion
	}
	return conn, nil
}

func parseProjectConnection(parts []string) (Connection, error) {
	names := [4]string{"host", "subscription", "resource group", "project"}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return Connection{}, fmt.Errorf("connection string has an empty %s", names[i])
		}
	}
	host := strings.TrimRight(parts[0], "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	if err := checkEndpoint(host); err != nil {
		return Connection{}, err
	}
	endpoint := host + "/agents/v1.0" +
		"/subscriptions/" + url.PathEscape(parts[1]) +
		"/resourceGroups/" + url.PathEscape(parts[2]) +
		"/providers/Microsoft.MachineLearningServices/workspaces/" + url.PathEscape(parts[3])
	return Connection{Endpoint: endpoint, APIVersion: projectAPIVersion, Project: true}, nil
}

func checkEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q", endpoint)
	}
	return nil
}
