// Package mcp loads the optional .mcp.json tool-server configuration
// from a working directory. The file declares external tool servers a
// stage may use; this system only reads and forwards the
// configuration, it never speaks the server protocol itself.
package mcp

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

// ConfigFileName is the well-known file name at the working-directory
// root.
const ConfigFileName = ".mcp.json"

// ServerConfig declares one tool server. Connection fields are passed
// through to the runtime untouched; only Env and Headers values get
// ${VAR} expansion.
type ServerConfig struct {
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	URL     string            `json:"url,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

type configFile struct {
	MCPServers map[string]ServerConfig `json:"mcpServers"`
}

var envTokenRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv substitutes ${NAME} tokens from the process environment.
// Missing variables expand to the empty string, not an error.
func expandEnv(s string) string {
	return envTokenRe.ReplaceAllStringFunc(s, func(token string) string {
		name := token[2 : len(token)-1]
		return os.Getenv(name)
	})
}

// LoadConfig reads workDir/.mcp.json and returns the declared servers
// with environment expansion applied. A missing file yields an empty
// map; a malformed file degrades to an empty map with a warning,
// never a fatal error.
func LoadConfig(workDir string) map[string]ServerConfig {
	path := filepath.Join(workDir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("unreadable MCP config, continuing without tool servers",
				"path", path, "error", err)
		}
		return map[string]ServerConfig{}
	}

	var cfg configFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("malformed MCP config, continuing without tool servers",
			"path", path, "error", err)
		return map[string]ServerConfig{}
	}

	servers := make(map[string]ServerConfig, len(cfg.MCPServers))
	for name, srv := range cfg.MCPServers {
		if len(srv.Env) > 0 {
			env := make(map[string]string, len(srv.Env))
			for k, v := range srv.Env {
				env[k] = expandEnv(v)
			}
			srv.Env = env
		}
		if len(srv.Headers) > 0 {
			headers := make(map[string]string, len(srv.Headers))
			for k, v := range srv.Headers {
				headers[k] = expandEnv(v)
			}
			srv.Headers = headers
		}
		servers[name] = srv
	}
	return servers
}

// MarshalServers renders a server map back to the JSON form the agent
// CLI accepts via --mcp-config.
func MarshalServers(servers map[string]ServerConfig) (string, error) {
	data, err := json.Marshal(configFile{MCPServers: servers})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
