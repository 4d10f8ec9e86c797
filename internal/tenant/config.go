package tenant

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// CurrentConfigVersion is written into every config saved by this service.
const CurrentConfigVersion = 1

// ProjectConfig is the typed form of a project's config column. Keys this
// service does not know about are kept in Extra and written back unchanged.
type ProjectConfig struct {
	Version        int
	AllowedOrigins []string
	IsPlatform     bool
	Extra          map[string]json.RawMessage
}

var knownConfigKeys = []string{"version", "allowed_origins", "is_platform"}

// ParseProjectConfig decodes a stored config blob. Empty input yields the
// zero config at the current version.
func ParseProjectConfig(raw []byte) (ProjectConfig, error) {
	var cfg ProjectConfig
	if len(raw) == 0 || string(raw) == "null" {
		cfg.Version = CurrentConfigVersion
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return ProjectConfig{}, err
	}
	return cfg, nil
}

func (c *ProjectConfig) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("project config must be a JSON object: %w", err)
	}

	*c = ProjectConfig{Version: CurrentConfigVersion}
	if v, ok := fields["version"]; ok {
		if err := json.Unmarshal(v, &c.Version); err != nil {
			return fmt.Errorf("project config version: %w", err)
		}
	}
	if v, ok := fields["allowed_origins"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &c.AllowedOrigins); err != nil {
			return fmt.Errorf("project config allowed_origins: %w", err)
		}
	}
	if v, ok := fields["is_platform"]; ok {
		if err := json.Unmarshal(v, &c.IsPlatform); err != nil {
			return fmt.Errorf("project config is_platform: %w", err)
		}
	}

	for _, k := range knownConfigKeys {
		delete(fields, k)
	}
	if len(fields) > 0 {
		c.Extra = fields
	}
	return nil
}

func (c ProjectConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	version := c.Version
	if version == 0 {
		version = CurrentConfigVersion
	}
	origins := c.AllowedOrigins
	if origins == nil {
		origins = []string{}
	}
	out["version"] = version
	out["allowed_origins"] = origins
	out["is_platform"] = c.IsPlatform
	return json.Marshal(out)
}

// AllowsOrigin reports exact, case-sensitive membership.
func (c ProjectConfig) AllowsOrigin(origin string) bool {
	for _, o := range c.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

// NormalizeOrigins validates a replacement origin list. Each entry must be a
// bare scheme://host[:port] with no path, query or wildcard. Duplicates are
// dropped and order is kept.
func NormalizeOrigins(origins []string) ([]string, error) {
	out := make([]string, 0, len(origins))
	seen := make(map[string]struct{}, len(origins))
	for _, raw := range origins {
		o := strings.TrimSpace(raw)
		if err := validateOrigin(o); err != nil {
			return nil, err
		}
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out, nil
}

func validateOrigin(o string) error {
	if o == "" {
		return errors.New("origin must not be empty")
	}
	if strings.Contains(o, "*") {
		return fmt.Errorf("origin %q: wildcards are not allowed", o)
	}
	u, err := url.Parse(o)
	if err != nil {
		return fmt.Errorf("origin %q: %w", o, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin %q: scheme must be http or https", o)
	}
	if u.Host == "" || u.User != nil || (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("origin %q: must be scheme://host[:port]", o)
	}
	if strings.HasSuffix(o, "/") {
		return fmt.Errorf("origin %q: trailing slash is not allowed", o)
	}
	return nil
}
