package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Environment variables that override top-level settings after the file is
// read. The --data-dir flag still takes precedence over DAILYCLAIM_DATA_DIR.
const (
	EnvDataDir   = "DAILYCLAIM_DATA_DIR"
	EnvLogLevel  = "DAILYCLAIM_LOG_LEVEL"
	EnvLogFormat = "DAILYCLAIM_LOG_FORMAT"
)

// Load reads a YAML configuration file, expands ${VAR} references in scalar
// values, applies the DAILYCLAIM_* overrides and decodes the result.
//
// Expansion happens on parsed values, so a variable can never inject YAML
// structure. Unresolved variables are reported with the key path they sit
// under, e.g. "modules.channel.telegram.token".
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("config: %s is empty", path)
	}

	if err := expandNode(doc.Content[0], ""); err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}

	var cfg Config
	if err := doc.Content[0].Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	applyOverrides(&cfg)

	return &cfg, nil
}

// expandNode walks n and expands every scalar value in place. Mapping keys
// are left alone.
func expandNode(n *yaml.Node, path string) error {
	switch n.Kind {
	case yaml.ScalarNode:
		expanded, err := expandEnv([]byte(n.Value))
		if err != nil {
			if path == "" {
				return err
			}
			return fmt.Errorf("%s: %w", path, err)
		}
		if string(expanded) != n.Value {
			n.Value = string(expanded)
			// Let the decoder resolve the expanded text afresh, so
			// "${PORT}" can land in an int field.
			if n.Style == 0 {
				n.Tag = ""
			}
		}
		return nil
	case yaml.MappingNode:
		var errs []error
		for i := 0; i+1 < len(n.Content); i += 2 {
			errs = append(errs, expandNode(n.Content[i+1], joinPath(path, n.Content[i].Value)))
		}
		return errors.Join(errs...)
	case yaml.SequenceNode:
		var errs []error
		for i, c := range n.Content {
			errs = append(errs, expandNode(c, path+"["+strconv.Itoa(i)+"]"))
		}
		return errors.Join(errs...)
	case yaml.DocumentNode:
		var errs []error
		for _, c := range n.Content {
			errs = append(errs, expandNode(c, path))
		}
		return errors.Join(errs...)
	}
	// Aliases point at nodes already visited through their anchor.
	return nil
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns in raw.
// Returns an error listing all unresolved variables (no default, no env value).
func expandEnv(raw []byte) ([]byte, error) {
	var missing []string

	result := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])

		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if len(subs) > 2 && subs[2] != nil {
			return subs[2]
		}

		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return result, fmt.Errorf("unresolved variable: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

func applyOverrides(cfg *Config) {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
}
