package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the configuration file name looked up in the search path.
const FileName = "dailyclaim.yaml"

// SearchPaths returns the candidate configuration files in lookup order:
// $XDG_CONFIG_HOME/dailyclaim, ~/.config/dailyclaim, then the working
// directory.
func SearchPaths() []string {
	var candidates []string
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "dailyclaim", FileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "dailyclaim", FileName))
	}
	return append(candidates, FileName)
}

// Find returns explicit when set, otherwise the first existing file of
// SearchPaths.
func Find(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	candidates := SearchPaths()
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("config: no configuration file found (searched: %v)", candidates)
}
