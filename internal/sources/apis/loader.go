// Package apis loads externally hosted API definitions from YAML.
package apis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads an external APIs definition file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the file. ${VAR} references are expanded from the
// environment before parsing, so URLs can point at per-environment hosts.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read external apis file: %w", err)
	}
	return Parse(data)
}

// Parse parses the YAML document in data.
func Parse(data []byte) (File, error) {
	expanded := os.ExpandEnv(string(data))

	var f File
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return File{}, fmt.Errorf("failed to parse external apis yaml: %w", err)
	}
	return f, nil
}
