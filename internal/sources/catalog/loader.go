package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of the categories.yaml file.
type Loader struct {
	filePath string
}

// NewLoader creates a category metadata loader. An empty path means no
// declared metadata; Load then returns an empty config.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses categories.yaml. A missing file is not an error:
// category descriptors are optional, shards alone define what exists.
func (l *Loader) Load() (*Config, error) {
	if l.filePath == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse categories yaml: %w", err)
	}

	return &config, nil
}
