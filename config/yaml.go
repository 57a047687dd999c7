// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates Parameters from a YAML file at path, the
// operator-facing config format cmd/dlcnode's check subcommand
// accepts via --file.
func Load(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Parameters{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var p Parameters
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Parameters{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return p, nil
}

// Save marshals p to YAML and writes it to path, producing a file
// Load reads back unchanged.
func Save(path string, p Parameters) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
