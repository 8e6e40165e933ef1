// Package config loads the optional workflow template catalog file.
// Operators ship store-specific templates as YAML next to the API binary;
// loaded entries extend the built-in catalog.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/storewise/automation/pkg/models"
)

type catalogFile struct {
	Templates []any `yaml:"templates"`
}

// LoadTemplates reads a YAML catalog file and returns its templates. The
// file shape mirrors the JSON representation of WorkflowTemplate under a
// top-level templates key. Entries missing an id, a name, or a definition
// are rejected so a broken catalog fails at startup, not at instantiation.
func LoadTemplates(path string) ([]*models.WorkflowTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog %s: %w", path, err)
	}

	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog %s: %w", path, err)
	}

	// The models carry JSON tags only, so the decoded YAML tree round-trips
	// through JSON instead of duplicating every struct with YAML tags.
	payload, err := json.Marshal(doc.Templates)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template catalog %s: %w", path, err)
	}

	var templates []*models.WorkflowTemplate
	if err := json.Unmarshal(payload, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode template catalog %s: %w", path, err)
	}

	for i, tmpl := range templates {
		if tmpl == nil || tmpl.ID == "" || tmpl.Name == "" || tmpl.Definition == nil {
			return nil, fmt.Errorf("template catalog %s: entry %d needs an id, a name, and a definition", path, i)
		}
	}

	return templates, nil
}
