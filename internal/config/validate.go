package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/karminski/shakedown/internal/schema"
)

// Validate checks raw YAML config data against the embedded schema. The
// document is re-encoded as JSON first because the schema engine operates on
// JSON values.
func Validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if doc == nil {
		return nil
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config for validation: %w", err)
	}

	return schema.ValidateConfig(jsonData)
}
