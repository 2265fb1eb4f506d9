package schema

import (
	"encoding/json"
	"io/fs"
	"strings"
	"testing"
)

// TestEmbeddedSchemasAreValidJSON verifies that the embedded schema files are
// valid JSON so a corrupted file fails at test time rather than runtime.
func TestEmbeddedSchemasAreValidJSON(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		t.Fatalf("failed to read embedded FS: %v", err)
	}

	schemaCount := 0
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".schema.json") {
			continue
		}
		schemaCount++

		data, err := FS.ReadFile(entry.Name())
		if err != nil {
			t.Fatalf("failed to read %s: %v", entry.Name(), err)
		}

		var v interface{}
		if err := json.Unmarshal(data, &v); err != nil {
			t.Errorf("%s is not valid JSON: %v", entry.Name(), err)
		}
		if _, ok := v.(map[string]interface{}); !ok {
			t.Errorf("%s root is not an object", entry.Name())
		}
	}

	if schemaCount == 0 {
		t.Error("no schema files found in embedded FS")
	}
}

// TestConfigSchemaStructure verifies the config schema declares the fields the
// loader depends on.
func TestConfigSchemaStructure(t *testing.T) {
	t.Parallel()

	data, err := FS.ReadFile("shakedown.schema.json")
	if err != nil {
		t.Fatalf("expected schema shakedown.schema.json not found: %v", err)
	}

	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("failed to parse shakedown.schema.json: %v", err)
	}

	if _, ok := schema["$schema"]; !ok {
		t.Error("shakedown.schema.json missing $schema field")
	}
	if got := schema["type"]; got != "object" {
		t.Errorf("shakedown.schema.json type = %v, want object", got)
	}

	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("shakedown.schema.json missing properties object")
	}
	for _, name := range []string{"required_files", "checks", "format", "history", "watch"} {
		if _, ok := props[name]; !ok {
			t.Errorf("shakedown.schema.json missing property %q", name)
		}
	}
}
