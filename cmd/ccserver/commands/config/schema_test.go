package config

import (
	"encoding/json"
	"testing"
)

func TestSchema(t *testing.T) {
	data, err := Schema()
	if err != nil {
		t.Fatalf("Schema() error: %v", err)
	}

	var doc struct {
		Title      string                     `json:"title"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}

	if doc.Title != "CCServer Configuration" {
		t.Errorf("Title = %q", doc.Title)
	}
	for _, key := range []string{"server", "background", "logging", "metrics", "telemetry"} {
		if _, ok := doc.Properties[key]; !ok {
			t.Errorf("schema has no %q property", key)
		}
	}
}
