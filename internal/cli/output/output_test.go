package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{" JSON ", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyValues(t *testing.T) {
	kv := KeyValues{
		{"State", "running"},
		{"PID", "4242"},
	}

	t.Run("Table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Print(&buf, FormatTable, kv))
		assert.Contains(t, buf.String(), "FIELD")
		assert.Contains(t, buf.String(), "running")
		assert.Contains(t, buf.String(), "4242")
	})

	t.Run("JSONKeepsOrder", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Print(&buf, FormatJSON, kv))
		assert.JSONEq(t, `{"State":"running","PID":"4242"}`, buf.String())
		assert.Less(t, bytes.Index(buf.Bytes(), []byte("State")), bytes.Index(buf.Bytes(), []byte("PID")))
	})

	t.Run("YAML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Print(&buf, FormatYAML, kv))

		var m map[string]string
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &m))
		assert.Equal(t, "running", m["State"])
	})
}

func TestPrint_TableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatTable, map[string]int{"port": 3344}))

	var m map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, 3344, m["port"])
}

func TestPrint_UnknownFormat(t *testing.T) {
	assert.Error(t, Print(&bytes.Buffer{}, Format("xml"), nil))
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{
		{"Bind", "0.0.0.0:3344"},
		{"TLS", "enabled"},
	}))

	out := buf.String()
	assert.Contains(t, out, "Bind")
	assert.Contains(t, out, "0.0.0.0:3344")
	assert.Contains(t, out, "enabled")
}
