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
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "Table", input: "table", want: FormatTable},
		{name: "EmptyDefaultsToTable", input: "", want: FormatTable},
		{name: "JSONUppercase", input: "JSON", want: FormatJSON},
		{name: "YmlAlias", input: "yml", want: FormatYAML},
		{name: "WhitespaceTrimmed", input: "  yaml ", want: FormatYAML},
		{name: "Invalid", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
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

type row struct {
	Procedure string `json:"procedure" yaml:"procedure"`
	XID       uint32 `json:"xid" yaml:"xid"`
}

func TestPrinter(t *testing.T) {
	table := NewTableData("Procedure", "XID")
	table.AddRow("READ", "0x1")
	table.AddRow("WRITE", "0x2")

	t.Run("Table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable).Print(table))
		out := buf.String()
		assert.Contains(t, out, "PROCEDURE")
		assert.Contains(t, out, "READ")
		assert.Contains(t, out, "0x2")
	})

	t.Run("TableFallsBackToJSON", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatTable).Print([]row{{"READ", 1}}))
		var got []row
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, []row{{"READ", 1}}, got)
	})

	t.Run("YAML", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, FormatYAML).Print([]row{{"COMMIT", 7}}))
		var got []row
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, []row{{"COMMIT", 7}}, got)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		assert.Error(t, NewPrinter(&bytes.Buffer{}, "xml").Print(table))
	})
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{{"Records", "12"}, {"Desyncs", "0"}}))
	assert.Contains(t, buf.String(), "Records")
	assert.Contains(t, buf.String(), "12")
}
