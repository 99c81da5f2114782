package output

import (
	"encoding/json"
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by types that can render themselves as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes data as a borderless, left-aligned table.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := newTable(w, "")
	table.SetHeader(data.Headers())
	table.SetAutoFormatHeaders(true)
	table.AppendBulk(data.Rows())
	table.Render()
	return nil
}

// SimpleTable prints "key: value" pairs, one per line.
func SimpleTable(w io.Writer, pairs [][2]string) error {
	table := newTable(w, ":")
	for _, pair := range pairs {
		table.Append([]string{pair[0], pair[1]})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer, columnSeparator string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(columnSeparator)
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// KeyValues is an ordered list of pairs that renders as a two-column table
// and as a JSON/YAML object.
type KeyValues [][2]string

func (kv KeyValues) Headers() []string { return []string{"Field", "Value"} }

func (kv KeyValues) Rows() [][]string {
	rows := make([][]string, 0, len(kv))
	for _, pair := range kv {
		rows = append(rows, []string{pair[0], pair[1]})
	}
	return rows
}

// MarshalJSON renders the pairs as an object, preserving order.
func (kv KeyValues) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, pair := range kv {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, pair[0])
		buf = append(buf, ':')
		buf = appendJSONString(buf, pair[1])
	}
	return append(buf, '}'), nil
}

// MarshalYAML renders the pairs as a mapping.
func (kv KeyValues) MarshalYAML() (interface{}, error) {
	m := make(map[string]string, len(kv))
	for _, pair := range kv {
		m[pair[0]] = pair[1]
	}
	return m, nil
}

func appendJSONString(buf []byte, s string) []byte {
	b, _ := json.Marshal(s)
	return append(buf, b...)
}
