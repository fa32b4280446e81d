package labordash

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var errEmptyBody = errors.New("empty body")

// Decode reads raw tabular data in the given format.
func Decode(format Format, body []byte) (*RawTable, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errEmptyBody
	}
	switch format {
	case FormatJSON:
		return DecodeJSON(body)
	case FormatCSV, "":
		return DecodeCSV(bytes.NewReader(body))
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func DecodeCSV(r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errEmptyBody
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return &RawTable{Header: header, Rows: rows}, nil
}

// tabularPayload is the column/row shape some APIs use instead of an array
// of objects.
type tabularPayload struct {
	Columns []string         `json:"columns"`
	Rows    [][]any          `json:"rows"`
	Data    []map[string]any `json:"data"`
}

// DecodeJSON accepts an array of objects, {"data": [objects]} or
// {"columns": [...], "rows": [[...]]}.
func DecodeJSON(body []byte) (*RawTable, error) {
	trimmed := bytes.TrimSpace(body)

	if trimmed[0] == '[' {
		var objects []map[string]any
		if err := unmarshalNumbers(trimmed, &objects); err != nil {
			return nil, fmt.Errorf("decode json array: %w", err)
		}
		return fromObjects(objects), nil
	}

	var payload tabularPayload
	if err := unmarshalNumbers(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("decode json object: %w", err)
	}

	switch {
	case len(payload.Columns) > 0:
		raw := &RawTable{Header: payload.Columns, Rows: make([][]string, 0, len(payload.Rows))}
		for i, row := range payload.Rows {
			if len(row) != len(payload.Columns) {
				return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(payload.Columns))
			}
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = cellText(v)
			}
			raw.Rows = append(raw.Rows, cells)
		}
		return raw, nil
	case payload.Data != nil:
		return fromObjects(payload.Data), nil
	default:
		return nil, errors.New("json payload has neither columns nor data")
	}
}

func unmarshalNumbers(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func fromObjects(objects []map[string]any) *RawTable {
	seen := make(map[string]struct{})
	for _, obj := range objects {
		for k := range obj {
			seen[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(seen))
	for k := range seen {
		header = append(header, k)
	}
	sort.Strings(header)

	raw := &RawTable{Header: header, Rows: make([][]string, 0, len(objects))}
	for _, obj := range objects {
		cells := make([]string, len(header))
		for i, k := range header {
			cells[i] = cellText(obj[k])
		}
		raw.Rows = append(raw.Rows, cells)
	}
	return raw
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(x)
	}
}
