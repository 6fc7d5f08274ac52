package recordstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

const (
	// ProviderField tags every appended row with the source it came from.
	ProviderField = "provider"
	// ImportTimestampField holds the wall-clock time of the append that wrote the row.
	ImportTimestampField = "import_timestamp"
	// TimestampLayout is the format used for ImportTimestampField values.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Record is one table row. An empty value is a null cell.
type Record map[string]string

// Table is the in-memory form of a dataset. Every row carries every column.
type Table struct {
	Columns []string
	Rows    []Record
}

func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// FromValues flattens a decoded JSON-ish map into a Record.
func FromValues(values map[string]any) Record {
	out := make(Record, len(values))
	for k, v := range values {
		out[k] = FormatValue(v)
	}
	return out
}

// FormatValue renders a scalar the way it is stored in a table cell.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case *float64:
		if val == nil {
			return ""
		}
		return strconv.FormatFloat(*val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case *int:
		if val == nil {
			return ""
		}
		return strconv.Itoa(*val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(time.RFC3339)
	case *time.Time:
		if val == nil || val.IsZero() {
			return ""
		}
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

func (t *Table) hasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

func (t *Table) addColumn(name string) {
	if name == "" || t.hasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
}

// mergeColumns adds every field of records to the table's column set. Fields named in
// order come first, the rest are added alphabetically so output is stable.
func (t *Table) mergeColumns(records []Record, order []string) {
	for _, rec := range records {
		for _, name := range order {
			if _, ok := rec[name]; ok {
				t.addColumn(name)
			}
		}
		keys := make([]string, 0, len(rec))
		for k := range rec {
			if !t.hasColumn(k) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.addColumn(k)
		}
	}
}

// fill inserts a null for every column a row lacks.
func (t *Table) fill() {
	for _, row := range t.Rows {
		for _, c := range t.Columns {
			if _, ok := row[c]; !ok {
				row[c] = ""
			}
		}
	}
}
