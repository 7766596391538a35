package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"querybench/bench"
)

// JSONEncoder writes JSON Lines, one object per row keyed by column name.
// Keys follow column order. A repeated column name gets a numeric suffix
// (id, id_2) so no value is dropped.
type JSONEncoder struct {
	w    *bufio.Writer
	keys []string
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: bufio.NewWriter(w)}
}

// WriteHeader only records the column names; JSON Lines has no header row.
func (e *JSONEncoder) WriteHeader(columns []string) error {
	e.keys = uniqueKeys(columns)
	return nil
}

func (e *JSONEncoder) WriteRow(values []bench.Value) error {
	if len(values) > len(e.keys) {
		e.keys = uniqueKeys(append(e.keys, unnamed(len(e.keys), len(values))...))
	}
	e.w.WriteByte('{')
	for i, v := range values {
		if i > 0 {
			e.w.WriteByte(',')
		}
		key, err := json.Marshal(e.keys[i])
		if err != nil {
			return err
		}
		var val any = v.Any()
		if v.Kind == bench.KindBytes {
			val = v.String()
		}
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("column %s: %w", e.keys[i], err)
		}
		e.w.Write(key)
		e.w.WriteByte(':')
		e.w.Write(b)
	}
	e.w.WriteByte('}')
	_, err := e.w.WriteString("\n")
	return err
}

func (e *JSONEncoder) Flush() error {
	return e.w.Flush()
}

func (e *JSONEncoder) Close() error {
	return e.Flush()
}

func unnamed(from, to int) []string {
	out := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, fmt.Sprintf("column_%d", i+1))
	}
	return out
}

func uniqueKeys(columns []string) []string {
	keys := make([]string, len(columns))
	seen := make(map[string]bool, len(columns))
	for i, name := range columns {
		key := name
		for n := 2; seen[key]; n++ {
			key = name + "_" + strconv.Itoa(n)
		}
		seen[key] = true
		keys[i] = key
	}
	return keys
}
