package bench

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Kind enumerates the scalar kinds a result value can take.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBool
	KindBytes
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single column value. Exactly one payload field is meaningful,
// selected by Kind.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
	Bool  bool
	Bytes []byte
	Time  time.Time
}

func Null() Value { return Value{Kind: KindNull} }

func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }

func FloatValue(v float64) Value { return Value{Kind: KindFloat, Float: v} }

func TextValue(v string) Value { return Value{Kind: KindText, Text: v} }

func BoolValue(v bool) Value { return Value{Kind: KindBool, Bool: v} }

func BytesValue(v []byte) Value { return Value{Kind: KindBytes, Bytes: v} }

func TimeValue(v time.Time) Value { return Value{Kind: KindTime, Time: v} }

// ValueOf converts whatever a database/sql driver scanned into a Value.
// Bytes are copied; drivers may reuse their buffers between rows.
func ValueOf(src any) Value {
	switch v := src.(type) {
	case nil:
		return Null()
	case int64:
		return IntValue(v)
	case int32:
		return IntValue(int64(v))
	case int16:
		return IntValue(int64(v))
	case int8:
		return IntValue(int64(v))
	case int:
		return IntValue(int64(v))
	case uint8:
		return IntValue(int64(v))
	case uint16:
		return IntValue(int64(v))
	case uint32:
		return IntValue(int64(v))
	case uint64:
		if v > 1<<63-1 {
			return TextValue(strconv.FormatUint(v, 10))
		}
		return IntValue(int64(v))
	case float64:
		return FloatValue(v)
	case float32:
		return FloatValue(float64(v))
	case string:
		return TextValue(v)
	case bool:
		return BoolValue(v)
	case []byte:
		b := make([]byte, len(v))
		copy(b, v)
		return BytesValue(b)
	case time.Time:
		return TimeValue(v)
	case fmt.Stringer:
		return TextValue(v.String())
	default:
		return TextValue(fmt.Sprintf("%v", v))
	}
}

// Any returns the payload as a plain Go value; nil for Null.
func (v Value) Any() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindText:
		return v.Text
	case KindBool:
		return v.Bool
	case KindBytes:
		return v.Bytes
	case KindTime:
		return v.Time
	default:
		return nil
	}
}

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindText:
		return v.Text
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindBytes:
		if isPrintable(v.Bytes) {
			return string(v.Bytes)
		}
		return "0x" + hex.EncodeToString(v.Bytes)
	case KindTime:
		return v.Time.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// Row is one materialized result row. Values are in column order.
type Row struct {
	Columns []string
	Values  []Value
}

// Get returns the value of the first column with the given name.
func (r Row) Get(name string) (Value, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return Value{}, false
}

// Map returns the row as column -> plain value. Order is lost; use
// Columns/Values when it matters.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i].Any()
	}
	return m
}
