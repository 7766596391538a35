package bench

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeTag names the native type a bind parameter is converted to.
type TypeTag string

const (
	TypeInt    TypeTag = "int"
	TypeLong   TypeTag = "long"
	TypeDouble TypeTag = "double"
	TypeFloat  TypeTag = "float"
	TypeBool   TypeTag = "bool"
	TypeShort  TypeTag = "short"
	TypeString TypeTag = "string"
)

// BindParameter is a raw parameter string and the type it binds as.
type BindParameter struct {
	Raw  string
	Type TypeTag
}

func (p BindParameter) String() string {
	return p.Raw + ":" + string(p.Type)
}

// converters is the fixed tag -> parse table. Each result is already the
// native Go type handed to the driver.
var converters = map[TypeTag]func(string) (any, error){
	TypeInt: func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	},
	TypeLong: func(s string) (any, error) {
		return strconv.ParseInt(s, 10, 64)
	},
	TypeShort: func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 10, 16)
		return int16(v), err
	},
	TypeDouble: func(s string) (any, error) {
		return strconv.ParseFloat(s, 64)
	},
	TypeFloat: func(s string) (any, error) {
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	},
	TypeBool: func(s string) (any, error) {
		return strconv.ParseBool(s)
	},
	TypeString: func(s string) (any, error) {
		return s, nil
	},
}

// ParseParam splits "value:type" on the first colon. A missing tag means string.
func ParseParam(entry string) (BindParameter, error) {
	raw, tag, ok := strings.Cut(entry, ":")
	if !ok {
		return BindParameter{Raw: entry, Type: TypeString}, nil
	}
	t := TypeTag(strings.TrimSpace(tag))
	if _, known := converters[t]; !known {
		return BindParameter{}, &ConfigError{Op: "parse parameter", Cause: fmt.Errorf("unrecognized parameter type %q in %q", tag, entry)}
	}
	return BindParameter{Raw: raw, Type: t}, nil
}

// ParseParams parses each entry in order.
func ParseParams(entries []string) ([]BindParameter, error) {
	params := make([]BindParameter, 0, len(entries))
	for _, e := range entries {
		p, err := ParseParam(e)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

// ParseParamList parses a comma separated list such as "5:int,abc,true:bool".
func ParseParamList(list string) ([]BindParameter, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	return ParseParams(strings.Split(list, ","))
}

// Convert parses the raw value under the declared type. position is 1-based
// and only used for error reporting.
func (p BindParameter) Convert(position int) (any, error) {
	t := p.Type
	if t == "" {
		t = TypeString
	}
	conv, ok := converters[t]
	if !ok {
		return nil, &ConfigError{Op: "bind parameter", Cause: fmt.Errorf("unrecognized parameter type %q", t)}
	}
	raw := p.Raw
	if t != TypeString {
		raw = strings.TrimSpace(raw)
	}
	v, err := conv(raw)
	if err != nil {
		return nil, &BindError{Position: position, Type: t, Value: p.Raw, Cause: err}
	}
	return v, nil
}

// BindArgs converts params into positional statement arguments 1, 2, 3, ...
func BindArgs(params []BindParameter) ([]any, error) {
	args := make([]any, len(params))
	for i, p := range params {
		v, err := p.Convert(i + 1)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}
