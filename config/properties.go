package config

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/magiconair/properties"
)

// legacyKeys maps the old jdbc.* property names onto the db.* ones.
var legacyKeys = map[string]string{
	"jdbc.driver":     "db.driver",
	"jdbc.jarpath":    "db.location",
	"jdbc.url":        "db.url",
	"jdbc.username":   "db.username",
	"jdbc.password":   "db.password",
	"jdbc.query":      "db.query",
	"jdbc.queryfile":  "db.queryFile",
	"jdbc.parameters": "db.parameters",
	"jdbc.fetchsize":  "db.fetchSize",
	"jdbc.rowindex":   "db.rowIndex",
	"jdbc.maxrows":    "db.maxRows",
}

// propertiesCodec reads and writes Java-style .properties files for viper.
// Dotted keys become nested maps. ${...} expansion is off so queries keep
// their placeholders verbatim.
type propertiesCodec struct{}

func (propertiesCodec) Decode(b []byte, v map[string]any) error {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadBytes(b)
	if err != nil {
		return err
	}

	keys := p.Keys()
	explicit := make(map[string]bool, len(keys))
	for _, k := range keys {
		explicit[strings.ToLower(k)] = true
	}

	for _, k := range keys {
		val, _ := p.Get(k)
		key := k
		if mapped, ok := legacyKeys[strings.ToLower(k)]; ok {
			if explicit[strings.ToLower(mapped)] {
				continue
			}
			key = mapped
		}
		if err := setPath(v, strings.Split(key, "."), val); err != nil {
			return fmt.Errorf("property %q: %w", k, err)
		}
	}
	return nil
}

func setPath(m map[string]any, path []string, val string) error {
	for _, part := range path[:len(path)-1] {
		next, ok := m[part]
		if !ok {
			child := make(map[string]any)
			m[part] = child
			m = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%q is both a value and a section", part)
		}
		m = child
	}
	last := path[len(path)-1]
	if _, isSection := m[last].(map[string]any); isSection {
		return fmt.Errorf("%q is both a value and a section", last)
	}
	m[last] = val
	return nil
}

func (propertiesCodec) Encode(v map[string]any) ([]byte, error) {
	flat := make(map[string]string)
	flatten("", v, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := properties.NewProperties()
	p.DisableExpansion = true
	for _, k := range keys {
		if _, _, err := p.Set(k, flat[k]); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := p.Write(&buf, properties.UTF8); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flatten(prefix string, v map[string]any, out map[string]string) {
	for k, val := range v {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := val.(type) {
		case map[string]any:
			flatten(key, t, out)
		case []string:
			out[key] = strings.Join(t, ",")
		case []any:
			parts := make([]string, len(t))
			for i, e := range t {
				parts[i] = fmt.Sprint(e)
			}
			out[key] = strings.Join(parts, ",")
		default:
			out[key] = fmt.Sprint(t)
		}
	}
}
