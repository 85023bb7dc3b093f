// Package output encodes keyed results as JSON or YAML mappings that keep
// entry order.
package output

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/zulandar/classlive/internal/resolve"
	"gopkg.in/yaml.v3"
)

// Format selects an encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("output: unknown format %q (want json or yaml)", s)
}

// Write encodes entries to w as one mapping in entry order.
func Write[K cmp.Ordered, V any](w io.Writer, f Format, entries []resolve.Entry[K, V]) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case YAML:
		data, err = encodeYAML(entries)
	default:
		data, err = encodeJSON(entries)
	}
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("output: write: %w", err)
	}
	return nil
}

// Value encodes a single value.
func Value(w io.Writer, f Format, v any) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case YAML:
		data, err = yaml.Marshal(v)
	default:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("output: encode: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("output: write: %w", err)
	}
	return nil
}

func encodeJSON[K cmp.Ordered, V any](entries []resolve.Entry[K, V]) ([]byte, error) {
	if len(entries) == 0 {
		return []byte("{}\n"), nil
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, e := range entries {
		key, err := json.Marshal(fmt.Sprint(e.Key))
		if err != nil {
			return nil, fmt.Errorf("output: encode key %v: %w", e.Key, err)
		}
		val, err := json.MarshalIndent(e.Value, "  ", "  ")
		if err != nil {
			return nil, fmt.Errorf("output: encode %v: %w", e.Key, err)
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(entries)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func encodeYAML[K cmp.Ordered, V any](entries []resolve.Entry[K, V]) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range entries {
		key := &yaml.Node{}
		if err := key.Encode(e.Key); err != nil {
			return nil, fmt.Errorf("output: encode key %v: %w", e.Key, err)
		}
		val := &yaml.Node{}
		if err := val.Encode(e.Value); err != nil {
			return nil, fmt.Errorf("output: encode %v: %w", e.Key, err)
		}
		doc.Content = append(doc.Content, key, val)
	}
	if len(entries) == 0 {
		doc.Style = yaml.FlowStyle
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("output: encode yaml: %w", err)
	}
	return data, nil
}
