package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	sigsyaml "sigs.k8s.io/yaml"
)

// Encoder turns a value into serialized bytes.
type Encoder func(v any) ([]byte, error)

// Itemizer is implemented by documents that JSON Lines splits into one
// line per item, such as a history export.
type Itemizer interface {
	Items() []any
}

// YAML serializes v as YAML. Field names follow the value's json tags and
// map keys are sorted.
func YAML(v any) ([]byte, error) {
	b, err := sigsyaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializing YAML: %w", err)
	}

	return ensureNewline(b), nil
}

// JSON serializes v as indented JSON.
func JSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing JSON: %w", err)
	}

	return ensureNewline(b), nil
}

// JSONLines serializes each item of an Itemizer as one compact JSON line.
// Any other value becomes a single line.
func JSONLines(v any) ([]byte, error) {
	items := []any{v}
	if it, ok := v.(Itemizer); ok {
		items = it.Items()
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return nil, fmt.Errorf("serializing JSON line %d: %w", i+1, err)
		}
	}

	return buf.Bytes(), nil
}

func ensureNewline(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}

	return b
}
