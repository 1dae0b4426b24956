package plugin

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeOptions decodes a free-form options record into a typed struct using
// its yaml tags. Unknown keys are rejected.
func DecodeOptions(options map[string]any, into any) error {
	if len(options) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(into); err != nil && !stderrors.Is(err, io.EOF) {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// Disabled reports whether a preset part was switched off with `false`.
func Disabled(v any) bool {
	b, ok := v.(bool)
	return ok && !b
}

// SubOptions returns the mapping stored under key, or nil.
func SubOptions(options map[string]any, key string) map[string]any {
	if m, ok := options[key].(map[string]any); ok {
		return m
	}
	return nil
}
