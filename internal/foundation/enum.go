package foundation

import (
	"fmt"
	"sort"
	"strings"
)

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalizer maps loosely written enum spellings (aliases, mixed case, padding)
// onto a canonical typed value.
type Normalizer[T comparable] struct {
	validValues  map[string]T
	defaultValue T
}

// NewNormalizer creates a normalizer with a map of accepted spelling -> value pairs.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[normalizeKey(k)] = v
	}

	return &Normalizer[T]{
		validValues:  normalized,
		defaultValue: defaultValue,
	}
}

// Normalize converts raw to the enum type, falling back to the default value.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, exists := n.validValues[normalizeKey(raw)]; exists {
		return value
	}
	return n.defaultValue
}

// NormalizeWithError converts raw to the enum type or reports it as invalid.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if value, exists := n.validValues[normalizeKey(raw)]; exists {
		return value, nil
	}

	var zero T
	return zero, fmt.Errorf("invalid value: %q (accepted: %s)", raw, strings.Join(n.Accepted(), ", "))
}

// IsValid reports whether raw is an accepted spelling.
func (n *Normalizer[T]) IsValid(raw string) bool {
	_, ok := n.validValues[normalizeKey(raw)]
	return ok
}

// Accepted returns the accepted spellings in sorted order.
func (n *Normalizer[T]) Accepted() []string {
	keys := make([]string, 0, len(n.validValues))
	for k := range n.validValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
