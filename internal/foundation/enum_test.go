package foundation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

const (
	colorRed  color = "red"
	colorBlue color = "blue"
)

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]color{
		"red":  colorRed,
		"RED ": colorRed,
		"blue": colorBlue,
		"navy": colorBlue,
	}, colorRed)

	assert.Equal(t, colorBlue, n.Normalize("  Navy"))
	assert.Equal(t, colorRed, n.Normalize("green"))
	assert.True(t, n.IsValid("BLUE"))
	assert.False(t, n.IsValid(""))

	v, err := n.NormalizeWithError("blue")
	require.NoError(t, err)
	assert.Equal(t, colorBlue, v)

	_, err = n.NormalizeWithError("green")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blue, navy, red")
}
