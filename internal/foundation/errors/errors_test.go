package errors

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			Fatal().
			WithContext("file", "docsite.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())
		assert.True(t, err.IsFatal())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "docsite.yaml", file)
	})

	t.Run("wrap keeps cause", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := WrapError(cause, CategoryFileSystem, "write page").Build()

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "[filesystem:error] write page: disk full", err.Error())
	})

	t.Run("not found with path", func(t *testing.T) {
		err := NotFoundError("no configuration file found").WithPath("/site").Build()

		assert.Equal(t, CategoryNotFound, err.Category())
		assert.False(t, err.IsFatal())
		path, ok := err.Context().GetString("path")
		require.True(t, ok)
		assert.Equal(t, "/site", path)
	})

	t.Run("with context copies", func(t *testing.T) {
		base := ConfigError("bad").WithContext("a", 1).Build()
		derived := base.WithContext("b", 2)

		_, ok := base.Context().Get("b")
		assert.False(t, ok)
		v, ok := derived.Context().Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)
	})
}

type navErr struct{}

func (navErr) Error() string           { return "nav broken" }
func (navErr) Category() ErrorCategory { return CategoryNavigation }

func TestGetCategory(t *testing.T) {
	assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	assert.Equal(t, CategoryNavigation, GetCategory(fmt.Errorf("wrapped: %w", navErr{})))
	assert.True(t, HasCategory(ValidationError("x").Build(), CategoryValidation))
	assert.False(t, HasCategory(nil, CategoryValidation))
}

func TestCLIErrorAdapterExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", stderrors.New("boom"), 1},
		{"validation", ValidationError("bad field").Build(), 2},
		{"plugin", PluginError("unknown").Build(), 3},
		{"navigation", navErr{}, 4},
		{"config", ConfigError("unreadable").Build(), 7},
		{"filesystem", FileSystemError("write").Build(), 11},
		{"canceled", fmt.Errorf("stage: %w", context.Canceled), 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapterHandleError(t *testing.T) {
	var out bytes.Buffer
	var code int
	a := NewCLIErrorAdapter(false, nil)
	a.stderr = &out
	a.exit = func(c int) { code = c }

	a.HandleError(ConfigError("cannot read site config").WithPath("x.yaml").Build())

	assert.Equal(t, 7, code)
	assert.Equal(t, "Error: cannot read site config\n", out.String())
}
