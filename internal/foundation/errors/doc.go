// Package errors provides the classified error primitives used across docsite.
//
// ClassifiedError carries a category, a severity and structured context. Domain
// errors defined in other packages (schema violations, unknown plugins,
// navigation integrity, broken links) do not embed ClassifiedError; they
// implement Categorized instead so the CLI adapter can map them to exit codes.
//
// Example usage:
//
//	err := errors.WrapError(readErr, errors.CategoryConfig, "read site config").
//		Fatal().
//		WithPath(path).
//		Build()
package errors
