// Package errors provides enhanced errors carrying a component, a category and
// structured context, built with a fluent builder:
//
//	return errors.Newf("%w: %s", ErrMissingCategories, names).
//		Component("model").
//		Category(errors.CategoryValidation).
//		Context("missing_categories", missing).
//		Build()
//
// Built errors keep a stack trace and unwrap to whatever was wrapped with %w,
// so errors.Is and errors.As keep working across package boundaries.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"

	pkgerrors "github.com/pkg/errors"
)

// Category classifies an error for callers that branch on failure kind.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryNotFound      Category = "not-found"
	CategoryRuleContract  Category = "rule-contract"
	CategoryConfiguration Category = "configuration"
	CategoryDatabase      Category = "database"
	CategoryGeneric       Category = "generic"
)

// EnhancedError is an error annotated with component, category and context.
type EnhancedError struct {
	Err       error
	component string
	category  Category
	context   map[string]any
}

func (e *EnhancedError) Error() string {
	return e.Err.Error()
}

func (e *EnhancedError) Unwrap() error {
	return e.Err
}

// GetComponent returns the component that raised the error.
func (e *EnhancedError) GetComponent() string {
	return e.component
}

// GetCategory returns the error category, CategoryGeneric when unset.
func (e *EnhancedError) GetCategory() Category {
	if e.category == "" {
		return CategoryGeneric
	}
	return e.category
}

// GetContext returns a copy of the structured context.
func (e *EnhancedError) GetContext() map[string]any {
	return maps.Clone(e.context)
}

// ContextValue returns a single context value.
func (e *EnhancedError) ContextValue(key string) (any, bool) {
	v, ok := e.context[key]
	return v, ok
}

// ErrorBuilder assembles an EnhancedError.
type ErrorBuilder struct {
	err       error
	component string
	category  Category
	context   map[string]any
}

// New starts a builder around an existing error.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: pkgerrors.WithStack(err)}
}

// Newf starts a builder from a format string. %w is honored.
func Newf(format string, args ...any) *ErrorBuilder {
	return &ErrorBuilder{err: pkgerrors.WithStack(fmt.Errorf(format, args...))}
}

// Component sets the reporting component.
func (b *ErrorBuilder) Component(component string) *ErrorBuilder {
	b.component = component
	return b
}

// Category sets the error category.
func (b *ErrorBuilder) Category(category Category) *ErrorBuilder {
	b.category = category
	return b
}

// Context attaches a key/value pair.
func (b *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if b.context == nil {
		b.context = make(map[string]any)
	}
	b.context[key] = value
	return b
}

// Build returns the finished error.
func (b *ErrorBuilder) Build() *EnhancedError {
	return &EnhancedError{
		Err:       b.err,
		component: b.component,
		category:  b.category,
		context:   b.context,
	}
}

// NewStd creates a plain error, intended for package-level sentinels.
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join wraps the given errors into one.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// IsCategory reports whether err carries the given category anywhere in its chain.
func IsCategory(err error, category Category) bool {
	var enhanced *EnhancedError
	for err != nil {
		if !stderrors.As(err, &enhanced) {
			return false
		}
		if enhanced.GetCategory() == category {
			return true
		}
		err = enhanced.Err
	}
	return false
}
