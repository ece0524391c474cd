package grapherror

import (
	"time"

	"github.com/teranos/QVIZ/errors"
)

// GraphError carries a categorized engine failure: the wrapped cause, a
// message safe to surface in the console, and free-form debug context.
type GraphError struct {
	Err         error
	Category    Category
	Subcategory string
	UserMessage string
	Context     map[string]interface{}
	Timestamp   time.Time
}

// New wraps err under a category with a console-safe message
func New(category Category, err error, userMsg string) *GraphError {
	return &GraphError{
		Err:         err,
		Category:    category,
		UserMessage: userMsg,
		Context:     map[string]interface{}{},
		Timestamp:   time.Now(),
	}
}

// Newf builds the underlying error from a format string
func Newf(category Category, userMsg, format string, args ...interface{}) *GraphError {
	return New(category, errors.Newf(format, args...), userMsg)
}

func (e *GraphError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

// Unwrap exposes the cause to errors.Is/As
func (e *GraphError) Unwrap() error {
	return e.Err
}

// WithSubcategory refines the category; returns e for chaining
func (e *GraphError) WithSubcategory(sub string) *GraphError {
	e.Subcategory = sub
	return e
}

// WithContext records one debug key-value pair
func (e *GraphError) WithContext(key string, value interface{}) *GraphError {
	if e.Context == nil {
		e.Context = map[string]interface{}{}
	}
	e.Context[key] = value
	return e
}

// WithContextMap merges ctx into the debug context
func (e *GraphError) WithContextMap(ctx map[string]interface{}) *GraphError {
	for k, v := range ctx {
		e.WithContext(k, v)
	}
	return e
}
