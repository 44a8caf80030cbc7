package descriptor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedPlatform is returned when no rule selects a platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrAmbiguousPlatform is returned when more than one rule selects a platform.
	ErrAmbiguousPlatform = errors.New("ambiguous platform")
)

// ValidationError holds a specific field error.
type ValidationError struct {
	Field   string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ErrorList collects multiple validation errors.
type ErrorList []ValidationError

// Add appends a single error to the list.
func (e *ErrorList) Add(field string, err error) {
	if err != nil {
		*e = append(*e, ValidationError{Field: field, Message: err.Error()})
	}
}

// AddMsg allows adding a string message directly.
func (e *ErrorList) AddMsg(field string, msg string) {
	*e = append(*e, ValidationError{Field: field, Message: msg})
}

// MustMerge combines another ErrorList into this list.
func (e *ErrorList) MustMerge(err error) {
	if err == nil {
		return
	}

	if list, ok := err.(ErrorList); ok {
		*e = append(*e, list...)
	} else {
		panic("MustMerge called with non-ErrorList error")
	}
}

// Err returns nil if no errors, or the list itself if errors exist.
func (e ErrorList) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e ErrorList) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("error: descriptor validation failed (%d errors):\n", len(e)))
	for _, err := range e {
		b.WriteString(fmt.Sprintf("error:    %s\n", err.Error()))
	}

	return strings.TrimRight(b.String(), "\n")
}
