// Package upload validates knowledge base documents before they are sent to
// the backend.
package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Rules are the client-side acceptance rules for a document.
type Rules struct {
	// MaxBytes is the largest accepted file size. Zero disables the check.
	MaxBytes int64

	// Extensions are the accepted lower-case extensions, including the dot.
	Extensions []string
}

// Reason identifies why a document was rejected.
type Reason int

const (
	ReasonExtension Reason = iota + 1
	ReasonTooLarge
	ReasonEmpty
)

// ValidationError is returned by Validate.
type ValidationError struct {
	Name   string
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Detail)
}

// Validate checks a file name and size against rules.
func Validate(name string, size int64, rules Rules) error {
	base := filepath.Base(name)

	ext := strings.ToLower(filepath.Ext(base))
	if len(rules.Extensions) > 0 && !slices.Contains(rules.Extensions, ext) {
		return &ValidationError{
			Name:   base,
			Reason: ReasonExtension,
			Detail: fmt.Sprintf("unsupported file type %q (allowed: %s)", ext, strings.Join(rules.Extensions, ", ")),
		}
	}

	if size <= 0 {
		return &ValidationError{Name: base, Reason: ReasonEmpty, Detail: "file is empty"}
	}

	if rules.MaxBytes > 0 && size > rules.MaxBytes {
		return &ValidationError{
			Name:   base,
			Reason: ReasonTooLarge,
			Detail: fmt.Sprintf("file is %d bytes, limit is %d", size, rules.MaxBytes),
		}
	}

	return nil
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
