// src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

// MaxDateInputLength covers dd/mm/yyyy with some surrounding whitespace.
const MaxDateInputLength = 16

// ValidateDateInput rejects a user-entered date before parsing when it is blank, too long
// or holds anything other than digits, '/', '-' and spaces.
func ValidateDateInput(s, fieldName string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return fmt.Errorf("%w: %s is required", ErrValidationFailed, fieldName)
	}
	if n := utf8.RuneCountInString(s); n > MaxDateInputLength {
		return fmt.Errorf("%w: %s has %d characters, at most %d allowed", ErrValidationFailed, fieldName, n, MaxDateInputLength)
	}
	if i := strings.IndexFunc(trimmed, func(r rune) bool {
		return (r < '0' || r > '9') && r != '/' && r != '-' && r != ' '
	}); i >= 0 {
		return fmt.Errorf("%w: %s contains '%c'", ErrValidationFailed, fieldName, []rune(trimmed[i:])[0])
	}
	return nil
}
