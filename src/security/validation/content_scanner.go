// src/security/validation/content_scanner.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Common XSS vectors. Contextual output encoding is the primary defense.
	xssPatternsRegex = regexp.MustCompile(
		`(?i)<script|onerror=|onmouseover=|onfocus=|onload=|javascript:|vbscript:|<iframe|<object|<embed|<applet|<style|<link|<img\s+src\s*=\s*['"]?\s*(javascript|data):`,
	)
	// Formula injection characters at the start of a string
	formulaInjectionPrefixRegex = regexp.MustCompile(`^[=+\-@\t\r]`)
)

// CheckXSSPatterns detects basic XSS patterns.
func CheckXSSPatterns(s, fieldName string) error {
	if xssPatternsRegex.MatchString(s) {
		return fmt.Errorf("%w: potential XSS pattern detected in field '%s'", ErrValidationFailed, fieldName)
	}
	return nil
}

// CheckFormulaInjection detects if a string starts with characters common in formula injection.
func CheckFormulaInjection(s, fieldName string) error {
	// Formula injection relies on the prefix
	prefixToCheck := s
	if len(s) > 10 {
		prefixToCheck = s[:10]
	}
	if formulaInjectionPrefixRegex.MatchString(strings.TrimSpace(prefixToCheck)) {
		return fmt.Errorf("%w: potential formula injection pattern detected in field '%s'", ErrValidationFailed, fieldName)
	}
	return nil
}

// ScanRow runs both checks over the string cells of row and returns one finding per
// offending cell. names labels the cells; missing names fall back to the column number.
func ScanRow(row []any, names []string) []error {
	var findings []error
	for i, cell := range row {
		s, ok := cell.(string)
		if !ok || s == "" {
			continue
		}
		name := fmt.Sprintf("column %d", i+1)
		if i < len(names) {
			name = names[i]
		}
		if err := CheckFormulaInjection(s, name); err != nil {
			findings = append(findings, err)
		}
		if err := CheckXSSPatterns(s, name); err != nil {
			findings = append(findings, err)
		}
	}
	return findings
}
