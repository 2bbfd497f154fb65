package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	passwordSymbols   = `!@#$%^&*(),.?":{}|<>`
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	scriptBlock  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	jsScheme     = regexp.MustCompile(`(?i)javascript:`)
	eventHandler = regexp.MustCompile(`(?i)on\w+=`)
	angleBracket = strings.NewReplacer("<", "", ">", "")
)

// PasswordCheck lists every rule a password violates.
type PasswordCheck struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateEmail is a structural local@domain.tld check, not full RFC 5322.
func ValidateEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidatePassword evaluates all strength rules and reports each violation.
func ValidatePassword(s string) PasswordCheck {
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}

	errs := make([]string, 0, 5)
	if utf8.RuneCountInString(s) < minPasswordLength {
		errs = append(errs, "Password must be at least 8 characters long")
	}
	if !upper {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !lower {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !digit {
		errs = append(errs, "Password must contain at least one number")
	}
	if !symbol {
		errs = append(errs, "Password must contain at least one special character")
	}
	return PasswordCheck{Valid: len(errs) == 0, Errors: errs}
}

// SanitizeInput is input hygiene, not an XSS defence: it trims whitespace and
// strips script blocks, angle brackets, javascript: schemes and inline event
// handler attributes. Output encoding at render time remains required.
//
// Passes repeat until the string is stable so that removals cannot splice a
// new match together (e.g. "javajavascript:script:").
func SanitizeInput(s string) string {
	for {
		next := strings.TrimSpace(s)
		next = scriptBlock.ReplaceAllString(next, "")
		next = angleBracket.Replace(next)
		next = jsScheme.ReplaceAllString(next, "")
		next = eventHandler.ReplaceAllString(next, "")
		next = strings.TrimSpace(next)
		if next == s {
			return next
		}
		s = next
	}
}
