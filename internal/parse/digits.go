package parse

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	StudentCodeLength  = 9
	NationalCodeLength = 10
	NameMaxLength      = 20
	PasswordMinLength  = 6
)

// asciiDigits rewrites Extended Arabic-Indic (Persian) and Arabic-Indic digits to ASCII.
var asciiDigits = runes.Map(func(r rune) rune {
	switch {
	case r >= '۰' && r <= '۹':
		return '0' + (r - '۰')
	case r >= '٠' && r <= '٩':
		return '0' + (r - '٠')
	}
	return r
})

// Digits trims s and converts Persian and Arabic digits to ASCII.
func Digits(s string) string {
	out, _, err := transform.String(asciiDigits, strings.TrimSpace(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return out
}

func exactDigits(raw, field string, n int) (string, error) {
	s := Digits(raw)
	if len(s) != n {
		return "", fmt.Errorf("%s must be exactly %d digits", field, n)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%s must be exactly %d digits", field, n)
		}
	}
	return s, nil
}

// StudentCode normalises and validates a 9-digit student code.
func StudentCode(raw string) (string, error) {
	return exactDigits(raw, "student code", StudentCodeLength)
}

// NationalCode normalises and validates a 10-digit national code.
func NationalCode(raw string) (string, error) {
	return exactDigits(raw, "national code", NationalCodeLength)
}

// Name trims a first or last name and checks its length in characters.
func Name(raw, field string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(s) > NameMaxLength {
		return "", fmt.Errorf("%s must be at most %d characters", field, NameMaxLength)
	}
	return s, nil
}

// Password checks the minimum length and that the confirmation matches.
func Password(password, confirm string) error {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return fmt.Errorf("password must be at least %d characters", PasswordMinLength)
	}
	if password != confirm {
		return fmt.Errorf("password confirmation does not match")
	}
	return nil
}
