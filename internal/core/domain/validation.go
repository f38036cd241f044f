package domain

import (
	"strings"
	"time"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
	birthDateLayout   = "2006-01-02"
)

// ValidateSignup applies username, email and password rules in that
// order and returns the first failure.
func ValidateSignup(username, email, password string) error {
	if !IsUsernameValid(username) {
		return ErrInvalidUsername
	}
	if !IsEmailValid(email) {
		return ErrInvalidEmail
	}
	if !IsPasswordValid(password) {
		return ErrInvalidPassword
	}
	return nil
}

// IsUsernameValid: at least 3 characters, ASCII letters and digits only.
func IsUsernameValid(username string) bool {
	if len(username) < minUsernameLength {
		return false
	}
	for i := 0; i < len(username); i++ {
		if !isASCIIAlnum(username[i]) {
			return false
		}
	}
	return true
}

// IsPasswordValid: at least 6 characters, ASCII only, one uppercase letter.
func IsPasswordValid(password string) bool {
	if len(password) < minPasswordLength {
		return false
	}
	upper := false
	for i := 0; i < len(password); i++ {
		c := password[i]
		if c >= 0x80 {
			return false
		}
		if c >= 'A' && c <= 'Z' {
			upper = true
		}
	}
	return upper
}

// IsEmailValid: ASCII, exactly one '@', a domain with at least two
// dot-separated labels, and no empty part.
func IsEmailValid(email string) bool {
	for i := 0; i < len(email); i++ {
		if email[i] >= 0x80 {
			return false
		}
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return false
	}
	labels := strings.Split(parts[1], ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
	}
	return true
}

// NormalizeProfileName trims v and checks it holds only ASCII letters
// and whitespace. ok is false for empty or invalid values.
func NormalizeProfileName(v string) (string, bool) {
	t := strings.TrimSpace(v)
	if t == "" {
		return "", false
	}
	for i := 0; i < len(t); i++ {
		c := t[i]
		if !isASCIILetter(c) && !isASCIISpace(c) {
			return "", false
		}
	}
	return t, true
}

// ParseBirthDate parses a YYYY-MM-DD date.
func ParseBirthDate(s string) (time.Time, error) {
	d, err := time.Parse(birthDateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidBirthDate
	}
	return d, nil
}

func isASCIIAlnum(c byte) bool {
	return isASCIILetter(c) || (c >= '0' && c <= '9')
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isASCIISpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
