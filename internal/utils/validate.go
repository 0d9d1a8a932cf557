package utils

import (
	"strings"

	apperrors "bobbystable/internal/errors"
)

const (
	MaxNameLength     = 100
	MaxRequestsLength = 500
)

// NormalizeName collapses runs of whitespace and rejects empty names.
func NormalizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", apperrors.InvalidInput("I didn't catch a name. What name should the reservation be under?")
	}
	if len(name) > MaxNameLength {
		return "", apperrors.InvalidInput("I'm sorry, that name is too long. Could you give me a shorter one?")
	}
	return name, nil
}

// NormalizePhone accepts 7 to 15 digits with the usual separators.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	for _, c := range phone {
		if !strings.ContainsRune("0123456789+-(). ", c) {
			return "", apperrors.InvalidInput("I'm sorry, that doesn't sound like a phone number. Could you repeat it?")
		}
	}
	if n := len(DigitsOnly(phone)); n < 7 || n > 15 {
		return "", apperrors.InvalidInput("I'm sorry, that doesn't sound like a phone number. Could you repeat it?")
	}
	return phone, nil
}

var noRequests = map[string]bool{
	"none": true, "no": true, "nope": true, "nothing": true, "no thanks": true, "n/a": true,
}

// NormalizeRequests trims free text and maps spoken "none" answers to "".
func NormalizeRequests(requests string) (string, error) {
	requests = strings.TrimSpace(requests)
	if noRequests[strings.ToLower(strings.TrimRight(requests, ".!"))] {
		return "", nil
	}
	if len(requests) > MaxRequestsLength {
		return "", apperrors.InvalidInput("I'm sorry, that request is too long. Could you keep it brief?")
	}
	return requests, nil
}

func DigitsOnly(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
