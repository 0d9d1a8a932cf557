package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "bobbystable/internal/errors"
)

const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD and rejects anything that is not a real
// calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not a YYYY-MM-DD calendar date", s)
	}
	return d, nil
}

// NormalizeDate returns the canonical YYYY-MM-DD form of s.
func NormalizeDate(s string) (string, error) {
	d, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return d.Format(DateLayout), nil
}

// ParseTime normalises "19:00", "19:00:00", "7pm", "7 PM" and "7:00pm" to
// the 24h "19:00" form used for slots.
func ParseTime(s string) (string, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	raw = strings.ReplaceAll(raw, ".", "")
	if raw == "" {
		return "", fmt.Errorf("empty time")
	}

	meridiem := ""
	for _, suffix := range []string{"am", "pm"} {
		if strings.HasSuffix(raw, suffix) {
			meridiem = suffix
			raw = strings.TrimSpace(strings.TrimSuffix(raw, suffix))
			break
		}
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return "", fmt.Errorf("time %q not understood", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("time %q not understood", s)
	}
	minute := 0
	if len(parts) > 1 {
		if minute, err = strconv.Atoi(parts[1]); err != nil || len(parts[1]) != 2 {
			return "", fmt.Errorf("time %q not understood", s)
		}
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec != 0 {
			return "", fmt.Errorf("time %q not understood", s)
		}
	}

	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return "", fmt.Errorf("time %q not understood", s)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return "", fmt.Errorf("time %q not understood", s)
		}
		if hour != 12 {
			hour += 12
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("time %q out of range", s)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// CheckDate normalises date or returns a spoken InvalidInput error.
func CheckDate(date string) (string, error) {
	normalized, err := NormalizeDate(date)
	if err != nil {
		return "", apperrors.InvalidInput("I'm sorry, I need the date as year, month and day. What date would you like?")
	}
	return normalized, nil
}
