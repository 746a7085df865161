package utils

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MaxFieldLength caps free-text input on the setup screen.
const MaxFieldLength = 20

// IsValidParticipantID checks that the id is non-blank and short enough to
// live in a file name.
func IsValidParticipantID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && len(id) <= MaxFieldLength
}

// AcceptsRune reports whether r may be typed into a field. Numeric fields
// take digits only.
func AcceptsRune(numeric bool, r rune) bool {
	if numeric {
		return unicode.IsDigit(r)
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
}

// ParsePositiveInt parses a numeric form field. An empty field is reported
// as missing.
func ParsePositiveInt(field, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", field)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return n, nil
}
