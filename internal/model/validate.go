package model

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Field limits for reported items.
const (
	TitleMinLength    = 3
	TitleMaxLength    = 120
	CategoryMaxLength = 60
	LocationMaxLength = 80
)

// ValidateFields checks the editable text fields of a record. Inputs are
// expected to be trimmed already.
func ValidateFields(title, category, location string) error {
	n := utf8.RuneCountInString(title)
	if n < TitleMinLength {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("title is required (min %d chars)", TitleMinLength)}
	}
	if n > TitleMaxLength {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("title too long (max %d chars)", TitleMaxLength)}
	}
	if utf8.RuneCountInString(category) > CategoryMaxLength {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("category too long (max %d chars)", CategoryMaxLength)}
	}
	if utf8.RuneCountInString(location) > LocationMaxLength {
		return &ValidationError{Field: "location", Message: fmt.Sprintf("location too long (max %d chars)", LocationMaxLength)}
	}
	return nil
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: "invalid date"}
	}
	return d, nil
}

// ValidType reports whether t is a known item type.
func ValidType(t string) bool {
	return t == TypeLost || t == TypeFound
}
