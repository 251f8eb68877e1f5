// Package security guards free-text input before it is stored
package security

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	ErrInputTooLarge     = errors.New("input exceeds maximum size")
	ErrNullByteDetected  = errors.New("null byte detected in input")
	ErrControlCharacter  = errors.New("control character in input")
	ErrInvalidEncoding   = errors.New("input is not valid UTF-8")
	ErrRepetitiveContent = errors.New("excessive repetition detected")
)

// InputValidator checks one text field. Limits of zero are not enforced.
type InputValidator struct {
	MaxRunes      int
	MaxRepetition int
	AllowNewlines bool
}

// NewInputValidator returns the limits for short single-line fields
func NewInputValidator() *InputValidator {
	return &InputValidator{
		MaxRunes:      200,
		MaxRepetition: 50,
	}
}

// NewNotesValidator returns the limits for multi-line notes
func NewNotesValidator() *InputValidator {
	return &InputValidator{
		MaxRunes:      4000,
		MaxRepetition: 200,
		AllowNewlines: true,
	}
}

func (v *InputValidator) Validate(input string) error {
	if !utf8.ValidString(input) {
		return ErrInvalidEncoding
	}
	if v.MaxRunes > 0 && utf8.RuneCountInString(input) > v.MaxRunes {
		return ErrInputTooLarge
	}

	for _, r := range input {
		switch {
		case r == 0:
			return ErrNullByteDetected
		case r == '\n' || r == '\t' || r == '\r':
			if !v.AllowNewlines {
				return ErrControlCharacter
			}
		case unicode.IsControl(r):
			return ErrControlCharacter
		}
	}

	if v.MaxRepetition > 0 && hasExcessiveRepetition(input, v.MaxRepetition) {
		return ErrRepetitiveContent
	}
	return nil
}

func hasExcessiveRepetition(input string, maxLen int) bool {
	if utf8.RuneCountInString(input) <= maxLen {
		return false
	}

	runes := []rune(input)
	consecutiveCount := 1

	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			consecutiveCount++
			if consecutiveCount > maxLen {
				return true
			}
		} else {
			consecutiveCount = 1
		}
	}

	return false
}

// ValidateInput checks a short single-line field
func ValidateInput(input string) error {
	return NewInputValidator().Validate(input)
}

// ValidateNotes checks a multi-line notes field
func ValidateNotes(input string) error {
	return NewNotesValidator().Validate(input)
}
