package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputValidator_ValidInput(t *testing.T) {
	validInputs := []string{
		"Aspirin",
		"타이레놀 500",
		"1정",
		"Vitamin D3 (1000 IU)",
		strings.Repeat("a", 50),
	}

	for _, input := range validInputs {
		assert.NoError(t, ValidateInput(input), input)
	}
}

func TestInputValidator_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "too long", input: strings.Repeat("ab", 101), want: ErrInputTooLarge},
		{name: "null byte", input: "hello\x00world", want: ErrNullByteDetected},
		{name: "escape sequence", input: "\x1b[31mred", want: ErrControlCharacter},
		{name: "newline in name", input: "two\nlines", want: ErrControlCharacter},
		{name: "invalid utf8", input: "bad\xff", want: ErrInvalidEncoding},
		{name: "repetition", input: strings.Repeat("z", 51), want: ErrRepetitiveContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateInput(tt.input), tt.want)
		})
	}
}

func TestInputValidator_CountsRunes(t *testing.T) {
	v := &InputValidator{MaxRunes: 3}
	assert.NoError(t, v.Validate("약복용"), "three runes fit even though they are nine bytes")
	assert.ErrorIs(t, v.Validate("약 복용"), ErrInputTooLarge)
}

func TestValidateNotes(t *testing.T) {
	assert.NoError(t, ValidateNotes("식후 30분\n물과 함께\t복용"))
	assert.ErrorIs(t, ValidateNotes("note\x00"), ErrNullByteDetected)
	assert.ErrorIs(t, ValidateNotes(strings.Repeat("가나", 2001)), ErrInputTooLarge)
}

func TestZeroLimitsAreNotEnforced(t *testing.T) {
	v := &InputValidator{AllowNewlines: true}
	assert.NoError(t, v.Validate(strings.Repeat("x", 10000)))
}
