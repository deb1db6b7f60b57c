package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAccessCode_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := GenerateAccessCode()
		assert.Len(t, code, AccessCodeLength)

		// Verify only allowed characters
		for _, ch := range code {
			assert.Contains(t, accessCodeChars, string(ch),
				"Code should only contain characters from accessCodeChars")
		}
	}
}

func TestGenerateAccessCode_NoAmbiguousCharacters(t *testing.T) {
	assert.NotContains(t, accessCodeChars, "0")
	assert.NotContains(t, accessCodeChars, "O")
	assert.NotContains(t, accessCodeChars, "1")
	assert.NotContains(t, accessCodeChars, "I")
	assert.NotContains(t, accessCodeChars, "L")
}

func TestGenerateAccessCode_Uniqueness(t *testing.T) {
	// Generate 1000 codes and ensure no duplicates
	codes := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := GenerateAccessCode()
		assert.False(t, codes[code], "Generated duplicate code: %s", code)
		codes[code] = true
	}
}
