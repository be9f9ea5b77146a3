package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateToken(t *testing.T) {
	t.Run("fixed length", func(t *testing.T) {
		token, err := generateToken(6)

		assert.NoError(t, err)
		assert.Len(t, token, 6)
	})

	t.Run("letters only", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			token, err := generateToken(6)

			assert.NoError(t, err)
			for _, r := range token {
				assert.True(t, strings.ContainsRune(tokenAlphabet, r), "unexpected rune %q in token %q", r, token)
			}
		}
	})
}
