package service

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// tokenAlphabet deliberately contains letters only so tokens stay readable
// and never collide with numeric route segments.
const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generateToken produces a random alphabetic token of the given length.
// Uniqueness is not guaranteed here; the unique constraint on short_links
// is the actual collision defense.
func generateToken(length int) (string, error) {
	return gonanoid.Generate(tokenAlphabet, length)
}
