package accounts

import (
	"crypto/rand"
	"math/big"
)

// PasswordCharset is the alphabet used for generated mailbox passwords.
const PasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

// DefaultPasswordLength is the length of generated passwords.
const DefaultPasswordLength = 12

// GeneratePassword returns a uniformly random password drawn from PasswordCharset.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultPasswordLength
	}
	max := big.NewInt(int64(len(PasswordCharset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = PasswordCharset[n.Int64()]
	}
	return string(out), nil
}
