package security

import (
	"github.com/matthewhartstonge/argon2"
)

// HashPassword hashes a plaintext password with argon2id using the
// library defaults and returns the encoded hash string.
func HashPassword(password string) (string, error) {
	argon := argon2.DefaultConfig()

	encoded, err := argon.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether the plaintext password matches the
// encoded argon2 hash.
func VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(encodedHash))
}
