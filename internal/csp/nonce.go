package csp

// nonce.go
import (
	"crypto/rand"
	"encoding/base64"
)

// NonceBytes — длина nonce в байтах (160 бит).
const NonceBytes = 20

// NonceFunc — генератор nonce; подменяется в тестах.
type NonceFunc func() (string, error)

// NewNonce возвращает свежий base64-токен из crypto/rand. Никогда не кешируется.
func NewNonce() (string, error) {
	b := make([]byte, NonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
