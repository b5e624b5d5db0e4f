package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const encPrefix = "enc:"

// SecretKey encrypts credentials stored in the config file.
// Uses AES-256-GCM for authenticated encryption.
type SecretKey struct {
	key []byte
}

// NewSecretKey derives the key from MUSE_SECRET_KEY, or loads (creating on
// first use) the key file at ~/.muse/secret.key.
func NewSecretKey() (*SecretKey, error) {
	if pass := os.Getenv("MUSE_SECRET_KEY"); pass != "" {
		return SecretKeyFromPassphrase(pass), nil
	}
	return LoadOrCreateSecretKey(filepath.Join(homeDir(), ".muse", "secret.key"))
}

// SecretKeyFromPassphrase hashes an arbitrary passphrase into a 256-bit key.
func SecretKeyFromPassphrase(pass string) *SecretKey {
	h := sha256.Sum256([]byte(pass))
	return &SecretKey{key: h[:]}
}

// LoadOrCreateSecretKey reads a raw 32-byte key from path, generating and
// persisting a random one if the file does not exist.
func LoadOrCreateSecretKey(path string) (*SecretKey, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil && len(data) >= 32:
		return &SecretKey{key: data[:32]}, nil
	case err == nil:
		return nil, fmt.Errorf("secret key file %s is too short", path)
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read secret key: %w", err)
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate secret key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, fmt.Errorf("failed to write secret key: %w", err)
	}
	return &SecretKey{key: key}, nil
}

// IsEncrypted reports whether v carries the "enc:" marker.
func IsEncrypted(v string) bool {
	return strings.HasPrefix(v, encPrefix)
}

// Encrypt returns base64 ciphertext with the "enc:" prefix. Empty input stays empty.
func (s *SecretKey) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := s.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return encPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Values without the prefix are returned unchanged,
// so plain credentials in the config file keep working.
func (s *SecretKey) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, encPrefix))
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := s.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}

func (s *SecretKey) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return gcm, nil
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return h
	}
	return os.TempDir()
}
