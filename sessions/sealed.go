package sessions

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jrsteele09/readify/internal/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

type sealedRepo struct {
	repo Repo
	aead cipher.AEAD
}

// Sealed encrypts values with XChaCha20-Poly1305 before they reach repo.
// The key name is authenticated with the value, so a sealed value cannot be moved to another key.
func Sealed(repo Repo, key []byte) (Repo, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("sealed repo: %w", err)
	}
	return &sealedRepo{repo: repo, aead: aead}, nil
}

// KeyFromHex decodes a hex encoded 32 byte sealing key.
func KeyFromHex(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode credential key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("credential key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return key, nil
}

func (s *sealedRepo) Get(ctx context.Context, key string) (string, error) {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(data) < s.aead.NonceSize() {
		return "", errors.Wrapf(errors.ErrUnsealed, "key %q", key)
	}
	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]

	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", errors.Wrapf(errors.ErrUnsealed, "key %q", key)
	}
	return string(plain), nil
}

func (s *sealedRepo) Set(ctx context.Context, key, value string) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return s.repo.Set(ctx, key, base64.StdEncoding.EncodeToString(sealed))
}

func (s *sealedRepo) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}
