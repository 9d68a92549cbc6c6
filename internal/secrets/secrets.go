// Package secrets seals admin settings at rest and serves the GitHub token.
package secrets

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	"fourgears/internal/github"
	"fourgears/internal/storage"
)

const (
	keyLen   = 32
	hkdfInfo = "fourgears-admin-settings"

	// GitHubTokenKey is the settings key holding the sealed GitHub token.
	GitHubTokenKey = "github_token"
)

// Box seals and opens short strings with AES-256-GCM.
type Box struct {
	aead cipher.AEAD
}

// NewBox derives the sealing key from secret with HKDF-SHA256.
func NewBox(secret string) (*Box, error) {
	if secret == "" {
		return nil, errors.New("empty secret key")
	}
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Seal encrypts plaintext and returns base64(nonce || ciphertext).
func (b *Box) Seal(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("random nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (b *Box) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	n := b.aead.NonceSize()
	if len(raw) < n {
		return "", errors.New("sealed value too short")
	}
	plain, err := b.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}
	return string(plain), nil
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}

// Settings is the key/value table the vault reads and writes.
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// Vault keeps the GitHub token sealed in the settings table.
type Vault struct {
	settings Settings
	box      *Box
}

// NewVault wires a vault over the settings table.
func NewVault(settings Settings, box *Box) *Vault {
	return &Vault{settings: settings, box: box}
}

// GitHubToken returns the plaintext token, or github.ErrNoToken when none is
// stored.
func (v *Vault) GitHubToken(ctx context.Context) (string, error) {
	sealed, err := v.settings.GetSetting(ctx, GitHubTokenKey)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && sealed == "") {
		return "", github.ErrNoToken
	}
	if err != nil {
		return "", err
	}
	return v.box.Open(sealed)
}

// SetGitHubToken seals and stores token. An empty token clears it.
func (v *Vault) SetGitHubToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return v.settings.PutSetting(ctx, GitHubTokenKey, "")
	}
	sealed, err := v.box.Seal(token)
	if err != nil {
		return err
	}
	return v.settings.PutSetting(ctx, GitHubTokenKey, sealed)
}

// MaskedGitHubToken reports whether a token is configured and its masked form.
func (v *Vault) MaskedGitHubToken(ctx context.Context) (string, bool, error) {
	token, err := v.GitHubToken(ctx)
	if errors.Is(err, github.ErrNoToken) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return Mask(token), true, nil
}
