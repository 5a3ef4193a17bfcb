// Adsgate - Google Ads API Client Manager
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/adsgate

package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrDecryptionFailed means the ciphertext did not authenticate.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidCiphertext means the ciphertext is malformed.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

const defaultEncryptionContext = "adsgate-oauth-token-encryption"

// TokenEncryptor seals OAuth tokens at rest with AES-256-GCM. The AES key
// is derived from the master key with HKDF-SHA256 so one master key can
// serve several contexts. A nil *TokenEncryptor passes values through.
type TokenEncryptor struct {
	aead cipher.AEAD
}

// TokenEncryptorConfig configures a TokenEncryptor.
type TokenEncryptorConfig struct {
	// MasterKey is a base64 key of at least 16 bytes.
	MasterKey string
	// Context separates derived keys; defaults to the OAuth token context.
	Context string
}

// NewTokenEncryptor returns nil, nil when no master key is configured.
func NewTokenEncryptor(cfg *TokenEncryptorConfig) (*TokenEncryptor, error) {
	if cfg == nil || cfg.MasterKey == "" {
		return nil, nil
	}

	master, err := base64.StdEncoding.DecodeString(cfg.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	if len(master) < 16 {
		return nil, errors.New("master key must be at least 16 bytes")
	}

	info := cfg.Context
	if info == "" {
		info = defaultEncryptionContext
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM cipher: %w", err)
	}
	return &TokenEncryptor{aead: aead}, nil
}

// IsEnabled is nil-safe.
func (e *TokenEncryptor) IsEnabled() bool {
	return e != nil && e.aead != nil
}

// Encrypt returns base64(nonce || ciphertext). Empty input stays empty.
func (e *TokenEncryptor) Encrypt(plaintext string) (string, error) {
	if !e.IsEnabled() || plaintext == "" {
		return plaintext, nil
	}
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (e *TokenEncryptor) Decrypt(ciphertext string) (string, error) {
	if !e.IsEnabled() || ciphertext == "" {
		return ciphertext, nil
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrInvalidCiphertext)
	}
	ns := e.aead.NonceSize()
	if len(data) < ns+1+e.aead.Overhead() {
		return "", fmt.Errorf("%w: data too short", ErrInvalidCiphertext)
	}
	plaintext, err := e.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

// Seal returns a copy of rec with both tokens encrypted.
func (e *TokenEncryptor) Seal(rec *TokenRecord) (*TokenRecord, error) {
	out := rec.Clone()
	if !e.IsEnabled() {
		out.Encrypted = false
		return out, nil
	}
	var err error
	if out.AccessToken, err = e.Encrypt(rec.AccessToken); err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}
	if out.RefreshToken, err = e.Encrypt(rec.RefreshToken); err != nil {
		return nil, fmt.Errorf("encrypt refresh token: %w", err)
	}
	out.Encrypted = true
	return out, nil
}

// Open returns a plaintext copy of a sealed record. A record sealed while
// encryption was enabled cannot be opened once it is disabled.
func (e *TokenEncryptor) Open(rec *TokenRecord) (*TokenRecord, error) {
	out := rec.Clone()
	if !rec.Encrypted {
		return out, nil
	}
	if !e.IsEnabled() {
		return nil, fmt.Errorf("%w: record is encrypted but no key is configured", ErrDecryptionFailed)
	}
	var err error
	if out.AccessToken, err = e.Decrypt(rec.AccessToken); err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	if out.RefreshToken, err = e.Decrypt(rec.RefreshToken); err != nil {
		return nil, fmt.Errorf("decrypt refresh token: %w", err)
	}
	out.Encrypted = false
	return out, nil
}

// GenerateEncryptionKey returns 32 random bytes, base64 encoded.
func GenerateEncryptionKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generate random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
