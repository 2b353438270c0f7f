// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

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
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// =============================================================================
// AT-REST ENCRYPTION
// =============================================================================

// encryptedPrefix marks a stored value as encrypted
// (format: ENC:base64(nonce|ciphertext|tag)).
const encryptedPrefix = "ENC:"

const (
	keyFileSize      = 64 // 32-byte secret + 32-byte salt
	aesKeySize       = 32
	pbkdf2Iterations = 600000
)

// ErrDecryptionFailed means a stored value could not be authenticated,
// from a wrong key file or tampered data.
var ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")

// cipherBox encrypts and decrypts stored secrets with AES-256-GCM. The
// AES key derives from a random secret kept in a 0600 file beside the
// database, so the database alone does not expose the keys.
type cipherBox struct {
	aead cipher.AEAD
}

// openCipherBox loads the key file, creating it with fresh random
// material on first use.
func openCipherBox(keyPath string) (*cipherBox, error) {
	material, err := os.ReadFile(keyPath)
	if errors.Is(err, os.ErrNotExist) {
		material = make([]byte, keyFileSize)
		if _, err := io.ReadFull(rand.Reader, material); err != nil {
			return nil, fmt.Errorf("failed to generate key material: %w", err)
		}
		if err := os.WriteFile(keyPath, material, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write key file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	if len(material) != keyFileSize {
		return nil, fmt.Errorf("key file %s is corrupt", keyPath)
	}

	secret, salt := material[:32], material[32:]
	key := pbkdf2.Key(secret, salt, pbkdf2Iterations, aesKeySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to build cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to build GCM: %w", err)
	}
	return &cipherBox{aead: aead}, nil
}

// Encrypt seals a plaintext value for storage.
func (b *cipherBox) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a stored value. Unprefixed values pass through unchanged
// so databases written before encryption keep working.
func (b *cipherBox) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, encryptedPrefix) {
		return stored, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, encryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	if len(sealed) < b.aead.NonceSize() {
		return "", ErrDecryptionFailed
	}
	nonce, ciphertext := sealed[:b.aead.NonceSize()], sealed[b.aead.NonceSize():]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}
