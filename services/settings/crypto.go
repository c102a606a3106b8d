// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package settings

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	secretKeySize = 32
	nonceSize     = 24
)

// SecretBox encrypts settings secrets at rest.
//
// # Description
//
// Uses NaCl secretbox with a machine-local random key stored in a 0600
// file under the device config directory. The ciphertext is a base64 string
// with the random 24-byte nonce prepended, so encrypting the same value
// twice yields different output. The key never syncs with user data.
//
// While open, the key lives in a memguard locked buffer rather than plain
// process memory.
//
// # Legacy plaintext
//
// Installations that predate at-rest encryption hold secrets as plaintext.
// Decrypt therefore treats its input as a two-variant union: a value that
// decodes as base64 and opens as secretbox ciphertext is decrypted; anything
// else is returned unchanged. Decrypt never fails.
type SecretBox struct {
	key *memguard.LockedBuffer
}

// OpenSecretBox loads the device key at keyPath, creating it on first run.
func OpenSecretBox(keyPath string) (*SecretBox, error) {
	raw, err := os.ReadFile(keyPath)
	if os.IsNotExist(err) {
		raw = make([]byte, secretKeySize)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("generating device key: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
			return nil, fmt.Errorf("creating key directory: %w", err)
		}
		if err := os.WriteFile(keyPath, raw, 0o600); err != nil {
			return nil, fmt.Errorf("writing device key: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("reading device key: %w", err)
	}
	if len(raw) != secretKeySize {
		return nil, fmt.Errorf("device key at %s has %d bytes, want %d", keyPath, len(raw), secretKeySize)
	}

	// NewBufferFromBytes wipes raw after copying it into locked memory.
	return &SecretBox{key: memguard.NewBufferFromBytes(raw)}, nil
}

// Close wipes the in-memory key. The SecretBox is unusable afterwards.
func (b *SecretBox) Close() {
	if b.key != nil {
		b.key.Destroy()
		b.key = nil
	}
}

// Encrypt returns the base64 ciphertext for plain.
func (b *SecretBox) Encrypt(plain string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	var key [secretKeySize]byte
	copy(key[:], b.key.Bytes())

	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, &key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt returns the plaintext for s, or s itself when s is not
// ciphertext produced by this box.
func (b *SecretBox) Decrypt(s string) string {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return s
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	var key [secretKeySize]byte
	copy(key[:], b.key.Bytes())

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &key)
	if !ok {
		return s
	}
	return string(plain)
}
