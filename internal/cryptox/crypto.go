// Package cryptox implements the content encryption scheme for stored files:
// a per-user AES-256-GCM key derived from the process master key, a fresh
// random 12-byte nonce per encryption, and blobs laid out as nonce||ciphertext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mediavault/mediavault/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// NonceSize is the AES-GCM nonce length stored at the head of every blob.
	NonceSize = 12

	// kdfSalt is a fixed domain/version tag. Changing it invalidates every
	// previously encrypted blob.
	kdfSalt = "media_secure_v1_prod"

	// kdfIterations is deliberately high so that a leaked ciphertext plus a
	// guessed master key still costs 600k SHA-256 rounds per candidate.
	kdfIterations = 600_000

	keySize = 32 // AES-256
)

// Cipher encrypts and decrypts file content with user-specific keys.
// The master key is process-wide configuration and is never logged.
type Cipher struct {
	masterKey string
}

func NewCipher(masterKey string) *Cipher {
	return &Cipher{masterKey: masterKey}
}

// DeriveKey derives the 32-byte AES key for userID. Deterministic: the same
// master key and user id always yield the same key.
func (c *Cipher) DeriveKey(userID string) []byte {
	password := []byte(fmt.Sprintf("media_v1_%s_%s", c.masterKey, userID))
	return pbkdf2.Key(password, []byte(kdfSalt), kdfIterations, keySize, sha256.New)
}

func (c *Cipher) newGCM(userID string) (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.DeriveKey(userID))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext for userID and returns the storage blob
// (nonce||ciphertext, tag included) together with the hex SHA-256 of the
// plaintext, computed before encryption.
func (c *Cipher) Encrypt(plaintext []byte, userID string) ([]byte, string, error) {
	aesgcm, err := c.newGCM(userID)
	if err != nil {
		return nil, "", err
	}

	nonce := common.GenerateRandByteArray(NonceSize)

	// Seal appends the ciphertext to a copy of the nonce, producing the
	// final nonce||ciphertext layout in one allocation.
	blob := aesgcm.Seal(nonce[:NonceSize:NonceSize], nonce, plaintext, nil)

	hash := sha256.Sum256(plaintext)
	return blob, hex.EncodeToString(hash[:]), nil
}

// Decrypt opens a blob produced by Encrypt. It returns common.ErrDecryption
// when the blob is too short to contain a nonce or fails authentication
// (wrong user, corrupted or tampered ciphertext). No partial plaintext is
// ever returned.
func (c *Cipher) Decrypt(blob []byte, userID string) ([]byte, error) {
	if len(blob) < NonceSize {
		return nil, fmt.Errorf("%w: blob shorter than nonce", common.ErrDecryption)
	}

	aesgcm, err := c.newGCM(userID)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, blob[:NonceSize], blob[NonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return plaintext, nil
}
