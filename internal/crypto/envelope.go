// Package crypto provides AES-256-GCM authenticated encryption for the
// third-party passwords stored in the vault. These are the only truly
// confidential values in the database: account passwords and PINs are
// bcrypt-hashed and never need to be recovered, but a vault entry must be
// returned to its owner byte-for-byte, so it is sealed with an AEAD rather
// than hashed. AES-256-GCM gives both confidentiality and integrity: a row
// tampered with in the database fails authentication instead of silently
// decrypting to garbage.
//
// The at-rest format is a colon-joined triple of lowercase hex segments:
//
//	<nonce-hex>:<ciphertext-hex>:<tag-hex>
//
// Hex cannot produce a colon, so the separator is unambiguous by
// construction. The format is fixed; changing it strands every envelope
// already written.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrMasterSecretMissing is returned when the server master secret is empty; the service must not start without it.
	ErrMasterSecretMissing = errors.New("crypto: master secret is not set")
	// ErrMalformedEnvelope is returned when an envelope does not split into three hex segments.
	ErrMalformedEnvelope = errors.New("crypto: envelope is malformed")
	// ErrDecryptionFailed is returned when GCM authentication fails, indicating tampering or a wrong key.
	ErrDecryptionFailed = errors.New("crypto: decryption operation failed")
)

const (
	// kdfIterations is the PBKDF2-SHA256 work factor. The derivation runs
	// once per process lifetime, so the cost is paid at startup, not per
	// request.
	kdfIterations = 100000

	keyLength = 32

	gcmTagSize = 16
)

// kdfSalt is a fixed application-level salt for key derivation. A
// per-deployment random salt would be stronger, but it would have to be
// persisted alongside the master secret and rotating it would strand every
// stored envelope. Known trade-off for a single-tenant deployment.
var kdfSalt = []byte("application-resume-vault-kdf-v1")

// EnvelopeCipher seals and opens vault secrets with a key derived from the
// server master secret. The key is derived once and is immutable afterwards,
// so a single instance is safe for concurrent use across requests.
type EnvelopeCipher struct {
	key []byte
}

// DeriveEnvelopeCipher derives the vault key from the server master secret.
// An empty secret is a fatal configuration error: starting without it would
// make every stored envelope undecryptable.
func DeriveEnvelopeCipher(masterSecret string) (*EnvelopeCipher, error) {
	if masterSecret == "" {
		return nil, ErrMasterSecretMissing
	}
	key := pbkdf2.Key([]byte(masterSecret), kdfSalt, kdfIterations, keyLength, sha256.New)
	return &EnvelopeCipher{key: key}, nil
}

// Encrypt seals plaintext into an envelope string. The nonce is freshly
// generated on every call and is never reused, even when the same plaintext
// is re-encrypted for the same record.
func (ec *EnvelopeCipher) Encrypt(plaintext string) (string, error) {
	aead, err := ec.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)

	// Seal appends the authentication tag to the ciphertext; the envelope
	// format carries the two as separate segments.
	ciphertext := sealed[:len(sealed)-gcmTagSize]
	tag := sealed[len(sealed)-gcmTagSize:]

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext) + ":" + hex.EncodeToString(tag), nil
}

// Decrypt opens an envelope string and returns the original plaintext. A
// tampered ciphertext or tag fails with ErrDecryptionFailed; no partial
// plaintext is ever returned.
func (ec *EnvelopeCipher) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 3 {
		return "", ErrMalformedEnvelope
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", ErrMalformedEnvelope
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", ErrMalformedEnvelope
	}
	tag, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrMalformedEnvelope
	}

	aead, err := ec.aead()
	if err != nil {
		return "", err
	}
	if len(nonce) != aead.NonceSize() || len(tag) != gcmTagSize {
		return "", ErrMalformedEnvelope
	}

	plaintext, err := aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

func (ec *EnvelopeCipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(ec.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
