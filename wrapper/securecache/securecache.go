// Package securecache provides a security wrapper for fetchcache.Store
// implementations. It adds SHA-256 key hashing (always enabled) and optional
// AES-256-GCM encryption for cached snapshots.
package securecache

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/sandrolain/fetchcache"
	"golang.org/x/crypto/scrypt"
)

const (
	// scryptN is the CPU/memory cost parameter for scrypt key derivation
	scryptN = 32768
	// scryptR is the block size parameter for scrypt
	scryptR = 8
	// scryptP is the parallelization parameter for scrypt
	scryptP = 1
	// keyLength is the desired key length for AES-256
	keyLength = 32
	// nonceSize is the size of the GCM nonce
	nonceSize = 12
	// hashedKeyPrefix marks keys that are already in hashed form, so keys
	// coming back from Keys (e.g. during a sweep) are not hashed twice.
	hashedKeyPrefix = "sha256:"
)

// SecureStore wraps an existing store to add security features:
//   - SHA-256 hashing of all cache keys (always enabled), so request URLs
//     and header values never appear verbatim in the backend
//   - optional AES-256-GCM encryption of snapshots (when a passphrase is
//     provided)
//
// Keys returned by Keys are the hashed forms; the fetchcache sweeper only
// ever feeds those keys back into Get and Delete, so sweeping still works.
type SecureStore struct {
	store      fetchcache.Store
	gcm        cipher.AEAD
	passphrase string
}

// Config holds the configuration for creating a SecureStore.
type Config struct {
	// Store is the underlying store implementation to wrap.
	Store fetchcache.Store

	// Passphrase is the secret used to encrypt/decrypt cached snapshots.
	// If empty, only key hashing is performed (no encryption).
	// Must be kept secret and consistent across application restarts.
	Passphrase string
}

// New creates a new SecureStore that wraps the provided store.
func New(config Config) (*SecureStore, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	sc := &SecureStore{
		store:      config.Store,
		passphrase: config.Passphrase,
	}

	if config.Passphrase != "" {
		if err := sc.initEncryption(); err != nil {
			return nil, fmt.Errorf("failed to initialize encryption: %w", err)
		}
	}

	return sc, nil
}

// initEncryption initializes the AES-256-GCM cipher using the passphrase.
func (sc *SecureStore) initEncryption() error {
	// Derive a 32-byte key from the passphrase using scrypt
	// Using a fixed salt here - in production, consider storing a random salt
	salt := sha256.Sum256([]byte("fetchcache-securecache-salt-v1"))
	key, err := scrypt.Key([]byte(sc.passphrase), salt[:], scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	sc.gcm = gcm
	return nil
}

// hashKey converts a cache key to its SHA-256 hash representation.
// Already-hashed keys pass through unchanged.
func (sc *SecureStore) hashKey(key string) string {
	if strings.HasPrefix(key, hashedKeyPrefix) {
		return key
	}
	hash := sha256.Sum256([]byte(key))
	return hashedKeyPrefix + hex.EncodeToString(hash[:])
}

// encrypt encrypts data using AES-256-GCM.
// Returns the encrypted data with the nonce prepended.
func (sc *SecureStore) encrypt(data []byte) ([]byte, error) {
	if sc.gcm == nil {
		return data, nil // No encryption configured
	}

	nonce := make([]byte, sc.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// #nosec G407 -- nonce is randomly generated above using crypto/rand, not hardcoded
	ciphertext := sc.gcm.Seal(nonce, nonce, data, nil)
	return ciphertext, nil
}

// decrypt decrypts data using AES-256-GCM.
// Expects the nonce to be prepended to the ciphertext.
func (sc *SecureStore) decrypt(data []byte) ([]byte, error) {
	if sc.gcm == nil {
		return data, nil // No decryption needed
	}

	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce := data[:nonceSize]
	ciphertext := data[nonceSize:]

	plaintext, err := sc.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// Get retrieves a cached snapshot.
// The key is hashed with SHA-256 before lookup.
// The data is decrypted if encryption is enabled.
func (sc *SecureStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := sc.store.Get(ctx, sc.hashKey(key))
	if err != nil || !ok {
		return nil, false, err
	}

	plaintext, err := sc.decrypt(data)
	if err != nil {
		return nil, false, err
	}
	return plaintext, true, nil
}

// Set stores a snapshot in the cache.
// The key is hashed with SHA-256 before storage.
// The data is encrypted if encryption is enabled.
func (sc *SecureStore) Set(ctx context.Context, key string, data []byte) error {
	encrypted, err := sc.encrypt(data)
	if err != nil {
		return err
	}
	return sc.store.Set(ctx, sc.hashKey(key), encrypted)
}

// Delete removes a snapshot from the cache.
// The key is hashed with SHA-256 before deletion.
func (sc *SecureStore) Delete(ctx context.Context, key string) error {
	return sc.store.Delete(ctx, sc.hashKey(key))
}

// Keys returns the hashed keys of all stored entries.
func (sc *SecureStore) Keys(ctx context.Context) ([]string, error) {
	return sc.store.Keys(ctx)
}

// Clear removes all entries from the underlying store.
func (sc *SecureStore) Clear(ctx context.Context) error {
	return sc.store.Clear(ctx)
}

// IsEncrypted returns true if the store is configured with encryption.
func (sc *SecureStore) IsEncrypted() bool {
	return sc.gcm != nil
}
