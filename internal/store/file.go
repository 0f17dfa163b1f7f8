package store

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// File is a CredentialStore sealed to disk with ChaCha20-Poly1305. It stands
// in for the platform secure store: a single encrypted file holding all keys,
// rewritten atomically on every mutation.
//
// A file that cannot be decrypted or parsed is treated as empty rather than
// surfaced as an error, so a corrupted store degrades to a signed-out state
// instead of wedging the app.
type File struct {
	path string
	aead cipher.AEAD

	mu sync.Mutex
}

// NewFile opens (or lazily creates) a sealed store at path. The key must be
// exactly chacha20poly1305.KeySize (32) bytes.
func NewFile(path string, key []byte) (*File, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &File{path: path, aead: aead}, nil
}

// LoadOrCreateKey reads a raw 32-byte key from path, generating and
// persisting a fresh random key (mode 0600) when the file does not exist.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("key file %s: expected %d bytes, got %d", path, chacha20poly1305.KeySize, len(key))
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return key, nil
}

func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.load()
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.load()
	values[key] = value
	return f.save(values)
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.load()
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.save(values)
}

// load reads and decrypts the store. Missing, unreadable, or corrupted files
// all yield an empty map.
func (f *File) load() map[string]string {
	sealed, err := os.ReadFile(f.path)
	if err != nil || len(sealed) < f.aead.NonceSize() {
		return map[string]string{}
	}

	nonce, ciphertext := sealed[:f.aead.NonceSize()], sealed[f.aead.NonceSize():]
	plaintext, err := f.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return map[string]string{}
	}

	var values map[string]string
	if json.Unmarshal(plaintext, &values) != nil || values == nil {
		return map[string]string{}
	}
	return values
}

// save seals the full value map and writes it atomically (temp file + rename).
func (f *File) save(values map[string]string) error {
	plaintext, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	nonce := make([]byte, f.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := append(nonce, f.aead.Seal(nil, nonce, plaintext, nil)...)

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
