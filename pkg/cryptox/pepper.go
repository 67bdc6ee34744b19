package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the generated hash
	saltLength  = 16        // Length of the salt
)

var (
	pepperMu sync.RWMutex
	pepper   string
)

// SetPepper installs the secret mixed into every argon2id hash.
func SetPepper(value string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()
	pepper = value
}

// GetPepper returns the current pepper. It is empty until SetPepper or
// LoadPepper has run.
func GetPepper() string {
	pepperMu.RLock()
	defer pepperMu.RUnlock()
	return pepper
}

// LoadPepper reads the pepper from file, generating and persisting a new one
// when the file does not exist yet.
func LoadPepper(file string) error {
	if file == "" {
		return errors.New("cryptox: pepper file path is empty")
	}
	value, err := loadOrGeneratePepper(filepath.Clean(file))
	if err != nil {
		return err
	}
	SetPepper(value)
	return nil
}

func loadOrGeneratePepper(pepperFile string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(pepperFile), 0750); err != nil {
		return "", err
	}

	pepperBytes, err := os.ReadFile(pepperFile)
	if err == nil {
		return string(pepperBytes), nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	raw := make([]byte, keyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	value := base64.RawURLEncoding.EncodeToString(raw)
	if err := os.WriteFile(pepperFile, []byte(value), 0600); err != nil {
		return "", err
	}
	return value, nil
}
