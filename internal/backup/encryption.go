package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

// EncryptionManager encrypts and decrypts snapshot blobs with AES-256-GCM.
// When encryption is disabled both operations pass blobs through untouched.
type EncryptionManager struct {
	config *EncryptionConfig
}

// NewEncryptionManager creates a new encryption manager
func NewEncryptionManager(config *EncryptionConfig) *EncryptionManager {
	return &EncryptionManager{
		config: config,
	}
}

// Encrypt encrypts a blob using AES-256-GCM
func (em *EncryptionManager) Encrypt(data []byte) ([]byte, error) {
	if !em.config.Enabled {
		return data, nil
	}

	key, err := em.config.GetEncryptionKey()
	if err != nil {
		return nil, NewEncryptionError("failed to get encryption key", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, NewEncryptionError("failed to create AES cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, NewEncryptionError("failed to create GCM cipher", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, NewEncryptionError("failed to generate nonce", err)
	}

	// Nonce is prepended to the ciphertext
	return gcm.Seal(nonce, nonce, data, nil), nil
}

// Decrypt decrypts a blob using AES-256-GCM
func (em *EncryptionManager) Decrypt(encryptedData []byte) ([]byte, error) {
	if !em.config.Enabled {
		return encryptedData, nil
	}

	key, err := em.config.GetEncryptionKey()
	if err != nil {
		return nil, NewEncryptionError("failed to get encryption key", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, NewEncryptionError("failed to create AES cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, NewEncryptionError("failed to create GCM cipher", err)
	}

	nonceSize := gcm.NonceSize()
	if len(encryptedData) < nonceSize {
		return nil, NewEncryptionError("encrypted data too short", nil)
	}

	nonce, ciphertext := encryptedData[:nonceSize], encryptedData[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, NewEncryptionError("failed to decrypt data", err)
	}

	return plaintext, nil
}

// IsEnabled returns whether encryption is enabled
func (em *EncryptionManager) IsEnabled() bool {
	return em.config.Enabled
}

// GetAlgorithm returns the encryption algorithm being used
func (em *EncryptionManager) GetAlgorithm() string {
	if !em.config.Enabled {
		return "NONE"
	}
	return "AES-256-GCM"
}

// KeyManager handles encryption key operations
type KeyManager struct{}

// NewKeyManager creates a new key manager
func NewKeyManager() *KeyManager {
	return &KeyManager{}
}

// GenerateKey generates a new 256-bit encryption key
func (km *KeyManager) GenerateKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, NewEncryptionError("failed to generate encryption key", err)
	}
	return key, nil
}

// GenerateKeyFromPassword derives a key from a password using PBKDF2
func (km *KeyManager) GenerateKeyFromPassword(password string, salt []byte) []byte {
	if len(salt) == 0 {
		salt = make([]byte, 32)
		rand.Read(salt)
	}

	// PBKDF2 with SHA-256, 100,000 iterations
	return pbkdf2.Key([]byte(password), salt, 100000, 32, sha256.New)
}

// SaveKeyToFile saves an encryption key to a file
func (km *KeyManager) SaveKeyToFile(key []byte, filepath string) error {
	if len(key) != 32 {
		return NewEncryptionError("key must be 32 bytes for AES-256", nil)
	}

	if err := os.WriteFile(filepath, key, 0600); err != nil {
		return NewEncryptionError("failed to save key to file", err)
	}

	return nil
}

// LoadKeyFromFile loads an encryption key from a file
func (km *KeyManager) LoadKeyFromFile(filepath string) ([]byte, error) {
	key, err := os.ReadFile(filepath)
	if err != nil {
		return nil, NewEncryptionError("failed to read key from file", err)
	}

	if len(key) != 32 {
		return nil, NewEncryptionError("key file must contain 32 bytes for AES-256", nil)
	}

	return key, nil
}

// ValidateKey validates that a key is suitable for AES-256
func (km *KeyManager) ValidateKey(key []byte) error {
	if len(key) != 32 {
		return NewEncryptionError("key must be 32 bytes for AES-256", nil)
	}

	allZeros := true
	allOnes := true
	for _, b := range key {
		if b != 0 {
			allZeros = false
		}
		if b != 0xFF {
			allOnes = false
		}
	}

	if allZeros {
		return NewEncryptionError("key cannot be all zeros", nil)
	}
	if allOnes {
		return NewEncryptionError("key cannot be all ones", nil)
	}

	return nil
}
