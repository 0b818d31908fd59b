package backup

import (
	"bytes"
	"path/filepath"
	"testing"
)

func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	return key
}

func testEncryptionConfig(key []byte) *EncryptionConfig {
	return &EncryptionConfig{
		Enabled:      true,
		KeySource:    "env",
		KeyEnvVar:    "TEST_BACKUP_KEY",
		KeyRetriever: func() ([]byte, error) { return key, nil },
	}
}

func TestEncryptionRoundTrip(t *testing.T) {
	manager := NewEncryptionManager(testEncryptionConfig(testKey()))
	data := []byte("Jobs snapshot payload")

	encrypted, err := manager.Encrypt(data)
	if err != nil {
		t.Fatalf("unexpected encrypt error: %v", err)
	}
	if bytes.Equal(encrypted, data) {
		t.Fatal("ciphertext should differ from plaintext")
	}

	decrypted, err := manager.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("unexpected decrypt error: %v", err)
	}
	if !bytes.Equal(decrypted, data) {
		t.Error("round trip did not reproduce original data")
	}
}

func TestEncryptionDisabledPassthrough(t *testing.T) {
	manager := NewEncryptionManager(&EncryptionConfig{Enabled: false})
	data := []byte("payload")

	encrypted, err := manager.Encrypt(data)
	if err != nil {
		t.Fatalf("unexpected encrypt error: %v", err)
	}
	if !bytes.Equal(encrypted, data) {
		t.Error("disabled encryption should pass data through")
	}

	if manager.GetAlgorithm() != "NONE" {
		t.Errorf("algorithm = %q, want NONE", manager.GetAlgorithm())
	}
}

func TestEncryptionDetectsTampering(t *testing.T) {
	manager := NewEncryptionManager(testEncryptionConfig(testKey()))

	encrypted, err := manager.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("unexpected encrypt error: %v", err)
	}

	encrypted[len(encrypted)-1] ^= 0xFF
	if _, err := manager.Decrypt(encrypted); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}

func TestEncryptionRejectsShortCiphertext(t *testing.T) {
	manager := NewEncryptionManager(testEncryptionConfig(testKey()))

	if _, err := manager.Decrypt([]byte{0x01, 0x02}); err == nil {
		t.Error("expected error for truncated ciphertext")
	}
}

func TestKeyManagerGenerateKey(t *testing.T) {
	km := NewKeyManager()

	key, err := km.GenerateKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("key length = %d, want 32", len(key))
	}
	if err := km.ValidateKey(key); err != nil {
		t.Errorf("generated key failed validation: %v", err)
	}
}

func TestKeyManagerPasswordDerivationIsDeterministic(t *testing.T) {
	km := NewKeyManager()
	salt := []byte("0123456789abcdef0123456789abcdef")

	first := km.GenerateKeyFromPassword("hunter2", salt)
	second := km.GenerateKeyFromPassword("hunter2", salt)

	if !bytes.Equal(first, second) {
		t.Error("same password and salt should derive the same key")
	}
	if len(first) != 32 {
		t.Errorf("derived key length = %d, want 32", len(first))
	}

	other := km.GenerateKeyFromPassword("hunter3", salt)
	if bytes.Equal(first, other) {
		t.Error("different passwords should derive different keys")
	}
}

func TestKeyManagerFileRoundTrip(t *testing.T) {
	km := NewKeyManager()
	key := testKey()
	path := filepath.Join(t.TempDir(), "backup.key")

	if err := km.SaveKeyToFile(key, path); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	loaded, err := km.LoadKeyFromFile(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if !bytes.Equal(loaded, key) {
		t.Error("loaded key differs from saved key")
	}
}

func TestKeyManagerValidateKey(t *testing.T) {
	km := NewKeyManager()

	if err := km.ValidateKey(make([]byte, 16)); err == nil {
		t.Error("expected error for short key")
	}
	if err := km.ValidateKey(make([]byte, 32)); err == nil {
		t.Error("expected error for all-zero key")
	}

	ones := bytes.Repeat([]byte{0xFF}, 32)
	if err := km.ValidateKey(ones); err == nil {
		t.Error("expected error for all-one key")
	}
}
