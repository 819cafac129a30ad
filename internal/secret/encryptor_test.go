package secret

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewEncryptorFromBytes(testKey())
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}

	sealed, err := enc.Encrypt("JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if sealed == "JBSWY3DPEHPK3PXP" {
		t.Fatal("ciphertext equals plaintext")
	}

	opened, err := enc.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if opened != "JBSWY3DPEHPK3PXP" {
		t.Errorf("round trip mismatch: %q", opened)
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	enc, _ := NewEncryptorFromBytes(testKey())
	other, _ := NewEncryptorFromBytes(bytes.Repeat([]byte{0x17}, 32))

	sealed, err := enc.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	if _, err := other.Decrypt(sealed); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestNewEncryptorRejectsShortKey(t *testing.T) {
	if _, err := NewEncryptorFromBytes([]byte("short")); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}
