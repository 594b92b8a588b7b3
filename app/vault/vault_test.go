package vault

import (
	"strings"
	"testing"
)

func TestVault_RoundTrip(t *testing.T) {
	v := New("test-secret")

	plaintexts := []string{"username", "p@ssw0rd with spaces", "", "exactly16bytes!!"}
	for _, plaintext := range plaintexts {
		encrypted, err := v.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q) returned error: %v", plaintext, err)
		}

		decrypted, err := v.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("Decrypt returned error for %q: %v", plaintext, err)
		}

		if decrypted != plaintext {
			t.Errorf("Expected %q after round trip, got %q", plaintext, decrypted)
		}
	}
}

func TestVault_CiphertextFormat(t *testing.T) {
	v := New("test-secret")

	encrypted, err := v.Encrypt("credentials")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}

	parts := strings.Split(encrypted, ":")
	if len(parts) != 2 {
		t.Fatalf("Expected iv:ciphertext format, got %q", encrypted)
	}
	if len(parts[0]) != 32 {
		t.Errorf("Expected 16-byte hex iv, got %d hex chars", len(parts[0]))
	}
}

func TestVault_EncryptIsRandomized(t *testing.T) {
	v := New("test-secret")

	first, err := v.Encrypt("same input")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	second, err := v.Encrypt("same input")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}

	if first == second {
		t.Error("Expected distinct ciphertexts for repeated encryption (random iv)")
	}
}

func TestVault_DecryptRejectsMalformedInput(t *testing.T) {
	v := New("test-secret")

	inputs := []string{"", "no-separator", "zzzz:zzzz", "abcd:1234"}
	for _, input := range inputs {
		if _, err := v.Decrypt(input); err == nil {
			t.Errorf("Expected error decrypting %q", input)
		}
	}
}

func TestVault_WrongKeyFails(t *testing.T) {
	encrypted, err := New("right-key").Encrypt("secret data")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}

	decrypted, err := New("wrong-key").Decrypt(encrypted)
	if err == nil && decrypted == "secret data" {
		t.Error("Expected decryption with the wrong key to fail or garble output")
	}
}
