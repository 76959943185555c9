package auth

import (
	"strings"
	"testing"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestPasswordCipherRoundTrip(t *testing.T) {
	cipher, err := NewPasswordCipher(testKey)
	if err != nil {
		t.Fatalf("NewPasswordCipher failed: %v", err)
	}

	for _, password := range []string{"sesame", "", "pässwörd with spaces", strings.Repeat("x", 512)} {
		encrypted, err := cipher.Encrypt(password)
		if err != nil {
			t.Fatalf("Encrypt(%q) failed: %v", password, err)
		}
		if encrypted == password && password != "" {
			t.Errorf("ciphertext should differ from plaintext")
		}

		decrypted, err := cipher.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if decrypted != password {
			t.Errorf("round trip = %q, want %q", decrypted, password)
		}
	}
}

func TestPasswordCipherNonDeterministic(t *testing.T) {
	cipher, err := NewPasswordCipher(testKey)
	if err != nil {
		t.Fatalf("NewPasswordCipher failed: %v", err)
	}

	a, _ := cipher.Encrypt("sesame")
	b, _ := cipher.Encrypt("sesame")
	if a == b {
		t.Error("repeated encryption should produce different ciphertexts")
	}
}

func TestPasswordCipherBadKey(t *testing.T) {
	if _, err := NewPasswordCipher("not hex"); err == nil {
		t.Error("non-hex key should be rejected")
	}
	if _, err := NewPasswordCipher("0001"); err == nil {
		t.Error("short key should be rejected")
	}
}

func TestPasswordCipherBadCiphertext(t *testing.T) {
	cipher, err := NewPasswordCipher(testKey)
	if err != nil {
		t.Fatalf("NewPasswordCipher failed: %v", err)
	}

	if _, err := cipher.Decrypt("zz"); err == nil {
		t.Error("non-hex ciphertext should be rejected")
	}
	if _, err := cipher.Decrypt("0001"); err == nil {
		t.Error("truncated ciphertext should be rejected")
	}

	encrypted, _ := cipher.Encrypt("sesame")
	tampered := encrypted[:len(encrypted)-2] + "00"
	if tampered != encrypted {
		if _, err := cipher.Decrypt(tampered); err == nil {
			t.Error("tampered ciphertext should fail authentication")
		}
	}
}
