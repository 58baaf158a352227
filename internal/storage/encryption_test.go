package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptFile(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
		password  string
	}{
		{
			name:      "simple text",
			plaintext: "hello, draws",
			password:  "test-password",
		},
		{
			name:      "empty file",
			plaintext: "",
			password:  "test-password",
		},
		{
			name:      "binary-ish payload",
			plaintext: string(make([]byte, 10000)),
			password:  "secure-password-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "plain.db")
			enc := filepath.Join(dir, "plain.db.enc")
			dec := filepath.Join(dir, "restored.db")

			if err := os.WriteFile(src, []byte(tt.plaintext), 0o600); err != nil {
				t.Fatalf("write fixture: %v", err)
			}

			config := DefaultEncryptionConfig(tt.password)
			if err := EncryptFile(src, enc, config); err != nil {
				t.Fatalf("EncryptFile() error = %v", err)
			}

			encrypted, err := os.ReadFile(enc)
			if err != nil {
				t.Fatalf("read encrypted file: %v", err)
			}
			if bytes.Contains(encrypted, []byte(tt.plaintext)) && tt.plaintext != "" {
				t.Error("encrypted file should not contain the plaintext")
			}

			if err := DecryptFile(enc, dec, config); err != nil {
				t.Fatalf("DecryptFile() error = %v", err)
			}
			restored, err := os.ReadFile(dec)
			if err != nil {
				t.Fatalf("read decrypted file: %v", err)
			}
			if string(restored) != tt.plaintext {
				t.Errorf("decrypted content = %q, want %q", restored, tt.plaintext)
			}
		})
	}
}

func TestDecryptFileWrongPassword(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")

	if err := os.WriteFile(src, []byte("secret draws"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := EncryptFile(src, enc, DefaultEncryptionConfig("correct-password")); err != nil {
		t.Fatalf("EncryptFile() error = %v", err)
	}

	err := DecryptFile(enc, filepath.Join(dir, "out.db"), DefaultEncryptionConfig("wrong-password"))
	if err == nil {
		t.Error("DecryptFile() with wrong password should fail")
	}
}

func TestDecryptFileNotEncrypted(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	if err := os.WriteFile(src, []byte("just a plain file with enough length"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	err := DecryptFile(src, filepath.Join(dir, "out.db"), DefaultEncryptionConfig("pw"))
	if err == nil {
		t.Error("DecryptFile() on unencrypted file should fail")
	}
}

func TestEncryptFileEmptyPassword(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	if err := os.WriteFile(src, []byte("data"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	err := EncryptFile(src, filepath.Join(dir, "out.enc"), &EncryptionConfig{})
	if err == nil {
		t.Error("EncryptFile() with empty password should fail")
	}
}

func TestIsEncrypted(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")

	if err := os.WriteFile(plain, []byte("plain content"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := EncryptFile(plain, enc, DefaultEncryptionConfig("pw")); err != nil {
		t.Fatalf("EncryptFile() error = %v", err)
	}

	if got, err := IsEncrypted(plain); err != nil || got {
		t.Errorf("IsEncrypted(plain) = %v, %v; want false, nil", got, err)
	}
	if got, err := IsEncrypted(enc); err != nil || !got {
		t.Errorf("IsEncrypted(enc) = %v, %v; want true, nil", got, err)
	}
}
