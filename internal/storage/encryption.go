package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/argon2"
)

const (
	// encryptionMagic is prepended to encrypted backups for identification.
	encryptionMagic = "PWPLENC1"

	// Argon2id parameters per RFC 9106 recommendations.
	defaultArgon2Time    = 1
	defaultArgon2Memory  = 64 * 1024 // KiB
	defaultArgon2Threads = 4
	argon2KeyLen         = 32 // AES-256

	saltLength = 32
)

// EncryptionConfig holds parameters for encrypting backup files.
type EncryptionConfig struct {
	// Password is the encryption passphrase.
	Password string

	// Argon2Time is the number of Argon2 iterations.
	Argon2Time uint32

	// Argon2Memory is the Argon2 memory cost in KiB.
	Argon2Memory uint32

	// Argon2Threads is the Argon2 parallelism degree.
	Argon2Threads uint8
}

// DefaultEncryptionConfig returns an encryption config with secure defaults.
func DefaultEncryptionConfig(password string) *EncryptionConfig {
	return &EncryptionConfig{
		Password:      password,
		Argon2Time:    defaultArgon2Time,
		Argon2Memory:  defaultArgon2Memory,
		Argon2Threads: defaultArgon2Threads,
	}
}

func (c *EncryptionConfig) validate() error {
	if c == nil {
		return fmt.Errorf("encryption config is nil")
	}
	if c.Password == "" {
		return fmt.Errorf("encryption password is empty")
	}
	return nil
}

// deriveKey derives an AES-256 key from the password using Argon2id.
func (c *EncryptionConfig) deriveKey(salt []byte) []byte {
	t := c.Argon2Time
	if t == 0 {
		t = defaultArgon2Time
	}
	m := c.Argon2Memory
	if m == 0 {
		m = defaultArgon2Memory
	}
	p := c.Argon2Threads
	if p == 0 {
		p = defaultArgon2Threads
	}
	return argon2.IDKey([]byte(c.Password), salt, t, m, p, argon2KeyLen)
}

// EncryptFile encrypts src into dst using AES-256-GCM with an Argon2id
// derived key. The output layout is magic || salt || nonce || ciphertext.
func EncryptFile(src, dst string, config *EncryptionConfig) error {
	if err := config.validate(); err != nil {
		return err
	}

	plaintext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read plaintext: %w", err)
	}

	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(config.deriveKey(salt))
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(encryptionMagic)+len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, encryptionMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, nil)

	if err := os.WriteFile(dst, out, 0o600); err != nil {
		return fmt.Errorf("write encrypted file: %w", err)
	}
	return nil
}

// DecryptFile decrypts a file produced by EncryptFile.
func DecryptFile(src, dst string, config *EncryptionConfig) error {
	if err := config.validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read encrypted file: %w", err)
	}

	if len(data) < len(encryptionMagic)+saltLength {
		return fmt.Errorf("encrypted file too short")
	}
	if string(data[:len(encryptionMagic)]) != encryptionMagic {
		return fmt.Errorf("not an encrypted backup file")
	}
	data = data[len(encryptionMagic):]

	salt := data[:saltLength]
	data = data[saltLength:]

	gcm, err := newGCM(config.deriveKey(salt))
	if err != nil {
		return err
	}
	if len(data) < gcm.NonceSize() {
		return fmt.Errorf("encrypted file truncated")
	}

	nonce := data[:gcm.NonceSize()]
	ciphertext := data[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("decrypt: wrong password or corrupted file")
	}

	if err := os.WriteFile(dst, plaintext, 0o600); err != nil {
		return fmt.Errorf("write decrypted file: %w", err)
	}
	return nil
}

// IsEncrypted reports whether a file carries the encrypted backup header.
func IsEncrypted(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, len(encryptionMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return false, nil
	}
	return string(header) == encryptionMagic, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
