package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BackupManager handles database backup and restore operations.
type BackupManager struct {
	dbPath string
}

// NewBackupManager creates a backup manager for the given database path.
func NewBackupManager(dbPath string) *BackupManager {
	return &BackupManager{dbPath: dbPath}
}

// BackupConfig holds configuration for backup operations.
type BackupConfig struct {
	// BackupDir is where backups are stored. Empty means a "backups"
	// subdirectory next to the database.
	BackupDir string

	// BackupName is the backup file name without extension. Empty means a
	// timestamp-based name.
	BackupName string

	// VerifyBackup re-opens the backup after creation to check integrity.
	VerifyBackup bool

	// Encryption, when non-nil, encrypts the backup file in place after
	// creation.
	Encryption *EncryptionConfig
}

// DefaultBackupConfig returns a BackupConfig with sensible defaults.
func DefaultBackupConfig() *BackupConfig {
	return &BackupConfig{VerifyBackup: true}
}

// Backup creates a backup of the database using VACUUM INTO, which is
// atomic and does not require exclusive locks. Returns the backup path.
func (bm *BackupManager) Backup(config *BackupConfig) (string, error) {
	if config == nil {
		config = DefaultBackupConfig()
	}

	backupDir := config.BackupDir
	if backupDir == "" {
		backupDir = filepath.Join(filepath.Dir(bm.dbPath), "backups")
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	backupName := config.BackupName
	if backupName == "" {
		backupName = "backup_" + time.Now().Format("20060102_150405")
	}
	backupPath := filepath.Join(backupDir, backupName+".db")

	sourceDB, err := sql.Open("sqlite", bm.dbPath)
	if err != nil {
		return "", fmt.Errorf("open source database: %w", err)
	}
	defer func() { _ = sourceDB.Close() }()

	if _, err := sourceDB.Exec(fmt.Sprintf("VACUUM INTO %q", backupPath)); err != nil {
		return "", fmt.Errorf("vacuum into backup: %w", err)
	}

	if config.VerifyBackup {
		if err := bm.VerifyBackup(backupPath); err != nil {
			_ = os.Remove(backupPath)
			return "", fmt.Errorf("backup verification failed: %w", err)
		}
	}

	if config.Encryption != nil {
		encPath := backupPath + ".enc"
		if err := EncryptFile(backupPath, encPath, config.Encryption); err != nil {
			_ = os.Remove(backupPath)
			return "", fmt.Errorf("encrypt backup: %w", err)
		}
		if err := os.Remove(backupPath); err != nil {
			return "", fmt.Errorf("remove plaintext backup: %w", err)
		}
		backupPath = encPath
	}

	return backupPath, nil
}

// Restore replaces the current database with a backup. The caller must
// close any open connections first. The previous database file is kept
// next to the new one with an ".old" timestamp suffix.
func (bm *BackupManager) Restore(backupPath string, encryption *EncryptionConfig) error {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}

	tempPath := bm.dbPath + ".restore.tmp"
	if encryption != nil {
		if err := DecryptFile(backupPath, tempPath, encryption); err != nil {
			return fmt.Errorf("decrypt backup: %w", err)
		}
	} else {
		if err := copyFile(backupPath, tempPath); err != nil {
			return fmt.Errorf("copy backup: %w", err)
		}
	}

	if err := bm.VerifyBackup(tempPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("restored database verification failed: %w", err)
	}

	if _, err := os.Stat(bm.dbPath); err == nil {
		oldPath := bm.dbPath + ".old." + time.Now().Format("20060102_150405")
		if err := os.Rename(bm.dbPath, oldPath); err != nil {
			_ = os.Remove(tempPath)
			return fmt.Errorf("set aside current database: %w", err)
		}
	}

	if err := os.Rename(tempPath, bm.dbPath); err != nil {
		return fmt.Errorf("replace database with backup: %w", err)
	}
	return nil
}

// VerifyBackup checks that a backup file is a readable SQLite database
// containing the draws table.
func (bm *BackupManager) VerifyBackup(backupPath string) error {
	db, err := sql.Open("sqlite", backupPath)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check reported %q", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='draws'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("inspect backup schema: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("backup is missing the draws table")
	}
	return nil
}

// Checksum returns the hex-encoded SHA-256 of a backup file.
func (bm *BackupManager) Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
