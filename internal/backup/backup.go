// Package backup keeps rotated JSON snapshots of the habit collection next
// to the store, independent of which storage backend is in use.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/exporter"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
)

const (
	minuteLayout = "20060102-1504"
	secondLayout = "20060102-150405"
)

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager handles backup operations
type Manager struct {
	backupDir string
	now       func() time.Time
}

// NewManager creates a backup manager that keeps snapshots in a backups
// directory beside configPath.
func NewManager(configPath string) *Manager {
	return &Manager{
		backupDir: filepath.Join(filepath.Dir(configPath), constants.BackupDirName),
		now:       time.Now,
	}
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// CreateBackup writes doc as a new snapshot and prunes old ones.
func (m *Manager) CreateBackup(doc exporter.Document) (string, error) {
	return m.createBackup(doc, false)
}

// skipRotation keeps a restore from pruning the snapshot it is restoring.
func (m *Manager) createBackup(doc exporter.Document, skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath, err := m.nextPath()
	if err != nil {
		return "", err
	}

	if err := exporter.WriteFile(backupPath, doc); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	logger.Debug("Created backup", "path", backupPath, "habits", len(doc.Habits))

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}

	return backupPath, nil
}

// nextPath picks an unused file name: minute precision first, then seconds,
// then a numeric counter.
func (m *Manager) nextPath() (string, error) {
	now := m.now()
	name := func(stamp string) string {
		return filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+constants.BackupFileSuffix)
	}

	path := name(now.Format(minuteLayout))
	if !exists(path) {
		return path, nil
	}

	stamp := now.Format(secondLayout)
	path = name(stamp)
	for counter := 1; exists(path); counter++ {
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = name(fmt.Sprintf("%s-%d", stamp, counter))
	}
	return path, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListBackups returns all snapshots, newest first.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		timestamp, ok := parseBackupName(name)
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, name),
			Timestamp: timestamp,
			Size:      info.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// parseBackupName extracts the timestamp from habitlit-<stamp>[-N].json.
// Stamps are read in local time, the zone they were written in.
func parseBackupName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)

	// Drop a collision counter (YYYYMMDD-HHMMSS-N).
	if parts := strings.Split(stamp, "-"); len(parts) == 3 && isDigits(parts[2]) {
		stamp = parts[0] + "-" + parts[1]
	}

	for _, layout := range []string{minuteLayout, secondLayout} {
		if t, err := time.ParseInLocation(layout, stamp, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}

	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// VerifyBackup checks that path holds a readable export document.
func (m *Manager) VerifyBackup(path string) error {
	_, report, err := exporter.ReadFile(path, time.Local, m.now())
	if err != nil {
		return err
	}
	if report.Format != exporter.FormatDocument {
		return fmt.Errorf("%s is not a %s snapshot", filepath.Base(path), constants.AppName)
	}
	return nil
}

// RestoreBackup reads the snapshot at backupPath after saving current as a
// pre-restore snapshot. The caller replaces its collection with the
// returned habits.
func (m *Manager) RestoreBackup(backupPath string, current exporter.Document, loc *time.Location) ([]models.Habit, exporter.ImportReport, error) {
	if !exists(backupPath) {
		return nil, exporter.ImportReport{}, fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err := m.VerifyBackup(backupPath); err != nil {
		return nil, exporter.ImportReport{}, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	habits, report, err := exporter.ReadFile(backupPath, loc, m.now())
	if err != nil {
		return nil, report, err
	}

	preRestore, err := m.createBackup(current, true)
	if err != nil {
		return nil, report, fmt.Errorf("failed to back up current habits before restore: %w", err)
	}
	logger.Info("Created pre-restore backup", "path", preRestore)

	return habits, report, nil
}
