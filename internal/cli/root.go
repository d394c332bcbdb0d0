package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/habitlit/internal/achievements"
	"github.com/julianstephens/habitlit/internal/backup"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/keyring"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
	"github.com/julianstephens/habitlit/internal/storage/sqlite"
	"github.com/julianstephens/habitlit/internal/tracker"
)

type Context struct {
	Store   storage.Provider
	Tracker *tracker.Tracker
	// Target is the resolved storage location: a file path or a connection string.
	Target string
	Source Source
	// In is read for y/N confirmations; nil means os.Stdin.
	In io.Reader
}

// Source records where the storage target came from.
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
	SourceDefault Source = "default"
)

var (
	getenv        = os.Getenv
	keyringLookup = keyring.GetConnectionString
	userHomeDir   = os.UserHomeDir
)

// ResolveTarget picks the storage location. An explicit --config (or
// HABITLIT_CONFIG) wins, then HABITLIT_DB_CONNECTION, then a connection
// string stored in the OS keyring, then the default SQLite path.
func ResolveTarget(config string) (string, Source) {
	if config = strings.TrimSpace(config); config != "" {
		return config, SourceFlag
	}
	if conn := strings.TrimSpace(getenv(constants.EnvDBConnection)); conn != "" {
		return conn, SourceEnv
	}
	if conn, err := keyringLookup(); err == nil && strings.TrimSpace(conn) != "" {
		return strings.TrimSpace(conn), SourceKeyring
	} else if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		logger.Debug("Keyring lookup failed", "error", err)
	}
	return constants.DefaultConfigPath, SourceDefault
}

// OpenStore returns the provider for target without loading it. PostgreSQL
// connection strings given on the command line must not embed a password;
// ones from the environment or the keyring may.
func OpenStore(target string, source Source) (storage.Provider, error) {
	if postgres.IsConnString(target) {
		if source == SourceFlag {
			if _, err := postgres.ValidateConnString(target); err != nil {
				return nil, err
			}
		}
		return postgres.New(target), nil
	}

	path, err := ExpandPath(target)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return storage.NewJSONStore(path), nil
	}
	return sqlite.NewStore(path), nil
}

// ExpandPath expands a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ConfigDir is the directory holding the local database, logs and backups.
// Remote stores keep their backups next to the default local database.
func (c *Context) ConfigDir() string {
	path := c.Store.GetConfigPath()
	if _, ok := c.Store.(*postgres.Store); ok {
		path = constants.DefaultConfigPath
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return filepath.Dir(path)
	}
	return filepath.Dir(expanded)
}

// Backups returns the backup manager for the current store.
func (c *Context) Backups() *backup.Manager {
	return backup.NewManager(filepath.Join(c.ConfigDir(), filepath.Base(constants.DefaultConfigPath)))
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, err := c.Tracker.Backup(c.Backups()); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Confirm asks a y/N question on the context's input.
func (c *Context) Confirm(prompt string) (bool, error) {
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	fmt.Printf("%s [y/N]: ", prompt)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// PrintUnlocked announces achievements unlocked by a mutation.
func PrintUnlocked(unlocked []achievements.Achievement) {
	for _, a := range unlocked {
		fmt.Printf("🏆 Achievement unlocked: %s %s (+%d pts)\n", a.Icon, a.Title, a.Points)
	}
}
