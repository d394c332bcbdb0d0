package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/storage/postgres"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source database path or connection string to migrate data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized %s storage at: %s\n", constants.AppName, describeTarget(ctx.Store.GetConfigPath()))

	if c.Source != "" {
		fmt.Printf("Migrating data from: %s\n", describeTarget(c.Source))
		if err := migrateData(ctx.Store, c.Source); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("Migration completed successfully!")
	}

	return nil
}

// reset deletes a file-backed database. Remote databases are never dropped.
func (c *InitCmd) reset(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*postgres.Store); ok {
		return fmt.Errorf("--force is only supported for file storage")
	}

	dbPath := ctx.Store.GetConfigPath()
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	if c.Source != "" {
		if src, err := cli.ExpandPath(c.Source); err == nil {
			if absSource, err := filepath.Abs(src); err == nil && absSource == dbPath {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		// Close first so the file isn't held open while it is removed.
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		fmt.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

// migrateData copies settings, habits and unlocked achievements from the
// store at source into dst.
func migrateData(dst storage.Provider, source string) error {
	src, err := cli.OpenStore(source, cli.SourceFlag)
	if err != nil {
		return err
	}
	if err := src.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer src.Close()

	fmt.Println("  Migrating settings...")
	settings, err := src.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err := dst.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	fmt.Println("  Migrating habits...")
	habits, err := src.LoadHabits()
	if err != nil {
		return fmt.Errorf("failed to get habits from source: %w", err)
	}
	if err := dst.SaveHabits(habits); err != nil {
		return fmt.Errorf("failed to save habits to destination: %w", err)
	}
	entries := 0
	for _, h := range habits {
		entries += len(h.Entries)
	}
	fmt.Printf("    Migrated %d habits (%d entries)\n", len(habits), entries)

	fmt.Println("  Migrating achievements...")
	unlocked, err := src.LoadAchievements()
	if err != nil {
		return fmt.Errorf("failed to get achievements from source: %w", err)
	}
	if err := dst.SaveAchievements(unlocked); err != nil {
		return fmt.Errorf("failed to save achievements to destination: %w", err)
	}
	fmt.Printf("    Migrated %d achievements\n", len(unlocked))

	return nil
}
