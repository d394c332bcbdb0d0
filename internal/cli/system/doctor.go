package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/utils"
	"github.com/julianstephens/habitlit/internal/validation"
)

// versioner is implemented by the SQL stores.
type versioner interface {
	SchemaVersion() (current, latest int, err error)
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	fail := func(name string, err error) {
		fmt.Printf("❌ %s: FAIL\n", name)
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	}

	dbReachable := false
	if err := checkDBReachable(ctx); err != nil {
		fail("Database reachable", err)
	} else {
		fmt.Printf("✓ Database reachable: OK\n")
		dbReachable = true
	}

	if !dbReachable {
		fmt.Printf("⊘ Schema version: SKIPPED (database not reachable)\n")
	} else if err := checkSchemaVersion(ctx); err != nil {
		fail("Schema version", err)
	} else {
		fmt.Printf("✓ Schema version: OK\n")
	}

	if err := checkBackupsPresent(ctx); err != nil {
		fmt.Printf("⚠ Backups present: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Backups present: OK\n")
	}

	if dbReachable {
		if err := checkSettings(ctx); err != nil {
			fail("Settings", err)
		} else {
			fmt.Printf("✓ Settings: OK\n")
		}
		if err := checkValidation(ctx); err != nil {
			fail("Data validation", err)
		} else {
			fmt.Printf("✓ Data validation: OK\n")
		}
	} else {
		fmt.Printf("⊘ Settings: SKIPPED (database not reachable)\n")
		fmt.Printf("⊘ Data validation: SKIPPED (database not reachable)\n")
	}

	if err := checkClockTimezone(); err != nil {
		fail("Clock/timezone", err)
	} else {
		fmt.Printf("✓ Clock/timezone: OK\n")
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := ctx.Store.LoadHabits(); err != nil {
		return fmt.Errorf("failed to read habits: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	v, ok := ctx.Store.(versioner)
	if !ok {
		// The JSON store has no schema
		return nil
	}

	current, latest, err := v.SchemaVersion()
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run '%s migrate')", current, latest, constants.AppName)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	backups, err := ctx.Backups().ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := validation.New().ValidateSettings(settings); err != nil {
		return err
	}
	if _, err := utils.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	result, err := ctx.Tracker.Validate()
	if err != nil {
		return err
	}
	if !result.HasConflicts() {
		return nil
	}
	hint := "resolve them manually"
	if result.Fixable() {
		hint = fmt.Sprintf("run '%s validate --fix'", constants.AppName)
	}
	return fmt.Errorf("%d conflict(s) found, %s", len(result.Conflicts), hint)
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	_, offset := now.Zone()
	if offset == 0 && now.Location() == time.UTC {
		// This might be intentional, so just note it
		fmt.Printf("   Note: timezone is UTC\n")
	}
	return nil
}
