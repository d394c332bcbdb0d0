package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/cli/backups"
	"github.com/julianstephens/habitlit/internal/cli/habits"
	"github.com/julianstephens/habitlit/internal/cli/insights"
	"github.com/julianstephens/habitlit/internal/cli/settings"
	"github.com/julianstephens/habitlit/internal/cli/system"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/notifier"
	"github.com/julianstephens/habitlit/internal/tracker"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Database path (.db for SQLite, .json for a JSON file) or PostgreSQL connection string. Connection strings given here must NOT embed a password; use HABITLIT_DB_CONNECTION, .pgpass, or 'habitlit keyring set' instead." env:"HABITLIT_CONFIG"`
	Debug   bool   `help:"Enable debug logging to stderr and the log file."`

	Init     system.InitCmd     `cmd:"" help:"Initialize habitlit storage."`
	Migrate  system.MigrateCmd  `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Validate system.ValidateCmd `cmd:"" help:"Check stored habits for inconsistencies."`
	Tui      system.TuiCmd      `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Serve    system.ServeCmd    `cmd:"" help:"Serve the HTTP API."`
	Keyring  system.KeyringCmd  `cmd:"" help:"Manage the connection string stored in the OS keyring."`

	Habit        habits.HabitCmd          `cmd:"" help:"Manage habits and habit tracking."`
	Stats        insights.StatsCmd        `cmd:"" help:"Show overall statistics."`
	Achievements insights.AchievementsCmd `cmd:"" help:"Show achievements."`
	Analyze      insights.AnalyzeCmd      `cmd:"" help:"Analyze completion patterns and schedule reminders."`
	Categories   insights.CategoriesCmd   `cmd:"" help:"List habit categories."`

	Backup   backups.BackupCmd    `cmd:"" help:"Manage database backups."`
	Export   backups.ExportCmd    `cmd:"" help:"Export habits and achievements to JSON."`
	Import   backups.ImportCmd    `cmd:"" help:"Import habits from a JSON export."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
}

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with streaks, achievements and pattern analysis"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":      constants.Version,
			"default_addr": constants.DefaultServerAddr,
			"export_file":  constants.ExportFileName,
		},
	)

	target, source := cli.ResolveTarget(CLI.Config)
	store, err := cli.OpenStore(target, source)
	if err != nil {
		errors.Fatal(err)
	}

	appCtx := &cli.Context{
		Store:  store,
		Target: target,
		Source: source,
	}

	command := ctx.Command()
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: appCtx.ConfigDir(),
		Quiet:     command == "tui",
	}); err != nil {
		// The helpers are no-ops until a logger exists, so carry on without one.
		fmt.Fprintf(os.Stderr, "⚠ Logging disabled: %v\n", err)
	}
	logger.Debug("Resolved storage", "source", source, "command", command)

	// Init loads the store itself; the keyring commands never touch it.
	needsStore := command != "init" && !strings.HasPrefix(command, "keyring")
	if needsStore && !CLI.Init.Force {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	appCtx.Tracker = tracker.New(store, tracker.WithNotifier(notifier.NewTray()))

	errors.Fatal(ctx.Run(appCtx))
}
