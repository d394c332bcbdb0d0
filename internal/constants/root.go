package constants

import "time"

const (
	AppName            = "habitlit"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitlit/habitlit.db"
	Version            = "v0.1.0"

	// Environment overrides
	EnvConfigPath   = "HABITLIT_CONFIG"
	EnvDBConnection = "HABITLIT_DB_CONNECTION"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitlit-"
	BackupFileSuffix = ".json"

	// Export constants
	ExportVersion  = 1
	ExportFileName = "habits.json"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "habitlit-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habitlit"
	TrayExecutablePrefix   = "habitlit-tray"

	// Server constants
	DefaultServerAddr = ":8080"
)
