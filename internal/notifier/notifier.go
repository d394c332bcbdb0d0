// Package notifier delivers reminders and achievement messages to the
// habitlit tray app over its local webhook.
package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

// Notifier is the notification collaborator used by the tracker.
type Notifier interface {
	Notify(text string) error
	ScheduleReminder(habit models.Habit, at time.Time) error
}

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess

	// ErrTrayNotRunning is returned when no tray app is listening.
	ErrTrayNotRunning = errors.New(constants.TrayExecutablePrefix + " is not running")
)

// Tray sends notifications to a running tray app. The lockfile is looked up
// on every call, so the tray may start or stop at any time.
type Tray struct {
	client *http.Client
}

type WebhookPayload struct {
	Text       string     `json:"text"`
	DurationMs uint32     `json:"duration_ms"`
	HabitID    string     `json:"habit_id,omitempty"`
	At         *time.Time `json:"at,omitempty"`
}

var _ Notifier = (*Tray)(nil)

func NewTray() *Tray {
	return &Tray{client: &http.Client{Timeout: 5 * time.Second}}
}

// Notify shows text immediately.
func (n *Tray) Notify(text string) error {
	return n.deliver(WebhookPayload{
		Text:       text,
		DurationMs: constants.NotificationDurationMs,
	})
}

// ScheduleReminder asks the tray to remind about habit at the given time.
func (n *Tray) ScheduleReminder(habit models.Habit, at time.Time) error {
	when := at.UTC()
	return n.deliver(WebhookPayload{
		Text:       fmt.Sprintf(constants.ReminderMessageFormat, habit.Name),
		DurationMs: constants.NotificationDurationMs,
		HabitID:    habit.ID,
		At:         &when,
	})
}

func (n *Tray) deliver(payload WebhookPayload) error {
	trayAppConfigPath, err := GetTrayAppConfigDir()
	if err != nil {
		return err
	}

	port, secret, err := findAndValidateTrayProcess(filepath.Join(trayAppConfigPath, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < constants.NotifyMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(constants.NotifyRetryDelay)
		}
		if lastErr = n.send(port, secret, payload); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// GetTrayAppConfigDir returns the configuration directory used by the tray application.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	// The tray may move its lockfile via settings.json.
	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err == nil {
		var store struct {
			Settings struct {
				LockfileDir *string `json:"lockfile_dir"`
			} `json:"settings"`
		}
		if err := json.Unmarshal(data, &store); err == nil {
			if dir := store.Settings.LockfileDir; dir != nil && *dir != "" {
				return *dir, nil
			}
		}
	}

	return trayConfigDir, nil
}

// findAndValidateTrayProcess reads a port|pid|secret lockfile and checks
// that pid is a live tray process.
func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	if port == "" {
		return "", "", errors.New("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := parts[2]
	if strings.TrimSpace(secret) == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayExecutablePrefix) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.TrayExecutablePrefix, process.Executable())
	}

	return port, secret, nil
}

func (n *Tray) send(port string, secret string, payload WebhookPayload) error {
	url := fmt.Sprintf("http://127.0.0.1:%s", port)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Habitlit-Secret", secret)

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}
