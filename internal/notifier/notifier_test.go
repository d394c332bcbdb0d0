package notifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/models"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = old })
	userConfigDirFunc = func() (string, error) { return dir, nil }
	return dir
}

func withProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func TestGetTrayAppConfigDir(t *testing.T) {
	tempDir := withConfigDir(t)

	expectedDefault := filepath.Join(tempDir, constants.TrayAppIdentifier)
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if dir != expectedDefault {
		t.Errorf("expected %s, got %s", expectedDefault, dir)
	}

	if err := os.MkdirAll(expectedDefault, 0755); err != nil {
		t.Fatal(err)
	}
	customDir := "/custom/habitlit/dir"
	settingsJSON := fmt.Sprintf(`{"settings": {"lockfile_dir": "%s"}}`, customDir)
	if err := os.WriteFile(filepath.Join(expectedDefault, "settings.json"), []byte(settingsJSON), 0644); err != nil {
		t.Fatal(err)
	}

	dir, err = GetTrayAppConfigDir()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if dir != customDir {
		t.Errorf("expected %s, got %s", customDir, dir)
	}
}

func TestFindAndValidateTrayProcess(t *testing.T) {
	lockfilePath := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	if _, _, err := findAndValidateTrayProcess(lockfilePath); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("missing lockfile: got %v, want ErrTrayNotRunning", err)
	}

	tests := []struct {
		name       string
		content    string
		executable string
		wantErr    string
	}{
		{name: "two parts", content: "8080|12345", executable: "habitlit-tray", wantErr: "malformed"},
		{name: "garbage", content: "invalid", executable: "habitlit-tray", wantErr: "malformed"},
		{name: "empty secret", content: "8080|12345|", executable: "habitlit-tray", wantErr: "secret"},
		{name: "empty port", content: "|12345|s3cret", executable: "habitlit-tray", wantErr: "port"},
		{name: "port out of range", content: "99999|12345|s3cret", executable: "habitlit-tray", wantErr: "range"},
		{name: "bad pid", content: "8080|abc|s3cret", executable: "habitlit-tray", wantErr: "process ID"},
		{name: "process gone", content: "8080|12345|s3cret", executable: "", wantErr: "not running"},
		{name: "wrong executable", content: "8080|12345|s3cret", executable: "other-app", wantErr: "is not"},
		{name: "ok", content: "8080|12345|s3cret\n", executable: "habitlit-tray"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withProcess(t, tt.executable)
			if err := os.WriteFile(lockfilePath, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			port, secret, err := findAndValidateTrayProcess(lockfilePath)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if port != "8080" || secret != "s3cret" {
				t.Errorf("got port %s secret %s", port, secret)
			}
		})
	}
}

func newTrayServer(t *testing.T, received chan<- WebhookPayload) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("X-Habitlit-Secret") != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}
		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload.Text == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if received != nil {
			received <- payload
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	parts := strings.Split(server.URL, ":")
	return parts[len(parts)-1]
}

func TestSend(t *testing.T) {
	port := newTrayServer(t, nil)
	tray := NewTray()

	if err := tray.send(port, "test-secret", WebhookPayload{Text: "hello"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := tray.send(port, "", WebhookPayload{Text: "hello"}); err == nil {
		t.Error("expected error for missing secret")
	}
	if err := tray.send(port, "wrong-secret", WebhookPayload{Text: "hello"}); err == nil {
		t.Error("expected error for wrong secret")
	}
	if err := tray.send(port, "test-secret", WebhookPayload{Text: "fail"}); err == nil {
		t.Error("expected error for server failure")
	}
}

func TestTrayDelivery(t *testing.T) {
	received := make(chan WebhookPayload, 2)
	port := newTrayServer(t, received)

	configDir := withConfigDir(t)
	withProcess(t, "habitlit-tray")
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	lock := fmt.Sprintf("%s|4242|test-secret", port)
	if err := os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(lock), 0600); err != nil {
		t.Fatal(err)
	}

	tray := NewTray()
	if err := tray.Notify("Achievement Unlocked!"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	at := time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC)
	if err := tray.ScheduleReminder(models.Habit{ID: "h1", Name: "Read"}, at); err != nil {
		t.Fatalf("ScheduleReminder() error = %v", err)
	}

	first := <-received
	if first.Text != "Achievement Unlocked!" || first.At != nil {
		t.Errorf("notify payload = %+v", first)
	}
	second := <-received
	if second.Text != "Time to work on your habit: Read" || second.HabitID != "h1" {
		t.Errorf("reminder payload = %+v", second)
	}
	if second.At == nil || !second.At.Equal(at) {
		t.Errorf("reminder at = %v, want %v", second.At, at)
	}
}

func TestTrayNotRunning(t *testing.T) {
	withConfigDir(t)
	if err := NewTray().Notify("hello"); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("Notify() error = %v, want ErrTrayNotRunning", err)
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	if err := r.Notify("hi"); err != nil {
		t.Fatal(err)
	}
	if err := r.ScheduleReminder(models.Habit{ID: "h1"}, time.Unix(0, 0)); err != nil {
		t.Fatal(err)
	}
	if len(r.Messages) != 1 || len(r.Reminders) != 1 {
		t.Errorf("recorded %d messages and %d reminders", len(r.Messages), len(r.Reminders))
	}

	r.Err = errors.New("unavailable")
	if err := r.Notify("again"); err == nil {
		t.Error("expected configured error")
	}
	if len(r.Messages) != 1 {
		t.Error("failed notifications must not be recorded")
	}
}
