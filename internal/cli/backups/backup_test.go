package backups

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/storage"
	"github.com/julianstephens/habitlit/internal/tracker"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func setupTestContext(t *testing.T) (*cli.Context, string) {
	t.Helper()
	dir := t.TempDir()
	store := storage.NewJSONStore(filepath.Join(dir, "habitlit.json"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	if err := store.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}
	return &cli.Context{
		Store:   store,
		Tracker: tracker.New(store, tracker.WithClock(func() time.Time { return testNow })),
	}, dir
}

func addHabit(t *testing.T, ctx *cli.Context, name string) {
	t.Helper()
	if _, _, err := ctx.Tracker.AddHabit(tracker.NewHabit{Name: name, Category: "productivity"}); err != nil {
		t.Fatal(err)
	}
}

func habitCount(t *testing.T, ctx *cli.Context) int {
	t.Helper()
	habits, err := ctx.Tracker.Habits()
	if err != nil {
		t.Fatal(err)
	}
	return len(habits)
}

func TestBackupCreateListRestore(t *testing.T) {
	ctx, dir := setupTestContext(t)
	addHabit(t, ctx, "Read")

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list with no backups failed: %v", err)
	}
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	backups, err := ctx.Backups().ListBackups()
	if err != nil || len(backups) != 1 {
		t.Fatalf("ListBackups() = %v, %v", backups, err)
	}
	if filepath.Dir(backups[0].Path) != filepath.Join(dir, "backups") {
		t.Errorf("backup written to %s", backups[0].Path)
	}
	name := filepath.Base(backups[0].Path)

	addHabit(t, ctx, "Write")

	ctx.In = strings.NewReader("n\n")
	if err := (&BackupRestoreCmd{BackupFile: name}).Run(ctx); err != nil {
		t.Fatalf("cancelled restore failed: %v", err)
	}
	if got := habitCount(t, ctx); got != 2 {
		t.Fatalf("cancelled restore changed habits: %d", got)
	}

	ctx.In = strings.NewReader("y\n")
	if err := (&BackupRestoreCmd{BackupFile: name}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if got := habitCount(t, ctx); got != 1 {
		t.Errorf("habits after restore = %d, want 1", got)
	}

	// The pre-restore snapshot sits alongside the restored one.
	if backups, _ := ctx.Backups().ListBackups(); len(backups) != 2 {
		t.Errorf("backups after restore = %d, want 2", len(backups))
	}
}

func TestBackupRestoreErrors(t *testing.T) {
	ctx, dir := setupTestContext(t)

	if err := (&BackupRestoreCmd{BackupFile: "missing.json", Yes: true}).Run(ctx); err == nil {
		t.Error("restoring a missing backup should fail")
	}

	bogus := filepath.Join(dir, "bogus.json")
	if err := os.WriteFile(bogus, []byte(`[{"name":"legacy"}]`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := (&BackupRestoreCmd{BackupFile: bogus, Yes: true}).Run(ctx); err == nil {
		t.Error("restoring a file that is not a backup document should fail")
	}
}

func TestExportImport(t *testing.T) {
	ctx, dir := setupTestContext(t)
	addHabit(t, ctx, "Read")
	if _, _, err := ctx.Tracker.Toggle("Read", ""); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "export.json")
	if err := (&ExportCmd{Output: out}).Run(ctx); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	other, _ := setupTestContext(t)
	addHabit(t, other, "Stale")
	if err := (&ImportCmd{File: out}).Run(other); err != nil {
		t.Fatalf("merge import failed: %v", err)
	}
	if got := habitCount(t, other); got != 2 {
		t.Errorf("habits after merge import = %d, want 2", got)
	}

	if err := (&ImportCmd{File: out, Replace: true, Yes: true}).Run(other); err != nil {
		t.Fatalf("replace import failed: %v", err)
	}
	habits, err := other.Tracker.Habits()
	if err != nil {
		t.Fatal(err)
	}
	if len(habits) != 1 || habits[0].Name != "Read" || !habits[0].Log["2024-03-15"] {
		t.Errorf("habits after replace import = %+v", habits)
	}

	if err := (&ImportCmd{File: filepath.Join(dir, "nope.json")}).Run(other); err == nil {
		t.Error("importing a missing file should fail")
	}
}

func TestImportLegacy(t *testing.T) {
	ctx, dir := setupTestContext(t)
	legacy := filepath.Join(dir, "legacy.json")
	data := `[{"id":"a","name":"Walk","category":"physical-activity","frequency":"daily","logs":{"2024-03-14":true,"2024-03-15":true,"bad":true}}]`
	if err := os.WriteFile(legacy, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	if err := (&ImportCmd{File: legacy}).Run(ctx); err != nil {
		t.Fatalf("legacy import failed: %v", err)
	}
	h, err := ctx.Tracker.Habit("walk")
	if err != nil {
		t.Fatal(err)
	}
	if h.CurrentStreak != 2 || len(h.Entries) != 2 {
		t.Errorf("legacy habit = %+v", h)
	}
}
