package system

import (
	"fmt"

	"github.com/julianstephens/habitlit/internal/cli"
)

type ValidateCmd struct {
	Fix bool `help:"Rebuild logs from entries and recompute streaks to resolve fixable conflicts."`
}

func (cmd *ValidateCmd) Run(ctx *cli.Context) error {
	fmt.Println("Validating habits...")
	result, err := ctx.Tracker.Validate()
	if err != nil {
		return fmt.Errorf("failed to validate habits: %w", err)
	}

	fmt.Println()
	fmt.Println(result.FormatReport())

	if !result.HasConflicts() || !cmd.Fix {
		return nil
	}
	if !result.Fixable() {
		return fmt.Errorf("some conflicts cannot be fixed automatically")
	}

	changed, err := ctx.Tracker.Repair()
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}
	fmt.Printf("✓ Repaired %d habit(s)\n", changed)
	return nil
}
