package backups

import (
	"fmt"
	"os"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/exporter"
)

type ExportCmd struct {
	Output string `short:"o" help:"File to write; '-' writes to stdout." default:"${export_file}"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	doc, err := ctx.Tracker.Export()
	if err != nil {
		return err
	}

	if c.Output == "-" {
		return exporter.Encode(os.Stdout, doc)
	}
	path, err := cli.ExpandPath(c.Output)
	if err != nil {
		return err
	}
	if err := exporter.WriteFile(path, doc); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Printf("✓ Exported %d habit(s) to %s\n", len(doc.Habits), path)
	return nil
}

type ImportCmd struct {
	File    string `arg:"" help:"Export document or legacy habit list to import."`
	Replace bool   `help:"Discard existing habits before importing."`
	Yes     bool   `short:"y" help:"Skip the confirmation prompt for --replace."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	path, err := cli.ExpandPath(c.File)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	if c.Replace && !c.Yes {
		fmt.Println("⚠️  WARNING: --replace discards every existing habit before importing.")
		ok, err := ctx.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Import cancelled.")
			return nil
		}
	}
	if c.Replace {
		ctx.PerformAutomaticBackup()
	}

	report, err := ctx.Tracker.Import(data, c.Replace)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("✓ Imported %d habit(s) (%s format)\n", report.Habits, report.Format)
	if report.RebuiltEntries > 0 {
		fmt.Printf("  Rebuilt %d entries from logs\n", report.RebuiltEntries)
	}
	printSkipped(report)
	return nil
}
