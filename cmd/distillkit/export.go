package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/distillkit/distillkit/internal/export"
)

var exportFlags struct {
	out string
}

var exportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Export a project's datasets as JSONL",
	Long: `Export a project's datasets as JSONL files: alpaca format for single-turn
answers and sharegpt format for multi-turn conversations. Both files are
written in parallel.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFlags.out, "out", "o", "", "output directory (default <data-dir>/exports/<project-id>)")
}

func runExport(cmd *cobra.Command, args []string) error {
	projectID := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	dir := exportFlags.out
	if dir == "" {
		dir = filepath.Join(cfg.ResolveDataDir(), "exports", projectID)
	}

	res, err := export.New(st, newLogger("export")).ExportProject(cmd.Context(), projectID, dir)
	if err != nil {
		return err
	}

	if res.SingleTurnCount > 0 {
		fmt.Printf("Wrote %d single-turn record(s) to %s\n", res.SingleTurnCount, res.SingleTurnPath)
	}
	if res.MultiTurnCount > 0 {
		fmt.Printf("Wrote %d conversation(s) to %s\n", res.MultiTurnCount, res.MultiTurnPath)
	}
	if res.SingleTurnCount == 0 && res.MultiTurnCount == 0 {
		fmt.Println("Nothing to export: the project has no generated datasets yet.")
	}
	return nil
}
