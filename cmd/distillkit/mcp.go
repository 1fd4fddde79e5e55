package main

import (
	"github.com/spf13/cobra"

	"github.com/distillkit/distillkit/internal/export"
	"github.com/distillkit/distillkit/internal/generate"
	"github.com/distillkit/distillkit/internal/mcpserver"
	"github.com/distillkit/distillkit/internal/observability"
	"github.com/distillkit/distillkit/internal/task"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the distillation tools over MCP on stdio",
	Long: `Serve the Model Context Protocol on stdin/stdout. Exposes tools to start
and monitor distillation runs, inspect tag trees, and export datasets, for
use from MCP-capable agent frontends.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	// Logs go to stderr; stdout carries the protocol.
	logger := newLogger("mcp")
	metrics := observability.NewMetricsCollector(0)

	svc := generate.NewService(st, provider, logger, metrics)
	runner := task.NewRunner(generate.NewCatalog(st), svc, logger, metrics)
	exporter := export.New(st, logger)

	srv := mcpserver.New(st, runner, exporter, version, cfg.Provider.Model, cfg.Run.Language, logger)
	return srv.ServeStdio()
}
