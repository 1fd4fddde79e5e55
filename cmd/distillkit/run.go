package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/distillkit/distillkit/internal/distill"
	"github.com/distillkit/distillkit/internal/generate"
	"github.com/distillkit/distillkit/internal/observability"
)

// runFlags holds CLI flag values that override the configured run defaults.
// Only flags explicitly changed by the user are applied.
var runFlags struct {
	topic                string
	levels               int
	tagsPerLevel         int
	questionsPerTag      int
	datasetType          string
	model                string
	language             string
	concurrency          int
	multiTurnConcurrency int
	quiet                bool
}

var runCmd = &cobra.Command{
	Use:   "run <project-id>",
	Short: "Run the distillation pipeline for a project",
	Long: `Run the distillation pipeline: build the tag tree, generate questions for
the leaf tags, then produce the selected dataset types. Interrupting with
Ctrl-C stops the run at the next batch boundary; work already persisted is
kept and a later run resumes from it.`,
	Args: cobra.ExactArgs(1),
	RunE: runDistill,
}

func init() {
	runCmd.Flags().StringVar(&runFlags.topic, "topic", "", "root topic of the tag tree (defaults to the project topic)")
	runCmd.Flags().IntVar(&runFlags.levels, "levels", 0, "tag tree depth")
	runCmd.Flags().IntVar(&runFlags.tagsPerLevel, "tags-per-level", 0, "sub-tags per tag tree node")
	runCmd.Flags().IntVar(&runFlags.questionsPerTag, "questions-per-tag", 0, "questions per leaf tag")
	runCmd.Flags().StringVar(&runFlags.datasetType, "dataset-type", "", "single-turn, multi-turn, or both (default single-turn)")
	runCmd.Flags().StringVar(&runFlags.model, "model", "", "model to generate with")
	runCmd.Flags().StringVar(&runFlags.language, "language", "", "output language")
	runCmd.Flags().IntVar(&runFlags.concurrency, "concurrency", 0, "generation concurrency ceiling")
	runCmd.Flags().IntVar(&runFlags.multiTurnConcurrency, "multi-turn-concurrency", 0, "conversation generation concurrency ceiling")
	runCmd.Flags().BoolVarP(&runFlags.quiet, "quiet", "q", false, "suppress progress output")
}

func runDistill(cmd *cobra.Command, args []string) error {
	projectID := args[0]

	// Step 1: Load configuration and open the catalog.
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// Step 2: Resolve the topic — flag first, project record second.
	topic := runFlags.topic
	project, err := st.GetProject(cmd.Context(), projectID)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return fmt.Errorf("project %q not found (create it with: distillkit project create)", projectID)
	}
	if topic == "" {
		topic = project.Topic
	}
	if topic == "" {
		return fmt.Errorf("project %q has no topic; pass --topic", projectID)
	}

	// Step 3: Build the provider and the generation service.
	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	logger := newLogger("run")
	metrics := observability.NewMetricsCollector(0)
	svc := generate.NewService(st, provider, logger, metrics)

	// Step 4: Assemble the pipeline config from defaults plus flag overrides.
	pipeCfg := distill.Config{
		ProjectID:            projectID,
		Topic:                topic,
		Levels:               cfg.Run.Levels,
		TagsPerLevel:         cfg.Run.TagsPerLevel,
		QuestionsPerTag:      cfg.Run.QuestionsPerTag,
		Model:                cfg.Provider.Model,
		Language:             cfg.Run.Language,
		DatasetType:          runFlags.datasetType,
		Concurrency:          cfg.Run.Concurrency,
		MultiTurnConcurrency: cfg.Run.MultiTurnConcurrency,
	}
	if cmd.Flags().Changed("levels") {
		pipeCfg.Levels = runFlags.levels
	}
	if cmd.Flags().Changed("tags-per-level") {
		pipeCfg.TagsPerLevel = runFlags.tagsPerLevel
	}
	if cmd.Flags().Changed("questions-per-tag") {
		pipeCfg.QuestionsPerTag = runFlags.questionsPerTag
	}
	if cmd.Flags().Changed("model") {
		pipeCfg.Model = runFlags.model
	}
	if cmd.Flags().Changed("language") {
		pipeCfg.Language = runFlags.language
	}
	if cmd.Flags().Changed("concurrency") {
		pipeCfg.Concurrency = runFlags.concurrency
	}
	if cmd.Flags().Changed("multi-turn-concurrency") {
		pipeCfg.MultiTurnConcurrency = runFlags.multiTurnConcurrency
	}
	if !runFlags.quiet {
		pipeCfg.OnLog = func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		}
	}

	p, err := distill.New(pipeCfg, generate.NewCatalog(st), svc, logger)
	if err != nil {
		return err
	}

	// Step 5: Run with signal-triggered cancellation.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, runErr := p.Run(ctx)

	// Step 6: Report the outcome; partial progress is already persisted.
	fmt.Printf("\nStatus: %s\n", result.Status)
	printSnapshot(result.Progress)
	printCost(metrics)
	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}
	return nil
}

func printSnapshot(s distill.Snapshot) {
	fmt.Printf("  tags       %d/%d\n", s.TagsBuilt, s.TagsTotal)
	fmt.Printf("  questions  %d/%d\n", s.QuestionsBuilt, s.QuestionsTotal)
	fmt.Printf("  datasets   %d/%d\n", s.DatasetsBuilt, s.DatasetsTotal)
	if s.MultiTurnTotal > 0 {
		fmt.Printf("  multi-turn %d/%d\n", s.MultiTurnBuilt, s.MultiTurnTotal)
	}
}

func printCost(metrics *observability.MetricsCollector) {
	cost := metrics.Summarize(observability.MetricCost, time.Time{})
	if cost.Count > 0 {
		fmt.Printf("  llm calls  %d ($%.4f)\n", cost.Count, cost.Sum)
	}
}
