package distill

import (
	"context"
	"errors"
	"fmt"

	"github.com/distillkit/distillkit/internal/observability"
)

// Default concurrency ceilings. Multi-turn generation issues several LLM
// calls per item, so it runs with a lower ceiling.
const (
	DefaultConcurrency          = 5
	DefaultMultiTurnConcurrency = 2
)

// Config is the full configuration of one distillation run.
type Config struct {
	ProjectID       string
	Topic           string
	Levels          int
	TagsPerLevel    int
	QuestionsPerTag int
	Model           string
	Language        string

	// DatasetType selects which dataset stages run: DatasetSingleTurn
	// (default), DatasetMultiTurn, or DatasetBoth.
	DatasetType string

	Concurrency          int
	MultiTurnConcurrency int

	// OnProgress receives a snapshot after every progress mutation.
	OnProgress func(Snapshot)
	// OnLog receives human-readable log lines as the run proceeds.
	OnLog func(string)
}

// Run terminal statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunResult is the outcome of a pipeline run.
type RunResult struct {
	Status   string
	Progress Snapshot
}

// Pipeline orchestrates the distillation stages for one run.
type Pipeline struct {
	cfg     Config
	catalog Catalog
	gen     Generator
	logger  *observability.Logger
	tracker *Tracker

	// projectName roots every tag path; resolved once at run start.
	projectName string
}

// New validates cfg, applies defaults, and builds a Pipeline.
// logger may be nil.
func New(cfg Config, catalog Catalog, gen Generator, logger *observability.Logger) (*Pipeline, error) {
	if catalog == nil {
		return nil, errors.New("distill: catalog is required")
	}
	if gen == nil {
		return nil, errors.New("distill: generator is required")
	}
	if cfg.ProjectID == "" {
		return nil, errors.New("distill: project id is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("distill: topic is required")
	}
	if cfg.Levels < 1 {
		return nil, fmt.Errorf("distill: levels must be >= 1, got %d", cfg.Levels)
	}
	// A fan-out of 0 is a valid degenerate run: the tree stage requests no
	// tags and every later stage works whatever the catalog already holds.
	if cfg.TagsPerLevel < 0 {
		return nil, fmt.Errorf("distill: tags per level must be >= 0, got %d", cfg.TagsPerLevel)
	}
	if cfg.QuestionsPerTag < 1 {
		return nil, fmt.Errorf("distill: questions per tag must be >= 1, got %d", cfg.QuestionsPerTag)
	}
	switch cfg.DatasetType {
	case "":
		cfg.DatasetType = DatasetSingleTurn
	case DatasetSingleTurn, DatasetMultiTurn, DatasetBoth:
	default:
		return nil, fmt.Errorf("distill: unknown dataset type %q", cfg.DatasetType)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.MultiTurnConcurrency <= 0 {
		cfg.MultiTurnConcurrency = DefaultMultiTurnConcurrency
	}

	return &Pipeline{
		cfg:     cfg,
		catalog: catalog,
		gen:     gen,
		logger:  logger,
		tracker: NewTracker(cfg.OnProgress, cfg.OnLog),
	}, nil
}

// Run executes the full pipeline: tag tree, questions, then the selected
// dataset stages in order. It returns a failed result together with the
// error on fatal failures; per-item and listing failures are logged and
// absorbed per stage.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	p.setStage(StageInitializing)

	p.resolveProjectName(ctx)

	p.tracker.Logf("Starting to build tag tree for %q, levels: %d, tags per level: %d, questions per tag: %d",
		p.cfg.Topic, p.cfg.Levels, p.cfg.TagsPerLevel, p.cfg.QuestionsPerTag)

	if err := p.buildTagTree(ctx); err != nil {
		return p.fail(err)
	}
	if err := p.generateQuestions(ctx); err != nil {
		return p.fail(err)
	}

	switch p.cfg.DatasetType {
	case DatasetSingleTurn:
		if err := p.generateAnswers(ctx); err != nil {
			return p.fail(err)
		}
	case DatasetMultiTurn:
		if err := p.generateConversations(ctx); err != nil {
			return p.fail(err)
		}
	case DatasetBoth:
		if err := p.generateAnswers(ctx); err != nil {
			return p.fail(err)
		}
		if err := p.generateConversations(ctx); err != nil {
			return p.fail(err)
		}
	}

	p.setStage(StageCompleted)
	p.tracker.Logf("Auto distillation task completed")
	p.logInfo("run completed", "project_id", p.cfg.ProjectID)

	return &RunResult{Status: StatusCompleted, Progress: p.tracker.Snapshot()}, nil
}

// resolveProjectName fetches the project name for rooting tag paths, falling
// back to the topic when the project cannot be read or has no name.
func (p *Pipeline) resolveProjectName(ctx context.Context) {
	project, err := p.catalog.Project(ctx, p.cfg.ProjectID)
	if err != nil {
		p.projectName = p.cfg.Topic
		p.tracker.Logf("Failed to get project name, using topic %q instead: %v", p.cfg.Topic, err)
		return
	}
	if project == nil || project.Name == "" {
		p.projectName = p.cfg.Topic
		p.tracker.Logf("Could not find project name, using topic %q as the top-level tag", p.cfg.Topic)
		return
	}
	p.projectName = project.Name
	p.tracker.Logf("Using project name %q as the top-level tag", p.projectName)
}

// setStage records a stage transition on the tracker and mirrors it to the
// structured log.
func (p *Pipeline) setStage(stage string) {
	p.tracker.SetStage(stage)
	if p.logger != nil {
		p.logger.Stage(stage, "stage transition", "project_id", p.cfg.ProjectID)
	}
}

func (p *Pipeline) fail(err error) (*RunResult, error) {
	p.tracker.Logf("Task execution error: %v", err)
	p.logError("run failed", "project_id", p.cfg.ProjectID, "error", err)
	return &RunResult{Status: StatusFailed, Progress: p.tracker.Snapshot()}, err
}

func (p *Pipeline) logInfo(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) logWarn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) logError(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
