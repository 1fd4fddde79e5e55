// Package export writes a project's generated datasets to JSONL files in
// common fine-tuning formats: alpaca for single-turn answers and sharegpt
// for multi-turn conversations.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/distillkit/distillkit/internal/observability"
	"github.com/distillkit/distillkit/internal/store"
)

// Dataset format names.
const (
	FormatAlpaca   = "alpaca"
	FormatShareGPT = "sharegpt"
)

// alpacaRecord is one line of an alpaca-format JSONL file.
type alpacaRecord struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
}

type sharegptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// sharegptRecord is one line of a sharegpt-format JSONL file.
type sharegptRecord struct {
	Messages []sharegptMessage `json:"messages"`
}

// Result reports what an export produced.
type Result struct {
	SingleTurnPath  string `json:"singleTurnPath,omitempty"`
	SingleTurnCount int    `json:"singleTurnCount"`
	MultiTurnPath   string `json:"multiTurnPath,omitempty"`
	MultiTurnCount  int    `json:"multiTurnCount"`
}

// Exporter reads datasets from the store and writes JSONL files.
type Exporter struct {
	store  store.Store
	logger *observability.Logger
}

// New creates an exporter. logger may be nil.
func New(st store.Store, logger *observability.Logger) *Exporter {
	return &Exporter{store: st, logger: logger}
}

// ExportProject writes the project's single-turn answers as alpaca JSONL and
// its conversations as sharegpt JSONL into dir, both files in parallel. A
// dataset with no entries produces no file. Returned paths are absolute when
// dir is.
func (e *Exporter) ExportProject(ctx context.Context, projectID, dir string) (*Result, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("export: project %q not found", projectID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	res := &Result{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		path, n, err := e.exportAnswers(ctx, projectID, dir)
		if err != nil {
			return err
		}
		res.SingleTurnPath, res.SingleTurnCount = path, n
		return nil
	})
	g.Go(func() error {
		path, n, err := e.exportConversations(ctx, projectID, dir)
		if err != nil {
			return err
		}
		res.MultiTurnPath, res.MultiTurnCount = path, n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if e.logger != nil {
		e.logger.Info("export completed",
			"project_id", projectID,
			"single_turn", res.SingleTurnCount,
			"multi_turn", res.MultiTurnCount)
	}
	return res, nil
}

// ExportAnswers writes only the alpaca file. It returns the file path and
// the number of records, or an empty path when there are none.
func (e *Exporter) ExportAnswers(ctx context.Context, projectID, dir string) (string, int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("export: %w", err)
	}
	path, n, err := e.exportAnswers(ctx, projectID, dir)
	if err != nil {
		return "", 0, fmt.Errorf("export: %w", err)
	}
	return path, n, nil
}

// ExportConversations writes only the sharegpt file.
func (e *Exporter) ExportConversations(ctx context.Context, projectID, dir string) (string, int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("export: %w", err)
	}
	path, n, err := e.exportConversations(ctx, projectID, dir)
	if err != nil {
		return "", 0, fmt.Errorf("export: %w", err)
	}
	return path, n, nil
}

func (e *Exporter) exportAnswers(ctx context.Context, projectID, dir string) (string, int, error) {
	answers, err := e.store.ListAnswers(ctx, projectID)
	if err != nil {
		return "", 0, err
	}
	if len(answers) == 0 {
		return "", 0, nil
	}

	records := make([]any, len(answers))
	for i, a := range answers {
		records[i] = alpacaRecord{Instruction: a.Question, Input: "", Output: a.Text}
	}
	path := filepath.Join(dir, FormatAlpaca+".jsonl")
	if err := writeJSONL(path, records); err != nil {
		return "", 0, err
	}
	return path, len(records), nil
}

func (e *Exporter) exportConversations(ctx context.Context, projectID, dir string) (string, int, error) {
	conversations, err := e.store.ListConversations(ctx, projectID)
	if err != nil {
		return "", 0, err
	}
	if len(conversations) == 0 {
		return "", 0, nil
	}

	records := make([]any, 0, len(conversations))
	for _, c := range conversations {
		msgs := make([]sharegptMessage, len(c.Turns))
		for i, t := range c.Turns {
			msgs[i] = sharegptMessage{Role: t.Role, Content: t.Content}
		}
		records = append(records, sharegptRecord{Messages: msgs})
	}
	path := filepath.Join(dir, FormatShareGPT+".jsonl")
	if err := writeJSONL(path, records); err != nil {
		return "", 0, err
	}
	return path, len(records), nil
}

func writeJSONL(path string, records []any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
