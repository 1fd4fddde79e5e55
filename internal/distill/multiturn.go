package distill

import (
	"context"
	"errors"
	"fmt"
)

// ErrMultiTurnConfig marks the fatal configuration error raised when the
// project's multi-turn settings are incomplete.
var ErrMultiTurnConfig = errors.New("multi-turn dialogue settings are incomplete: scenario, roleA, roleB and rounds >= 1 must be configured for the project")

// generateConversations produces one multi-turn dialogue for every answered
// question that has no conversation yet. Missing dialogue configuration is
// fatal and surfaces from the run; no generation call is issued in that case.
func (p *Pipeline) generateConversations(ctx context.Context) error {
	p.setStage(StageMultiTurn)
	p.tracker.Logf("Starting to generate multi-turn conversations...")

	cfg, err := p.catalog.MultiTurnConfig(ctx, p.cfg.ProjectID)
	if err != nil {
		p.tracker.Logf("Failed to get multi-turn configuration: %v", err)
		p.logWarn("multi-turn config listing failed", "error", err)
		return nil
	}
	if err := validateMultiTurn(cfg); err != nil {
		return err
	}

	questions, err := p.catalog.Questions(ctx, p.cfg.ProjectID)
	if err != nil {
		p.tracker.Logf("Failed to get questions: %v", err)
		p.logWarn("question listing failed", "stage", StageMultiTurn, "error", err)
		return nil
	}

	var answered []Question
	for _, q := range questions {
		if q.Answered {
			answered = append(answered, q)
		}
	}
	if len(answered) == 0 {
		p.tracker.Logf("No answered questions found, skipping multi-turn conversation generation")
		return nil
	}

	conversations, err := p.catalog.Conversations(ctx, p.cfg.ProjectID)
	if err != nil {
		p.tracker.Logf("Failed to get conversations: %v", err)
		p.logWarn("conversation listing failed", "error", err)
		return nil
	}
	have := make(map[string]bool, len(conversations))
	for _, c := range conversations {
		have[c.QuestionID] = true
	}

	var work []Question
	for _, q := range answered {
		if !have[q.ID] {
			work = append(work, q)
		}
	}

	p.tracker.Set(MultiTurnTotal, len(answered))
	p.tracker.Set(MultiTurnBuilt, len(answered)-len(work))

	p.tracker.Logf("Found %d questions ready for multi-turn conversation generation...", len(work))
	p.tracker.Logf("Multi-turn generation concurrency limit: %d", p.cfg.MultiTurnConcurrency)

	RunBatch(ctx, work, p.cfg.MultiTurnConcurrency, func(ctx context.Context, q Question) error {
		p.tracker.Logf("Generating multi-turn conversation for %q (ID: %s)...", q.Text, q.ID)
		err := p.gen.GenerateConversation(ctx, ConversationRequest{
			ProjectID: p.cfg.ProjectID,
			Question:  q,
			Config:    *cfg,
			Model:     p.cfg.Model,
			Language:  p.cfg.Language,
		})
		if err != nil {
			p.tracker.Logf("Failed to generate multi-turn conversation for %q (ID: %s): %v", q.Text, q.ID, err)
			return err
		}
		p.tracker.Add(MultiTurnBuilt, 1)
		p.tracker.Logf("Multi-turn conversation generated for %q (ID: %s)", q.Text, q.ID)
		return nil
	})

	if err := ctx.Err(); err != nil {
		return err
	}
	p.tracker.Logf("Multi-turn conversation generation completed")
	return nil
}

func validateMultiTurn(cfg *MultiTurnConfig) error {
	if cfg == nil {
		return ErrMultiTurnConfig
	}
	var missing []string
	if cfg.Scenario == "" {
		missing = append(missing, "scenario")
	}
	if cfg.RoleA == "" {
		missing = append(missing, "roleA")
	}
	if cfg.RoleB == "" {
		missing = append(missing, "roleB")
	}
	if cfg.Rounds < 1 {
		missing = append(missing, "rounds")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (missing: %v)", ErrMultiTurnConfig, missing)
	}
	return nil
}
