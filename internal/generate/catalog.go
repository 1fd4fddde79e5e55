package generate

import (
	"context"
	"fmt"

	"github.com/distillkit/distillkit/internal/distill"
	"github.com/distillkit/distillkit/internal/store"
)

// Catalog adapts the persistent store to the pipeline's read interface.
// Questions are restricted to distillation-scoped ones.
type Catalog struct {
	store store.Store
}

// NewCatalog wraps a store for pipeline consumption.
func NewCatalog(st store.Store) *Catalog {
	return &Catalog{store: st}
}

func (c *Catalog) Project(ctx context.Context, projectID string) (*distill.Project, error) {
	p, err := c.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if p == nil {
		return nil, nil
	}
	return &distill.Project{ID: p.ID, Name: p.Name}, nil
}

func (c *Catalog) Tags(ctx context.Context, projectID string) ([]distill.Tag, error) {
	tags, err := c.store.ListTags(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	out := make([]distill.Tag, len(tags))
	for i, t := range tags {
		out[i] = distill.Tag{ID: t.ID, Label: t.Label, ParentID: t.ParentID}
	}
	return out, nil
}

func (c *Catalog) Questions(ctx context.Context, projectID string) ([]distill.Question, error) {
	questions, err := c.store.ListQuestions(ctx, projectID, true)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	out := make([]distill.Question, len(questions))
	for i, q := range questions {
		out[i] = distill.Question{ID: q.ID, Label: q.Label, Text: q.Text, Answered: q.Answered}
	}
	return out, nil
}

func (c *Catalog) Conversations(ctx context.Context, projectID string) ([]distill.Conversation, error) {
	conversations, err := c.store.ListConversations(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	out := make([]distill.Conversation, len(conversations))
	for i, conv := range conversations {
		out[i] = distill.Conversation{ID: conv.ID, QuestionID: conv.QuestionID}
	}
	return out, nil
}

func (c *Catalog) MultiTurnConfig(ctx context.Context, projectID string) (*distill.MultiTurnConfig, error) {
	p, err := c.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("catalog: project %q not found", projectID)
	}
	return &distill.MultiTurnConfig{
		Scenario:     p.MultiTurnScenario,
		RoleA:        p.MultiTurnRoleA,
		RoleB:        p.MultiTurnRoleB,
		Rounds:       p.MultiTurnRounds,
		SystemPrompt: p.MultiTurnSystemPrompt,
	}, nil
}
