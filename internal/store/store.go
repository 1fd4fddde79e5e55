// Package store persists the distillation catalog: projects, tag trees,
// questions, single-turn answers, and multi-turn conversations.
package store

import "context"

// Store is the catalog persistence interface.
//
// Read methods that look up a single record return (nil, nil) when the record
// does not exist.
type Store interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	UpdateProject(ctx context.Context, p *Project) error

	CreateTag(ctx context.Context, t *Tag) error
	ListTags(ctx context.Context, projectID string) ([]Tag, error)

	CreateQuestion(ctx context.Context, q *Question) error
	ListQuestions(ctx context.Context, projectID string, distillOnly bool) ([]Question, error)
	MarkAnswered(ctx context.Context, questionID string) error

	CreateAnswer(ctx context.Context, a *Answer) error
	ListAnswers(ctx context.Context, projectID string) ([]Answer, error)

	CreateConversation(ctx context.Context, c *Conversation) error
	ListConversations(ctx context.Context, projectID string) ([]Conversation, error)

	Close() error
}
