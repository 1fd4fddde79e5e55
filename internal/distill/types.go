// Package distill implements the auto-distillation pipeline: it grows a
// bounded tag tree for a topic, generates questions for the leaf tags,
// produces single-turn answers, and optionally produces multi-turn
// role-played dialogues, reporting incremental progress throughout.
package distill

import "context"

// Dataset type selectors for a run.
const (
	DatasetSingleTurn = "single-turn"
	DatasetMultiTurn  = "multi-turn"
	DatasetBoth       = "both"
)

// Tag is a node of the project's tag tree as seen by the pipeline.
type Tag struct {
	ID       string
	Label    string
	ParentID string // empty for top-level tags
}

// Question is a distillation-scoped question as seen by the pipeline.
type Question struct {
	ID       string
	Label    string // owning tag label
	Text     string
	Answered bool
}

// Conversation identifies an existing multi-turn dialogue.
type Conversation struct {
	ID         string
	QuestionID string
}

// Project carries the catalog fields the pipeline needs.
type Project struct {
	ID   string
	Name string
}

// MultiTurnConfig is the project-level dialogue configuration. Scenario,
// RoleA, RoleB and Rounds >= 1 are all required before the multi-turn stage
// may issue a single generation call.
type MultiTurnConfig struct {
	Scenario     string
	RoleA        string
	RoleB        string
	Rounds       int
	SystemPrompt string
}

// Catalog is the read side the pipeline depends on. Each stage re-reads the
// catalog on entry; no state is carried across stages.
type Catalog interface {
	Project(ctx context.Context, projectID string) (*Project, error)
	Tags(ctx context.Context, projectID string) ([]Tag, error)
	Questions(ctx context.Context, projectID string) ([]Question, error)
	Conversations(ctx context.Context, projectID string) ([]Conversation, error)
	MultiTurnConfig(ctx context.Context, projectID string) (*MultiTurnConfig, error)
}

// TagRequest asks the generator for Count new sub-tags under a parent.
type TagRequest struct {
	ProjectID string
	Parent    string // parent tag label; the run topic at the top level
	ParentID  string // empty at the top level
	TagPath   string // path rooted at the project name
	Count     int
	Existing  []string // sibling labels that must not be duplicated
	Model     string
	Language  string
}

// QuestionRequest asks the generator for Count new questions about a tag.
type QuestionRequest struct {
	ProjectID string
	Tag       Tag
	TagPath   string
	Count     int
	Existing  []string // question texts already attached to the tag
	Model     string
	Language  string
}

// AnswerRequest asks the generator for a single-turn answer to a question.
type AnswerRequest struct {
	ProjectID string
	Question  Question
	Model     string
	Language  string
}

// ConversationRequest asks the generator for a full multi-turn dialogue
// seeded from an answered question.
type ConversationRequest struct {
	ProjectID string
	Question  Question
	Config    MultiTurnConfig
	Model     string
	Language  string
}

// Generator is the write side the pipeline depends on. Every call both
// generates content and persists it; the pipeline never touches storage
// directly.
type Generator interface {
	GenerateTags(ctx context.Context, req TagRequest) ([]Tag, error)
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]string, error)
	GenerateAnswer(ctx context.Context, req AnswerRequest) error
	GenerateConversation(ctx context.Context, req ConversationRequest) error
}
