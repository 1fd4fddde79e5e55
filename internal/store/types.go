package store

import "time"

// Project is the root of a distillation catalog. The multi-turn fields hold
// the project-level dialogue task configuration; they stay empty until the
// user configures multi-turn generation.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"createdAt"`

	MultiTurnSystemPrompt string `json:"multiTurnSystemPrompt,omitempty"`
	MultiTurnScenario     string `json:"multiTurnScenario,omitempty"`
	MultiTurnRoleA        string `json:"multiTurnRoleA,omitempty"`
	MultiTurnRoleB        string `json:"multiTurnRoleB,omitempty"`
	MultiTurnRounds       int    `json:"multiTurnRounds,omitempty"`
}

// Tag is a node in a project's tag tree. ParentID is empty for top-level tags.
type Tag struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Label     string    `json:"label"`
	ParentID  string    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Question belongs to a leaf tag. Label duplicates the owning tag's label so
// questions can be matched to their tag without a join. Answered flips to
// true once a single-turn answer exists. Distill marks questions produced by
// the distillation pipeline as opposed to imported ones.
type Question struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	TagID     string    `json:"tagId"`
	Label     string    `json:"label"`
	Text      string    `json:"text"`
	Answered  bool      `json:"answered"`
	Distill   bool      `json:"distill"`
	CreatedAt time.Time `json:"createdAt"`
}

// Answer is a single-turn dataset entry keyed by question.
type Answer struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	QuestionID string    `json:"questionId"`
	Question   string    `json:"question"`
	Text       string    `json:"text"`
	Model      string    `json:"model,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Turn is one utterance in a multi-turn conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is a multi-turn dataset entry: a role-played dialogue seeded
// from an answered question. Turns alternate user/assistant, user first.
type Conversation struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	QuestionID string    `json:"questionId"`
	Scenario   string    `json:"scenario"`
	RoleA      string    `json:"roleA"`
	RoleB      string    `json:"roleB"`
	Rounds     int       `json:"rounds"`
	Turns      []Turn    `json:"turns"`
	Model      string    `json:"model,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
