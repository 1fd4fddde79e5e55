package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite-backed catalog.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id                       TEXT PRIMARY KEY,
		name                     TEXT NOT NULL,
		topic                    TEXT NOT NULL,
		multi_turn_system_prompt TEXT NOT NULL DEFAULT '',
		multi_turn_scenario      TEXT NOT NULL DEFAULT '',
		multi_turn_role_a        TEXT NOT NULL DEFAULT '',
		multi_turn_role_b        TEXT NOT NULL DEFAULT '',
		multi_turn_rounds        INTEGER NOT NULL DEFAULT 0,
		created_at               TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS tags (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		label      TEXT NOT NULL,
		parent_id  TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tags_project ON tags(project_id);
	CREATE TABLE IF NOT EXISTS questions (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		tag_id     TEXT NOT NULL,
		label      TEXT NOT NULL,
		text       TEXT NOT NULL,
		answered   INTEGER NOT NULL DEFAULT 0,
		distill    INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_questions_project ON questions(project_id);
	CREATE TABLE IF NOT EXISTS answers (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL,
		question_id TEXT NOT NULL,
		question    TEXT NOT NULL,
		text        TEXT NOT NULL,
		model       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_answers_project ON answers(project_id);
	CREATE TABLE IF NOT EXISTS conversations (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL,
		question_id TEXT NOT NULL,
		scenario    TEXT NOT NULL,
		role_a      TEXT NOT NULL,
		role_b      TEXT NOT NULL,
		rounds      INTEGER NOT NULL,
		turns       TEXT NOT NULL,
		model       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_project ON conversations(project_id);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// CreateProject inserts a new project.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, topic, multi_turn_system_prompt, multi_turn_scenario,
			multi_turn_role_a, multi_turn_role_b, multi_turn_rounds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Topic, p.MultiTurnSystemPrompt, p.MultiTurnScenario,
		p.MultiTurnRoleA, p.MultiTurnRoleB, p.MultiTurnRounds,
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create project %q: %w", p.ID, err)
	}
	return nil
}

// GetProject retrieves a project by id. Returns (nil, nil) if not found.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Project
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, topic, multi_turn_system_prompt, multi_turn_scenario,
			multi_turn_role_a, multi_turn_role_b, multi_turn_rounds, created_at
		FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Topic, &p.MultiTurnSystemPrompt, &p.MultiTurnScenario,
		&p.MultiTurnRoleA, &p.MultiTurnRoleB, &p.MultiTurnRounds, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project %q: %w", id, err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, topic, multi_turn_system_prompt, multi_turn_scenario,
			multi_turn_role_a, multi_turn_role_b, multi_turn_rounds, created_at
		FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Topic, &p.MultiTurnSystemPrompt,
			&p.MultiTurnScenario, &p.MultiTurnRoleA, &p.MultiTurnRoleB,
			&p.MultiTurnRounds, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject replaces the mutable fields of a project.
func (s *SQLiteStore) UpdateProject(ctx context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, topic = ?, multi_turn_system_prompt = ?,
			multi_turn_scenario = ?, multi_turn_role_a = ?, multi_turn_role_b = ?,
			multi_turn_rounds = ?
		WHERE id = ?`,
		p.Name, p.Topic, p.MultiTurnSystemPrompt, p.MultiTurnScenario,
		p.MultiTurnRoleA, p.MultiTurnRoleB, p.MultiTurnRounds, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project %q: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update project %q: not found", p.ID)
	}
	return nil
}

// CreateTag inserts a new tag.
func (s *SQLiteStore) CreateTag(ctx context.Context, t *Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, project_id, label, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Label, t.ParentID, t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create tag %q: %w", t.Label, err)
	}
	return nil
}

// ListTags returns all tags of a project.
func (s *SQLiteStore) ListTags(ctx context.Context, projectID string) ([]Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, label, parent_id, created_at
		FROM tags WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tags for project %q: %w", projectID, err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		var createdAt string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Label, &t.ParentID, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CreateQuestion inserts a new question.
func (s *SQLiteStore) CreateQuestion(ctx context.Context, q *Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (id, project_id, tag_id, label, text, answered, distill, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.ProjectID, q.TagID, q.Label, q.Text,
		boolToInt(q.Answered), boolToInt(q.Distill), q.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create question %q: %w", q.ID, err)
	}
	return nil
}

// ListQuestions returns a project's questions, optionally restricted to
// distillation-scoped ones.
func (s *SQLiteStore) ListQuestions(ctx context.Context, projectID string, distillOnly bool) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, project_id, tag_id, label, text, answered, distill, created_at
		FROM questions WHERE project_id = ?`
	if distillOnly {
		query += ` AND distill = 1`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list questions for project %q: %w", projectID, err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		var answered, distill int
		var createdAt string
		if err := rows.Scan(&q.ID, &q.ProjectID, &q.TagID, &q.Label, &q.Text,
			&answered, &distill, &createdAt); err != nil {
			return nil, err
		}
		q.Answered = answered != 0
		q.Distill = distill != 0
		q.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// MarkAnswered flips a question's answered flag to true.
func (s *SQLiteStore) MarkAnswered(ctx context.Context, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE questions SET answered = 1 WHERE id = ?", questionID)
	if err != nil {
		return fmt.Errorf("mark question %q answered: %w", questionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark question %q answered: not found", questionID)
	}
	return nil
}

// CreateAnswer inserts a single-turn answer.
func (s *SQLiteStore) CreateAnswer(ctx context.Context, a *Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO answers (id, project_id, question_id, question, text, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.QuestionID, a.Question, a.Text, a.Model,
		a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create answer for question %q: %w", a.QuestionID, err)
	}
	return nil
}

// ListAnswers returns all single-turn answers of a project.
func (s *SQLiteStore) ListAnswers(ctx context.Context, projectID string) ([]Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, question_id, question, text, model, created_at
		FROM answers WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list answers for project %q: %w", projectID, err)
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		var a Answer
		var createdAt string
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.QuestionID, &a.Question,
			&a.Text, &a.Model, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// CreateConversation inserts a multi-turn conversation. Turns are stored as JSON.
func (s *SQLiteStore) CreateConversation(ctx context.Context, c *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	turns, err := json.Marshal(c.Turns)
	if err != nil {
		return fmt.Errorf("marshal turns for question %q: %w", c.QuestionID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, project_id, question_id, scenario, role_a, role_b,
			rounds, turns, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.QuestionID, c.Scenario, c.RoleA, c.RoleB,
		c.Rounds, string(turns), c.Model, c.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create conversation for question %q: %w", c.QuestionID, err)
	}
	return nil
}

// ListConversations returns all conversations of a project.
func (s *SQLiteStore) ListConversations(ctx context.Context, projectID string) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, question_id, scenario, role_a, role_b, rounds, turns, model, created_at
		FROM conversations WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list conversations for project %q: %w", projectID, err)
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var c Conversation
		var turns, createdAt string
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.QuestionID, &c.Scenario,
			&c.RoleA, &c.RoleB, &c.Rounds, &turns, &c.Model, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(turns), &c.Turns); err != nil {
			return nil, fmt.Errorf("unmarshal turns for conversation %q: %w", c.ID, err)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// Close shuts down the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
