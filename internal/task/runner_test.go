package task

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/distillkit/distillkit/internal/distill"
)

// memBackend is an in-memory catalog plus generator good enough to drive a
// small single-turn run end to end.
type memBackend struct {
	mu        sync.Mutex
	tags      []distill.Tag
	questions []distill.Question
	nextID    int

	// block, when set, stalls every generation call until released.
	block chan struct{}
}

func (b *memBackend) id() string {
	b.nextID++
	return "id-" + strings.Repeat("x", b.nextID)
}

func (b *memBackend) wait(ctx context.Context) error {
	if b.block == nil {
		return nil
	}
	select {
	case <-b.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *memBackend) Project(ctx context.Context, projectID string) (*distill.Project, error) {
	return &distill.Project{ID: projectID, Name: "Runner Test"}, nil
}

func (b *memBackend) Tags(ctx context.Context, projectID string) ([]distill.Tag, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]distill.Tag(nil), b.tags...), nil
}

func (b *memBackend) Questions(ctx context.Context, projectID string) ([]distill.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]distill.Question(nil), b.questions...), nil
}

func (b *memBackend) Conversations(ctx context.Context, projectID string) ([]distill.Conversation, error) {
	return nil, nil
}

func (b *memBackend) MultiTurnConfig(ctx context.Context, projectID string) (*distill.MultiTurnConfig, error) {
	return &distill.MultiTurnConfig{}, nil
}

func (b *memBackend) GenerateTags(ctx context.Context, req distill.TagRequest) ([]distill.Tag, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var created []distill.Tag
	for i := 0; i < req.Count; i++ {
		tag := distill.Tag{ID: b.id(), Label: req.Parent + "/child", ParentID: req.ParentID}
		b.tags = append(b.tags, tag)
		created = append(created, tag)
	}
	return created, nil
}

func (b *memBackend) GenerateQuestions(ctx context.Context, req distill.QuestionRequest) ([]string, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var created []string
	for i := 0; i < req.Count; i++ {
		text := "What about " + req.Tag.Label + "?"
		b.questions = append(b.questions, distill.Question{ID: b.id(), Label: req.Tag.Label, Text: text})
		created = append(created, text)
	}
	return created, nil
}

func (b *memBackend) GenerateAnswer(ctx context.Context, req distill.AnswerRequest) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.questions {
		if b.questions[i].ID == req.Question.ID {
			b.questions[i].Answered = true
		}
	}
	return nil
}

func (b *memBackend) GenerateConversation(ctx context.Context, req distill.ConversationRequest) error {
	return b.wait(ctx)
}

func smallConfig() distill.Config {
	return distill.Config{
		ProjectID:       "p1",
		Topic:           "Testing",
		Levels:          1,
		TagsPerLevel:    1,
		QuestionsPerTag: 1,
	}
}

func TestStartRunsToCompletion(t *testing.T) {
	backend := &memBackend{}
	r := NewRunner(backend, backend, nil, nil)

	id, err := r.Start(smallConfig())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	run, err := r.Wait(ctx, id)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if run.Status != StatusCompleted {
		t.Fatalf("status = %q, want %q (error: %s)", run.Status, StatusCompleted, run.Error)
	}
	if run.Progress.Stage != distill.StageCompleted {
		t.Errorf("final stage = %q, want %q", run.Progress.Stage, distill.StageCompleted)
	}
	if run.Progress.TagsBuilt != 1 || run.Progress.QuestionsBuilt != 1 || run.Progress.DatasetsBuilt != 1 {
		t.Errorf("progress = %+v, want 1 tag, 1 question, 1 dataset built", run.Progress)
	}
	if run.FinishedAt.IsZero() {
		t.Error("finished run has zero FinishedAt")
	}
	if len(run.Logs) == 0 {
		t.Error("finished run has no logs")
	}
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	backend := &memBackend{}
	r := NewRunner(backend, backend, nil, nil)

	cfg := smallConfig()
	cfg.Levels = 0
	if _, err := r.Start(cfg); err == nil {
		t.Fatal("Start accepted levels = 0")
	}
	if len(r.List()) != 0 {
		t.Error("rejected run was registered")
	}
}

func TestCancelStopsRun(t *testing.T) {
	backend := &memBackend{block: make(chan struct{})}
	r := NewRunner(backend, backend, nil, nil)

	id, err := r.Start(smallConfig())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Give the run a moment to reach the first blocked generation call.
	deadline := time.Now().Add(2 * time.Second)
	for {
		run, ok := r.Get(id)
		if !ok {
			t.Fatal("run not found")
		}
		if run.Status == StatusRunning {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never reached running state, status %q", run.Status)
		}
		time.Sleep(time.Millisecond)
	}

	if !r.Cancel(id) {
		t.Fatal("Cancel returned false for a running run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	run, err := r.Wait(ctx, id)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if run.Status != StatusCanceled {
		t.Fatalf("status = %q, want %q", run.Status, StatusCanceled)
	}
	if r.Cancel(id) {
		t.Error("Cancel returned true for an already finished run")
	}
}

func TestCancelUnknownRun(t *testing.T) {
	backend := &memBackend{}
	r := NewRunner(backend, backend, nil, nil)
	if r.Cancel("missing") {
		t.Error("Cancel returned true for an unknown run id")
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	backend := &memBackend{}
	r := NewRunner(backend, backend, nil, nil)

	first, err := r.Start(smallConfig())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := r.Start(smallConfig())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.Wait(ctx, first); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if _, err := r.Wait(ctx, second); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	runs := r.List()
	if len(runs) != 2 {
		t.Fatalf("List returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("List order = [%s, %s], want newest first", runs[0].ID, runs[1].ID)
	}
}

func TestProgressCallbackChains(t *testing.T) {
	backend := &memBackend{}
	r := NewRunner(backend, backend, nil, nil)

	var mu sync.Mutex
	calls := 0
	cfg := smallConfig()
	cfg.OnProgress = func(distill.Snapshot) {
		mu.Lock()
		calls++
		mu.Unlock()
	}

	id, err := r.Start(cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	run, err := r.Wait(ctx, id)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if run.Status != StatusCompleted {
		t.Fatalf("status = %q, want %q", run.Status, StatusCompleted)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls == 0 {
		t.Error("user OnProgress callback never invoked")
	}
}
