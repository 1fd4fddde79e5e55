package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProjectLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &Project{
		ID:    uuid.NewString(),
		Name:  "Chinese History",
		Topic: "chinese history",
	}
	require.NoError(t, s.CreateProject(ctx, p))

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Chinese History", got.Name)
	assert.Equal(t, "chinese history", got.Topic)
	assert.Zero(t, got.MultiTurnRounds)

	got.MultiTurnScenario = "customer support"
	got.MultiTurnRoleA = "customer"
	got.MultiTurnRoleB = "agent"
	got.MultiTurnRounds = 3
	require.NoError(t, s.UpdateProject(ctx, got))

	got2, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "customer support", got2.MultiTurnScenario)
	assert.Equal(t, 3, got2.MultiTurnRounds)

	list, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetProjectMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetProject(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateProjectMissing(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateProject(context.Background(), &Project{ID: "nope", Name: "x"})
	assert.Error(t, err)
}

func TestTagsScopedByProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := &Tag{ID: "t1", ProjectID: "p1", Label: "Dynasties"}
	child := &Tag{ID: "t2", ProjectID: "p1", Label: "Tang", ParentID: "t1"}
	other := &Tag{ID: "t3", ProjectID: "p2", Label: "Unrelated"}
	require.NoError(t, s.CreateTag(ctx, root))
	require.NoError(t, s.CreateTag(ctx, child))
	require.NoError(t, s.CreateTag(ctx, other))

	tags, err := s.ListTags(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "", tags[0].ParentID)
	assert.Equal(t, "t1", tags[1].ParentID)
}

func TestQuestionsAndAnswered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q1 := &Question{ID: "q1", ProjectID: "p1", TagID: "t1", Label: "Tang", Text: "Who founded the Tang dynasty?", Distill: true}
	q2 := &Question{ID: "q2", ProjectID: "p1", TagID: "t1", Label: "Tang", Text: "When did it fall?", Distill: false}
	require.NoError(t, s.CreateQuestion(ctx, q1))
	require.NoError(t, s.CreateQuestion(ctx, q2))

	all, err := s.ListQuestions(ctx, "p1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	distill, err := s.ListQuestions(ctx, "p1", true)
	require.NoError(t, err)
	require.Len(t, distill, 1)
	assert.Equal(t, "q1", distill[0].ID)
	assert.False(t, distill[0].Answered)

	require.NoError(t, s.MarkAnswered(ctx, "q1"))

	distill, err = s.ListQuestions(ctx, "p1", true)
	require.NoError(t, err)
	assert.True(t, distill[0].Answered)

	assert.Error(t, s.MarkAnswered(ctx, "missing"))
}

func TestAnswersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &Answer{
		ID:         uuid.NewString(),
		ProjectID:  "p1",
		QuestionID: "q1",
		Question:   "Who founded the Tang dynasty?",
		Text:       "Li Yuan, who took the throne as Emperor Gaozu in 618.",
		Model:      "gpt-4o",
	}
	require.NoError(t, s.CreateAnswer(ctx, a))

	answers, err := s.ListAnswers(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, a.Text, answers[0].Text)
	assert.Equal(t, "gpt-4o", answers[0].Model)
}

func TestConversationTurnsSurviveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &Conversation{
		ID:         uuid.NewString(),
		ProjectID:  "p1",
		QuestionID: "q1",
		Scenario:   "history tutoring",
		RoleA:      "student",
		RoleB:      "tutor",
		Rounds:     2,
		Turns: []Turn{
			{Role: "user", Content: "Who founded the Tang dynasty?"},
			{Role: "assistant", Content: "Li Yuan founded it in 618."},
			{Role: "user", Content: "What happened next?"},
			{Role: "assistant", Content: "His son Li Shimin soon took power."},
		},
	}
	require.NoError(t, s.CreateConversation(ctx, c))

	convs, err := s.ListConversations(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	require.Len(t, convs[0].Turns, 4)
	assert.Equal(t, "user", convs[0].Turns[0].Role)
	assert.Equal(t, "assistant", convs[0].Turns[3].Role)
	assert.Equal(t, 2, convs[0].Rounds)
}
