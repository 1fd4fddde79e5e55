// Package generate turns pipeline generation requests into LLM calls and
// persists the results in the catalog store. It is the write side behind the
// distillation pipeline: one method call produces and stores one artifact
// (a batch of tags, a batch of questions, an answer, or a full conversation).
package generate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/distillkit/distillkit/internal/distill"
	"github.com/distillkit/distillkit/internal/llm"
	"github.com/distillkit/distillkit/internal/observability"
	"github.com/distillkit/distillkit/internal/store"
)

// Sampling temperature for generation calls. Answers use a lower value than
// taxonomy and question brainstorming.
const (
	creativeTemperature = 0.7
	answerTemperature   = 0.3
)

// Service implements the pipeline's Generator over an LLM provider and the
// catalog store.
type Service struct {
	store    store.Store
	provider llm.Provider
	logger   *observability.Logger
	metrics  *observability.MetricsCollector
}

// NewService creates a generation service. logger and metrics may be nil.
func NewService(st store.Store, provider llm.Provider, logger *observability.Logger, metrics *observability.MetricsCollector) *Service {
	return &Service{store: st, provider: provider, logger: logger, metrics: metrics}
}

// GenerateTags asks the model for req.Count sub-tags and persists each one.
func (s *Service) GenerateTags(ctx context.Context, req distill.TagRequest) ([]distill.Tag, error) {
	prompt := llm.TagPrompt(llm.TagPromptParams{
		TagPath:  req.TagPath,
		Parent:   req.Parent,
		Count:    req.Count,
		Existing: req.Existing,
		Language: req.Language,
	})
	resp, err := s.complete(ctx, prompt, req.Model, creativeTemperature)
	if err != nil {
		return nil, fmt.Errorf("generate tags under %q: %w", req.Parent, err)
	}

	labels, err := llm.ExtractJSONArray(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("generate tags under %q: %w", req.Parent, err)
	}
	if len(labels) > req.Count {
		labels = labels[:req.Count]
	}

	var created []distill.Tag
	for _, label := range labels {
		tag := &store.Tag{
			ID:        uuid.NewString(),
			ProjectID: req.ProjectID,
			Label:     label,
			ParentID:  req.ParentID,
		}
		if err := s.store.CreateTag(ctx, tag); err != nil {
			return created, fmt.Errorf("generate tags under %q: %w", req.Parent, err)
		}
		created = append(created, distill.Tag{ID: tag.ID, Label: tag.Label, ParentID: tag.ParentID})
	}
	s.count(observability.MetricTags, len(created))
	return created, nil
}

// GenerateQuestions asks the model for req.Count questions about a tag and
// persists each one as an unanswered distillation-scoped question.
func (s *Service) GenerateQuestions(ctx context.Context, req distill.QuestionRequest) ([]string, error) {
	prompt := llm.QuestionPrompt(llm.QuestionPromptParams{
		TagPath:  req.TagPath,
		Tag:      req.Tag.Label,
		Count:    req.Count,
		Existing: req.Existing,
		Language: req.Language,
	})
	resp, err := s.complete(ctx, prompt, req.Model, creativeTemperature)
	if err != nil {
		return nil, fmt.Errorf("generate questions for %q: %w", req.Tag.Label, err)
	}

	texts, err := llm.ExtractJSONArray(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("generate questions for %q: %w", req.Tag.Label, err)
	}
	if len(texts) > req.Count {
		texts = texts[:req.Count]
	}

	var created []string
	for _, text := range texts {
		q := &store.Question{
			ID:        uuid.NewString(),
			ProjectID: req.ProjectID,
			TagID:     req.Tag.ID,
			Label:     req.Tag.Label,
			Text:      text,
			Distill:   true,
		}
		if err := s.store.CreateQuestion(ctx, q); err != nil {
			return created, fmt.Errorf("generate questions for %q: %w", req.Tag.Label, err)
		}
		created = append(created, text)
	}
	s.count(observability.MetricQuestions, len(created))
	return created, nil
}

// GenerateAnswer produces a single-turn answer for a question, stores it,
// and marks the question answered.
func (s *Service) GenerateAnswer(ctx context.Context, req distill.AnswerRequest) error {
	prompt := llm.AnswerPrompt(llm.AnswerPromptParams{
		Question: req.Question.Text,
		Language: req.Language,
	})
	resp, err := s.complete(ctx, prompt, req.Model, answerTemperature)
	if err != nil {
		return fmt.Errorf("generate answer for question %q: %w", req.Question.ID, err)
	}

	answer := &store.Answer{
		ID:         uuid.NewString(),
		ProjectID:  req.ProjectID,
		QuestionID: req.Question.ID,
		Question:   req.Question.Text,
		Text:       resp.Content,
		Model:      resp.Model,
	}
	if err := s.store.CreateAnswer(ctx, answer); err != nil {
		return fmt.Errorf("generate answer for question %q: %w", req.Question.ID, err)
	}
	if err := s.store.MarkAnswered(ctx, req.Question.ID); err != nil {
		return fmt.Errorf("generate answer for question %q: %w", req.Question.ID, err)
	}
	s.count(observability.MetricDatasets, 1)
	return nil
}

// GenerateConversation runs the multi-turn loop for one question: each round
// alternates an assistant reply (RoleB) with a follow-up question (RoleA),
// starting from the source question, and the assembled transcript is stored
// as one conversation. The transcript has 2*Rounds turns, user first.
func (s *Service) GenerateConversation(ctx context.Context, req distill.ConversationRequest) error {
	cfg := req.Config

	var transcript []llm.Message
	question := req.Question.Text

	for round := 1; round <= cfg.Rounds; round++ {
		params := llm.DialoguePromptParams{
			Scenario:     cfg.Scenario,
			RoleA:        cfg.RoleA,
			RoleB:        cfg.RoleB,
			Round:        round,
			Rounds:       cfg.Rounds,
			Question:     question,
			Transcript:   transcript,
			SystemPrompt: cfg.SystemPrompt,
			Language:     req.Language,
		}

		resp, err := s.complete(ctx, llm.AssistantReplyPrompt(params), req.Model, creativeTemperature)
		if err != nil {
			return fmt.Errorf("conversation for question %q, round %d: %w", req.Question.ID, round, err)
		}
		var reply struct {
			Content string `json:"content"`
		}
		if err := llm.ExtractJSONObject(resp.Content, &reply); err != nil {
			return fmt.Errorf("conversation for question %q, round %d: %w", req.Question.ID, round, err)
		}
		if reply.Content == "" {
			return fmt.Errorf("conversation for question %q, round %d: empty reply", req.Question.ID, round)
		}

		transcript = append(transcript,
			llm.Message{Role: "user", Content: question},
			llm.Message{Role: "assistant", Content: reply.Content},
		)

		if round == cfg.Rounds {
			break
		}

		params.Transcript = transcript
		resp, err = s.complete(ctx, llm.NextQuestionPrompt(params), req.Model, creativeTemperature)
		if err != nil {
			return fmt.Errorf("conversation for question %q, round %d: %w", req.Question.ID, round, err)
		}
		var next struct {
			Question string `json:"question"`
		}
		if err := llm.ExtractJSONObject(resp.Content, &next); err != nil {
			return fmt.Errorf("conversation for question %q, round %d: %w", req.Question.ID, round, err)
		}
		if next.Question == "" {
			return fmt.Errorf("conversation for question %q, round %d: empty follow-up", req.Question.ID, round)
		}
		question = next.Question
	}

	turns := make([]store.Turn, len(transcript))
	for i, m := range transcript {
		turns[i] = store.Turn{Role: m.Role, Content: m.Content}
	}

	conv := &store.Conversation{
		ID:         uuid.NewString(),
		ProjectID:  req.ProjectID,
		QuestionID: req.Question.ID,
		Scenario:   cfg.Scenario,
		RoleA:      cfg.RoleA,
		RoleB:      cfg.RoleB,
		Rounds:     cfg.Rounds,
		Turns:      turns,
		Model:      req.Model,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return fmt.Errorf("conversation for question %q: %w", req.Question.ID, err)
	}
	s.count(observability.MetricConversations, 1)
	return nil
}

// complete issues one LLM call and records latency and cost.
func (s *Service) complete(ctx context.Context, prompt, model string, temperature float64) (*llm.Response, error) {
	resp, err := s.provider.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Model:       model,
		Temperature: temperature,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.Increment("llm_errors")
		}
		return nil, err
	}
	if s.metrics != nil {
		labels := observability.Labels{"model": resp.Model}
		s.metrics.Record(observability.MetricLatency, float64(resp.LatencyMs), labels)
		s.metrics.Record(observability.MetricCost, resp.CostUSD, labels)
		s.metrics.Record(observability.MetricTokens, float64(resp.InputTokens+resp.OutputTokens), labels)
	}
	if s.logger != nil {
		s.logger.Debug("llm call",
			"model", resp.Model,
			"latency_ms", resp.LatencyMs,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens)
	}
	return resp, nil
}

func (s *Service) count(mt observability.MetricType, n int) {
	if s.metrics == nil || n == 0 {
		return
	}
	s.metrics.Record(mt, float64(n), nil)
	s.metrics.IncrementBy(string(mt)+"_built", int64(n))
}
