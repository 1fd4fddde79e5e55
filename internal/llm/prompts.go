package llm

import (
	"fmt"
	"strings"
)

// TagPromptParams drives the sub-tag generation prompt.
type TagPromptParams struct {
	TagPath  string   // full path from the project root, " > " separated
	Parent   string   // label of the tag being expanded
	Count    int      // number of sub-tags to generate
	Existing []string // sibling labels that must not be duplicated
	Language string   // BCP 47-ish hint, e.g. "en", "zh-CN"
}

// TagPrompt builds the prompt that asks for Count new sub-tags under Parent.
// The model must answer with a JSON array of strings.
func TagPrompt(p TagPromptParams) string {
	var b strings.Builder
	b.WriteString("You are an expert in domain knowledge taxonomy construction.\n")
	fmt.Fprintf(&b, "The current tag path is %q. Generate %d sub-tags of the tag %q.\n", p.TagPath, p.Count, p.Parent)
	if len(p.Existing) > 0 {
		fmt.Fprintf(&b, "The following sub-tags already exist and must not be repeated or rephrased: %s.\n", strings.Join(p.Existing, ", "))
	}
	b.WriteString("Requirements:\n")
	b.WriteString("1. Each sub-tag is a short noun phrase naming a distinct subtopic of the parent tag.\n")
	b.WriteString("2. Sub-tags must not overlap with each other or with the existing ones.\n")
	b.WriteString("3. Stay strictly within the scope implied by the tag path.\n")
	writeLanguageHint(&b, p.Language)
	b.WriteString("Return a valid JSON array containing only strings, for example [\"tag 1\", \"tag 2\"]. No other text.")
	return b.String()
}

// QuestionPromptParams drives the question generation prompt.
type QuestionPromptParams struct {
	TagPath  string
	Tag      string
	Count    int
	Existing []string // question texts already attached to the tag
	Language string
}

// QuestionPrompt builds the prompt that asks for Count new questions about Tag.
// The model must answer with a JSON array of strings.
func QuestionPrompt(p QuestionPromptParams) string {
	var b strings.Builder
	b.WriteString("You are an expert in designing questions for instruction-tuning datasets.\n")
	fmt.Fprintf(&b, "The current tag path is %q. Generate %d questions about the topic %q.\n", p.TagPath, p.Count, p.Tag)
	if len(p.Existing) > 0 {
		fmt.Fprintf(&b, "The following questions already exist and must not be repeated or rephrased:\n- %s\n", strings.Join(p.Existing, "\n- "))
	}
	b.WriteString("Requirements:\n")
	b.WriteString("1. Each question must be self-contained and answerable without extra context.\n")
	b.WriteString("2. Questions must cover different aspects of the topic and must not duplicate each other.\n")
	b.WriteString("3. Use natural interrogative phrasing; do not reference tags, paths, or datasets.\n")
	writeLanguageHint(&b, p.Language)
	b.WriteString("Return a valid JSON array containing only strings, for example [\"question 1\", \"question 2\"]. No other text.")
	return b.String()
}

// AnswerPromptParams drives the single-turn answer prompt.
type AnswerPromptParams struct {
	Question string
	TagPath  string
	Language string
}

// AnswerPrompt builds the prompt for a single-turn answer. The model answers
// in plain text.
func AnswerPrompt(p AnswerPromptParams) string {
	var b strings.Builder
	b.WriteString("You are a knowledgeable assistant producing reference answers for a training dataset.\n")
	if p.TagPath != "" {
		fmt.Fprintf(&b, "The question belongs to the topic path %q.\n", p.TagPath)
	}
	fmt.Fprintf(&b, "Answer the following question accurately and completely:\n%s\n", p.Question)
	writeLanguageHint(&b, p.Language)
	b.WriteString("Reply with the answer only, no preamble.")
	return b.String()
}

// DialoguePromptParams drives both multi-turn prompts: the assistant reply for
// the current round and the follow-up question that opens the next round.
type DialoguePromptParams struct {
	Scenario     string
	RoleA        string // the role asking questions
	RoleB        string // the role answering
	Round        int    // 1-based round being generated
	Rounds       int    // total rounds
	Question     string // the question opened in this round
	Transcript   []Message
	SystemPrompt string
	Language     string
}

// AssistantReplyPrompt builds the prompt that produces RoleB's reply for the
// current round. The model must answer with a JSON object {"content": "..."}.
func AssistantReplyPrompt(p DialoguePromptParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are role-playing %q in the scenario %q, talking with %q.\n", p.RoleB, p.Scenario, p.RoleA)
	if p.SystemPrompt != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n", p.SystemPrompt)
	}
	fmt.Fprintf(&b, "This is round %d of %d.\n", p.Round, p.Rounds)
	writeTranscript(&b, p.Transcript, p.RoleA, p.RoleB)
	fmt.Fprintf(&b, "%s just said: %s\n", p.RoleA, p.Question)
	fmt.Fprintf(&b, "Reply in character as %s, staying consistent with the conversation so far.\n", p.RoleB)
	writeLanguageHint(&b, p.Language)
	b.WriteString("Return a valid JSON object of the form {\"content\": \"your reply\"}. No other text.")
	return b.String()
}

// NextQuestionPrompt builds the prompt that produces RoleA's follow-up
// question opening the next round. The model must answer with a JSON object
// {"question": "..."}.
func NextQuestionPrompt(p DialoguePromptParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are role-playing %q in the scenario %q, talking with %q.\n", p.RoleA, p.Scenario, p.RoleB)
	if p.SystemPrompt != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n", p.SystemPrompt)
	}
	fmt.Fprintf(&b, "Round %d of %d has just finished.\n", p.Round, p.Rounds)
	writeTranscript(&b, p.Transcript, p.RoleA, p.RoleB)
	fmt.Fprintf(&b, "Ask the next question as %s: it must follow naturally from the conversation and must not repeat an earlier question.\n", p.RoleA)
	writeLanguageHint(&b, p.Language)
	b.WriteString("Return a valid JSON object of the form {\"question\": \"your question\"}. No other text.")
	return b.String()
}

func writeTranscript(b *strings.Builder, transcript []Message, roleA, roleB string) {
	if len(transcript) == 0 {
		return
	}
	b.WriteString("Conversation so far:\n")
	for _, m := range transcript {
		speaker := roleA
		if m.Role == "assistant" {
			speaker = roleB
		}
		fmt.Fprintf(b, "%s: %s\n", speaker, m.Content)
	}
}

func writeLanguageHint(b *strings.Builder, language string) {
	if language == "" || language == "en" {
		return
	}
	fmt.Fprintf(b, "Write all generated text in the language %q.\n", language)
}
