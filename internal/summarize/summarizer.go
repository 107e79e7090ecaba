package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/issdc/missionchat/internal/session"
	"github.com/issdc/missionchat/pkg/utils"
)

// warningPrefix marks answers produced from a gateway failure instead of the model.
const warningPrefix = "⚠️ Error: "

const promptTemplate = `You are a helpful assistant for the Indian Space Science Data Centre (ISSDC).
Answer the user's question based only on the mission-related context below.
Avoid unnecessary repetition and be concise.

### Context:
%s

### Previous Question:
%s

### Current Question:
%s

### Answer:`

// Summarizer builds summarization prompts and converts every backend failure
// into a warning string. Callers always get text back; the request itself
// still succeeds at the transport layer when the model does not.
type Summarizer struct {
	client      Client
	blendBudget int
}

// NewSummarizer wraps client. blendBudget caps the blended previous+current
// context, in characters.
func NewSummarizer(client Client, blendBudget int) *Summarizer {
	return &Summarizer{client: client, blendBudget: blendBudget}
}

// BlendContext concatenates the previous turn's context ahead of the current
// retrieved context and clips the result to the blend budget.
func (s *Summarizer) BlendContext(previous, current string) string {
	blended := strings.TrimSpace(previous + "\n\n" + current)
	return utils.Clip(blended, s.blendBudget)
}

// BuildPrompt assembles the full prompt from the blended context, the
// previous turn's question, and the current question.
func (s *Summarizer) BuildPrompt(blendedContext, previousQuestion, question string) string {
	return fmt.Sprintf(promptTemplate, blendedContext, previousQuestion, question)
}

// Summarize answers question from contextText, carrying memory from the
// previous turn. Backend failures are absorbed: the returned string is either
// the model's answer or a warning-prefixed description of the failure.
func (s *Summarizer) Summarize(ctx context.Context, contextText, question string, memory session.Memory) string {
	blended := s.BlendContext(memory.LastContext, contextText)
	prompt := s.BuildPrompt(blended, memory.LastQuestion, question)
	answer, err := s.client.Generate(ctx, prompt)
	if err != nil {
		return warningPrefix + err.Error()
	}
	return answer
}

// IsWarning reports whether answer was produced from a gateway failure.
func IsWarning(answer string) bool {
	return strings.HasPrefix(answer, warningPrefix)
}
