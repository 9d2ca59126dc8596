package triviaquiz

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const explanationTemperature = 0.7

// Explainer fetches background detail for a question
type Explainer struct {
	llm     Completer
	limiter *RateLimiter
	logger  *zap.Logger
}

// NewExplainer creates an explainer sharing limiter with the generator
func NewExplainer(llm Completer, limiter *RateLimiter, logger *zap.Logger) *Explainer {
	return &Explainer{
		llm:     llm,
		limiter: limiter,
		logger:  orNop(logger),
	}
}

// Explain returns the model's explanation of question, mentioning
// correctAnswer when it is known. Failures come back as a readable message.
func (e *Explainer) Explain(ctx context.Context, question, correctAnswer string) string {
	if strings.TrimSpace(question) == "" {
		return "There is no question to explain yet."
	}

	prompt := e.buildPrompt(question, correctAnswer)
	text, err := invokeModel(ctx, e.llm, e.limiter, "explanation", prompt, explanationTemperature)
	if err != nil {
		e.logger.Warn("Explanation failed", zap.String("kind", errorKind(err)), zap.Error(err))
		return "Could not fetch more info. " + UserMessage(err)
	}
	return text
}

func (e *Explainer) buildPrompt(question, correctAnswer string) string {
	var sb strings.Builder

	sb.WriteString("Give a detailed explanation and background for this quiz question.\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s\n", question))
	if knownAnswer(correctAnswer) {
		sb.WriteString(fmt.Sprintf("Correct answer: %s\n", correctAnswer))
		sb.WriteString("\nExplain why this answer is correct and add interesting context.\n")
	} else {
		sb.WriteString("\nExplain the facts behind the question and add interesting context.\n")
	}
	sb.WriteString("Keep it to a few short paragraphs of plain text.")

	return sb.String()
}

func knownAnswer(answer string) bool {
	answer = strings.TrimSpace(answer)
	return answer != "" && answer != NotApplicable && answer != AnswerNotAvailable
}
