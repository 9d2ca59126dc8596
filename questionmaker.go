package triviaquiz

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultMaxDuplicateRetries = 5
	// recentQuestionsInPrompt bounds how many seen questions are listed in the prompt
	recentQuestionsInPrompt = 10
)

// Generator asks the model for a question in one category
type Generator struct {
	llm        Completer
	limiter    *RateLimiter
	format     QuestionFormat
	maxRetries int
	tempMin    float32
	tempMax    float32
	randFloat  func() float64
	now        func() time.Time
	logger     *zap.Logger
}

// GeneratorOptions configures a Generator. Zero values take defaults.
type GeneratorOptions struct {
	Format         QuestionFormat
	MaxRetries     int
	TemperatureMin float32
	TemperatureMax float32
}

// NewGenerator creates a question generator sharing limiter with other model callers
func NewGenerator(llm Completer, limiter *RateLimiter, opts GeneratorOptions, logger *zap.Logger) *Generator {
	if opts.Format == "" {
		opts.Format = FormatMultiple
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxDuplicateRetries
	}
	if opts.TemperatureMin == 0 && opts.TemperatureMax == 0 {
		opts.TemperatureMin, opts.TemperatureMax = 0.8, 1.2
	}
	return &Generator{
		llm:        llm,
		limiter:    limiter,
		format:     opts.Format,
		maxRetries: opts.MaxRetries,
		tempMin:    opts.TemperatureMin,
		tempMax:    opts.TemperatureMax,
		randFloat:  rand.Float64,
		now:        time.Now,
		logger:     orNop(logger),
	}
}

// Generate returns a question for category that is not in seen, and adds
// it to seen. Failures come back as a question with Err set. After
// maxRetries duplicate retries the last duplicate is returned with
// ErrDuplicateQuestionExhausted.
func (g *Generator) Generate(ctx context.Context, category Category, seen *SeenQuestionSet) Question {
	if seen == nil {
		seen = NewSeenQuestionSet()
	}

	var last Question
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		q := g.generateOnce(ctx, category, seen)
		if q.Err != nil {
			g.logger.Warn("Question generation failed",
				zap.String("category", string(category)),
				zap.Int("attempt", attempt+1),
				zap.String("kind", errorKind(q.Err)),
				zap.Error(q.Err),
			)
			return q
		}

		if seen.Add(q.Text) {
			g.logger.Info("Question generated",
				zap.String("category", string(category)),
				zap.String("question_id", q.ID),
				zap.Int("attempt", attempt+1),
			)
			return q
		}

		duplicateRetries.Inc()
		g.logger.Debug("Discarding duplicate question",
			zap.String("category", string(category)),
			zap.Int("attempt", attempt+1),
			zap.String("text", q.Text),
		)
		last = q
	}

	last.Err = fmt.Errorf("%w: %d retries", ErrDuplicateQuestionExhausted, g.maxRetries)
	return last
}

func (g *Generator) generateOnce(ctx context.Context, category Category, seen *SeenQuestionSet) Question {
	prompt := g.buildPrompt(category, seen.Texts())
	temperature := g.temperature()

	g.logger.Debug("Requesting question",
		zap.String("category", string(category)),
		zap.Float32("temperature", temperature),
		zap.String("prompt", prompt),
	)

	text, err := invokeModel(ctx, g.llm, g.limiter, "question", prompt, temperature)
	if err != nil {
		return g.stamp(errorQuestion(err), category)
	}

	return g.stamp(ParseResponse(g.format, text), category)
}

func (g *Generator) stamp(q Question, category Category) Question {
	q.ID = uuid.NewString()
	q.Category = category
	q.CreatedAt = g.now()
	return q
}

func (g *Generator) temperature() float32 {
	if g.tempMax <= g.tempMin {
		return g.tempMin
	}
	return g.tempMin + float32(g.randFloat())*(g.tempMax-g.tempMin)
}

func (g *Generator) buildPrompt(category Category, asked []string) string {
	var sb strings.Builder

	switch g.format {
	case FormatSingle:
		sb.WriteString(fmt.Sprintf("Generate a unique, lesser-known quiz question about %s.\n", category))
		sb.WriteString("Provide the question and answer without explanation.\n")
		sb.WriteString("Write the question first, then the answer on its own line starting with \"Answer:\".\n")
	default:
		sb.WriteString(fmt.Sprintf("Generate a unique, lesser-known multiple-choice quiz question about %s.\n", category))
		sb.WriteString("Avoid the most common trivia; prefer surprising but verifiable facts.\n\n")
		sb.WriteString("Reply with exactly six lines and nothing else:\n")
		sb.WriteString("Q: <question>\n")
		sb.WriteString("A) <option>\n")
		sb.WriteString("B) <option>\n")
		sb.WriteString("C) <option>\n")
		sb.WriteString("D) <option>\n")
		sb.WriteString("Correct Answer: <letter of the correct option>\n")
	}

	if len(asked) > 0 {
		if len(asked) > recentQuestionsInPrompt {
			asked = asked[len(asked)-recentQuestionsInPrompt:]
		}
		sb.WriteString("\nThe question must be different from these already asked questions:\n")
		for _, text := range asked {
			sb.WriteString(fmt.Sprintf("- %s\n", text))
		}
	}

	return sb.String()
}

// errorQuestion is the placeholder shown when the model could not be used
func errorQuestion(err error) Question {
	return Question{
		Text:          UserMessage(err),
		CorrectAnswer: NotApplicable,
		Err:           err,
	}
}
