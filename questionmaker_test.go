package triviaquiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestGenerator(llm Completer, limiter *RateLimiter, opts GeneratorOptions) *Generator {
	g := NewGenerator(llm, limiter, opts, nil)
	g.randFloat = func() float64 { return 0.5 }
	return g
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("new question is added to seen", func(t *testing.T) {
		llm := NewMockCompleter(t)
		llm.On("Complete", mock.Anything, mock.Anything, mock.AnythingOfType("float32")).Return(sampleMultipleChoice, nil).Once()

		seen := NewSeenQuestionSet()
		g := newTestGenerator(llm, nil, GeneratorOptions{})
		q := g.Generate(ctx, CategoryCricket, seen)

		assert.NoError(t, q.Err)
		assert.NotEmpty(t, q.ID)
		assert.Equal(t, CategoryCricket, q.Category)
		assert.Len(t, q.Options, 4)
		assert.False(t, q.CreatedAt.IsZero())
		assert.True(t, seen.Contains(q.Text))
	})

	t.Run("duplicate is retried", func(t *testing.T) {
		other := strings.Replace(sampleMultipleChoice, "first", "second", 1)
		llm := NewMockCompleter(t)
		llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(sampleMultipleChoice, nil).Once()
		llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(other, nil).Once()

		seen := NewSeenQuestionSet()
		seen.Add("Which country won the first Cricket World Cup?")
		q := newTestGenerator(llm, nil, GeneratorOptions{}).Generate(ctx, CategoryCricket, seen)

		assert.NoError(t, q.Err)
		assert.Equal(t, "Which country won the second Cricket World Cup?", q.Text)
		assert.Equal(t, 2, seen.Len())
	})

	t.Run("duplicate retries are bounded", func(t *testing.T) {
		llm := NewMockCompleter(t)
		llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(sampleMultipleChoice, nil).Times(3)

		seen := NewSeenQuestionSet()
		seen.Add("Which country won the first Cricket World Cup?")
		q := newTestGenerator(llm, nil, GeneratorOptions{MaxRetries: 2}).Generate(ctx, CategoryCricket, seen)

		assert.True(t, errors.Is(q.Err, ErrDuplicateQuestionExhausted))
		assert.True(t, q.Playable())
		assert.Equal(t, "Which country won the first Cricket World Cup?", q.Text)
		assert.Equal(t, "B", q.CorrectAnswer)
		assert.Equal(t, 1, seen.Len())
	})

	t.Run("rate limited without calling the model", func(t *testing.T) {
		llm := NewMockCompleter(t)
		limiter := NewRateLimiter(1, time.Hour, nil)
		defer limiter.Stop()
		assert.NoError(t, limiter.TryAcquire())

		q := newTestGenerator(llm, limiter, GeneratorOptions{}).Generate(ctx, CategoryScience, NewSeenQuestionSet())

		assert.True(t, errors.Is(q.Err, ErrRateLimitExceeded))
		assert.Equal(t, "API rate limit reached. Please wait a minute and try again.", q.Text)
		assert.Empty(t, q.Options)
		assert.Equal(t, NotApplicable, q.CorrectAnswer)
		assert.False(t, q.Playable())
		llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider error", func(t *testing.T) {
		llm := NewMockCompleter(t)
		llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
			Return("", fmt.Errorf("%w: dial tcp: refused", ErrProviderConnectivity)).Once()

		seen := NewSeenQuestionSet()
		q := newTestGenerator(llm, nil, GeneratorOptions{}).Generate(ctx, CategoryBollywood, seen)

		assert.True(t, errors.Is(q.Err, ErrProviderConnectivity))
		assert.Equal(t, UserMessage(q.Err), q.Text)
		assert.Equal(t, CategoryBollywood, q.Category)
		assert.Zero(t, seen.Len())
	})

	t.Run("malformed response is not retried", func(t *testing.T) {
		llm := NewMockCompleter(t)
		llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("garbage text", nil).Once()

		seen := NewSeenQuestionSet()
		q := newTestGenerator(llm, nil, GeneratorOptions{}).Generate(ctx, CategoryScience, seen)

		assert.True(t, errors.Is(q.Err, ErrMalformedResponse))
		assert.Equal(t, ErrorOptions, q.Options)
		assert.Equal(t, NotApplicable, q.CorrectAnswer)
		assert.Zero(t, seen.Len())
	})

	t.Run("empty single answer question is not retried", func(t *testing.T) {
		llm := NewMockCompleter(t)
		llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("Answer: Valmiki", nil).Once()

		seen := NewSeenQuestionSet()
		q := newTestGenerator(llm, nil, GeneratorOptions{Format: FormatSingle}).
			Generate(ctx, CategoryHinduMythology, seen)

		assert.True(t, errors.Is(q.Err, ErrMalformedResponse))
		assert.False(t, q.Playable())
		assert.Equal(t, NotApplicable, q.CorrectAnswer)
		assert.Zero(t, seen.Len())
		llm.AssertNumberOfCalls(t, "Complete", 1)
	})

	t.Run("single answer format", func(t *testing.T) {
		llm := NewMockCompleter(t)
		llm.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "Answer:") && strings.Contains(prompt, string(CategoryHinduMythology))
		}), mock.Anything).Return("Who wrote the Ramayana?\nAnswer: Valmiki", nil).Once()

		q := newTestGenerator(llm, nil, GeneratorOptions{Format: FormatSingle}).
			Generate(ctx, CategoryHinduMythology, NewSeenQuestionSet())

		assert.NoError(t, q.Err)
		assert.Empty(t, q.Options)
		assert.Equal(t, "Valmiki", q.CorrectAnswer)
	})
}

func TestGenerator_BuildPrompt(t *testing.T) {
	g := newTestGenerator(nil, nil, GeneratorOptions{})

	prompt := g.buildPrompt(CategoryScience, nil)
	assert.Contains(t, prompt, "multiple-choice quiz question about Science")
	assert.Contains(t, prompt, "Correct Answer:")
	assert.NotContains(t, prompt, "already asked")

	var asked []string
	for i := 0; i < 15; i++ {
		asked = append(asked, fmt.Sprintf("Question number %02d?", i))
	}
	prompt = g.buildPrompt(CategoryScience, asked)
	assert.Contains(t, prompt, "already asked")
	assert.NotContains(t, prompt, "Question number 04?")
	assert.Contains(t, prompt, "Question number 05?")
	assert.Contains(t, prompt, "Question number 14?")
}

func TestGenerator_Temperature(t *testing.T) {
	g := NewGenerator(nil, nil, GeneratorOptions{TemperatureMin: 0.8, TemperatureMax: 1.2}, nil)

	g.randFloat = func() float64 { return 0 }
	assert.InDelta(t, 0.8, g.temperature(), 1e-6)
	g.randFloat = func() float64 { return 0.999 }
	assert.InDelta(t, 1.2, g.temperature(), 1e-3)

	fixed := NewGenerator(nil, nil, GeneratorOptions{TemperatureMin: 0.9, TemperatureMax: 0.9}, nil)
	assert.InDelta(t, 0.9, fixed.temperature(), 1e-6)
}
