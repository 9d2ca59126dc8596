package triviaquiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGame(t *testing.T, llm Completer, opts GameOptions) (*Game, *fakeClock) {
	clock := &fakeClock{now: t0}
	game := NewGame(llm, opts, nil)
	game.now = clock.Now
	t.Cleanup(game.Close)
	return game, clock
}

func TestGame_QuestionFlow(t *testing.T) {
	ctx := context.Background()
	llm := NewMockCompleter(t)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(sampleMultipleChoice, nil).Once()
	llm.On("Complete", mock.Anything, mock.Anything, float32(explanationTemperature)).Return("The West Indies won in 1975.", nil).Once()

	game, clock := newTestGame(t, llm, GameOptions{})

	s := game.Generate(ctx, NewSessionState(), CategoryCricket)
	assert.Equal(t, PhaseQuestionShown, s.Phase())
	assert.Equal(t, 1, s.TotalAsked)
	assert.Equal(t, t0.Add(DefaultQuestionTime), s.Deadline)

	_, err := game.MoreInfo(ctx, s)
	assert.True(t, errors.Is(err, ErrNotAnswered))

	clock.Advance(2 * time.Second)
	s, err = game.Select(s, "B")
	assert.NoError(t, err)
	assert.Equal(t, 1, s.Score)

	s, err = game.MoreInfo(ctx, s)
	assert.NoError(t, err)
	assert.Equal(t, "The West Indies won in 1975.", s.ExtraInfo)
	assert.True(t, s.InfoShown())

	view := game.View(s)
	assert.Equal(t, PhaseAnswered, view.Phase)
	assert.Equal(t, "The West Indies won in 1975.", view.ExtraInfo)
	assert.Equal(t, 2, game.RateLimit().Used)
}

func TestGame_Timeout(t *testing.T) {
	ctx := context.Background()
	llm := NewMockCompleter(t)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(sampleMultipleChoice, nil).Once()

	game, clock := newTestGame(t, llm, GameOptions{QuestionTime: 5 * time.Second})

	s := game.Generate(ctx, NewSessionState(), CategoryCricket)
	clock.Advance(6 * time.Second)

	s = game.Refresh(s)
	assert.Equal(t, OutcomeTimeOver, s.Outcome)

	s, err := game.Select(s, "B")
	assert.True(t, errors.Is(err, ErrAlreadyAnswered))
	assert.Equal(t, 0, s.Score)
}

func TestGame_GenerateKeepsScoreAndSeen(t *testing.T) {
	ctx := context.Background()
	second := "Q: Who scored the first ODI century?\nA) Dennis Amiss\nB) Viv Richards\nC) Sunil Gavaskar\nD) Clive Lloyd\nCorrect Answer: A"
	llm := NewMockCompleter(t)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(sampleMultipleChoice, nil).Once()
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(second, nil).Once()

	game, _ := newTestGame(t, llm, GameOptions{})

	s := game.Generate(ctx, NewSessionState(), CategoryCricket)
	s, err := game.Select(s, "B")
	assert.NoError(t, err)

	s = game.Generate(ctx, s, CategoryCricket)
	assert.Equal(t, PhaseQuestionShown, s.Phase())
	assert.Equal(t, 1, s.Score)
	assert.Equal(t, 2, s.TotalAsked)
	assert.Equal(t, 2, s.Seen.Len())
	assert.Empty(t, s.ExtraInfo)
}

func TestGame_RateLimitedQuestion(t *testing.T) {
	ctx := context.Background()
	llm := NewMockCompleter(t)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(sampleMultipleChoice, nil).Once()

	game, _ := newTestGame(t, llm, GameOptions{MaxCallsPerWindow: 1, RateWindow: time.Hour})

	s := game.Generate(ctx, NewSessionState(), CategoryCricket)
	assert.NoError(t, s.Question.Err)

	s = game.Generate(ctx, s, CategoryScience)
	assert.True(t, errors.Is(s.Question.Err, ErrRateLimitExceeded))
	assert.Equal(t, 2, s.TotalAsked)
	assert.True(t, s.Deadline.IsZero())

	view := game.View(s)
	assert.False(t, view.Playable)
	assert.Equal(t, "API rate limit reached. Please wait a minute and try again.", view.Question)
	assert.Equal(t, view.Question, view.Error)

	_, err := game.Select(s, "A")
	assert.True(t, errors.Is(err, ErrQuestionUnavailable))
}

func TestGameOptionsFromConfig(t *testing.T) {
	cfg := &Config{
		MaxCallsPerWindow:   7,
		RateWindow:          30 * time.Second,
		QuestionTime:        15 * time.Second,
		Format:              FormatSingle,
		MaxDuplicateRetries: 3,
		TemperatureMin:      0.5,
		TemperatureMax:      0.9,
	}

	opts := GameOptionsFromConfig(cfg)
	assert.Equal(t, 7, opts.MaxCallsPerWindow)
	assert.Equal(t, 30*time.Second, opts.RateWindow)
	assert.Equal(t, 15*time.Second, opts.QuestionTime)
	assert.Equal(t, FormatSingle, opts.Generator.Format)
	assert.Equal(t, 3, opts.Generator.MaxRetries)
	assert.Equal(t, float32(0.5), opts.Generator.TemperatureMin)
}
