package triviaquiz

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Game runs the quiz transitions against the model. It holds no session
// state; callers pass a SessionState in and keep the one returned.
type Game struct {
	generator    *Generator
	explainer    *Explainer
	limiter      *RateLimiter
	questionTime time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// GameOptions configures a Game
type GameOptions struct {
	MaxCallsPerWindow int
	RateWindow        time.Duration
	QuestionTime      time.Duration
	Generator         GeneratorOptions
}

// GameOptionsFromConfig maps the runtime configuration onto GameOptions
func GameOptionsFromConfig(cfg *Config) GameOptions {
	return GameOptions{
		MaxCallsPerWindow: cfg.MaxCallsPerWindow,
		RateWindow:        cfg.RateWindow,
		QuestionTime:      cfg.QuestionTime,
		Generator: GeneratorOptions{
			Format:         cfg.Format,
			MaxRetries:     cfg.MaxDuplicateRetries,
			TemperatureMin: cfg.TemperatureMin,
			TemperatureMax: cfg.TemperatureMax,
		},
	}
}

// NewGame wires a rate limiter, generator and explainer around llm
func NewGame(llm Completer, opts GameOptions, logger *zap.Logger) *Game {
	logger = orNop(logger)
	if opts.QuestionTime <= 0 {
		opts.QuestionTime = DefaultQuestionTime
	}
	limiter := NewRateLimiter(opts.MaxCallsPerWindow, opts.RateWindow, logger.Named("ratelimit"))
	return &Game{
		generator:    NewGenerator(llm, limiter, opts.Generator, logger.Named("generator")),
		explainer:    NewExplainer(llm, limiter, logger.Named("explainer")),
		limiter:      limiter,
		questionTime: opts.QuestionTime,
		now:          time.Now,
		logger:       logger,
	}
}

// Generate asks for a new question and shows it, abandoning any previous one
func (g *Game) Generate(ctx context.Context, s SessionState, category Category) SessionState {
	if s.Seen == nil {
		s.Seen = NewSeenQuestionSet()
	}
	prev := s.Expire(g.now())
	g.countFinished(s, prev)

	q := g.generator.Generate(ctx, category, s.Seen)
	return prev.Begin(q, g.now(), g.questionTime)
}

// Select answers the current question
func (g *Game) Select(s SessionState, answer string) (SessionState, error) {
	next, err := s.Select(answer, g.now())
	g.countFinished(s, next)
	return next, err
}

// Reveal shows the answer without scoring
func (g *Game) Reveal(s SessionState) (SessionState, error) {
	next, err := s.Reveal(g.now())
	g.countFinished(s, next)
	return next, err
}

// Refresh applies the timeout if the deadline has passed
func (g *Game) Refresh(s SessionState) SessionState {
	next := s.Expire(g.now())
	g.countFinished(s, next)
	return next
}

// MoreInfo fetches an explanation for the answered question. It can be
// called again to replace the explanation.
func (g *Game) MoreInfo(ctx context.Context, s SessionState) (SessionState, error) {
	current := g.Refresh(s)
	if current.Phase() != PhaseAnswered {
		return current.WithInfo("", g.now())
	}

	answer := current.CorrectOption()
	info := g.explainer.Explain(ctx, current.Question.Text, answer)
	return current.WithInfo(info, g.now())
}

// View renders the session at the current time
func (g *Game) View(s SessionState) SessionView {
	return s.View(g.now())
}

// Now is the clock used for all transitions
func (g *Game) Now() time.Time {
	return g.now()
}

// RateLimit reports the shared limiter usage
func (g *Game) RateLimit() RateLimitSnapshot {
	return g.limiter.Snapshot()
}

// Close stops the rate limiter timer
func (g *Game) Close() {
	g.limiter.Stop()
}

// countFinished records the outcome metric when a transition answered a question
func (g *Game) countFinished(before, after SessionState) {
	if before.Phase() == PhaseQuestionShown && after.Phase() == PhaseAnswered && after.Question == before.Question {
		RecordOutcome(after.Outcome)
		g.logger.Debug("Question finished",
			zap.String("question_id", after.Question.ID),
			zap.String("outcome", string(after.Outcome)),
			zap.Int("score", after.Score),
			zap.Int("total_asked", after.TotalAsked),
		)
	}
}
