package triviaquiz

import (
	"strings"
	"time"
)

// DefaultQuestionTime is how long the player has to answer
const DefaultQuestionTime = 10 * time.Second

// Phase is the visible lifecycle step of a session
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseQuestionShown Phase = "question_shown"
	PhaseAnswered      Phase = "answered"
)

// SessionState is the whole state of one player's quiz. Transitions are
// value methods: each returns the state to keep, also when it returns an error.
type SessionState struct {
	Question   *Question
	UserAnswer string
	Outcome    Outcome // empty until the question is answered
	Score      int
	TotalAsked int
	Deadline   time.Time // zero when no timer runs
	ExtraInfo  string
	Seen       *SeenQuestionSet
}

// NewSessionState returns the idle state of a fresh session
func NewSessionState() SessionState {
	return SessionState{Seen: NewSeenQuestionSet()}
}

// Phase derives the lifecycle step
func (s SessionState) Phase() Phase {
	switch {
	case s.Question == nil:
		return PhaseIdle
	case s.Outcome != "":
		return PhaseAnswered
	default:
		return PhaseQuestionShown
	}
}

// InfoShown reports whether an explanation is attached
func (s SessionState) InfoShown() bool {
	return s.ExtraInfo != ""
}

// Begin shows q as a fresh question. Score carries over, TotalAsked grows by one.
// The timer only runs for questions the player can answer.
func (s SessionState) Begin(q Question, now time.Time, questionTime time.Duration) SessionState {
	if s.Seen == nil {
		s.Seen = NewSeenQuestionSet()
	}
	s.Question = &q
	s.UserAnswer = ""
	s.Outcome = ""
	s.ExtraInfo = ""
	s.Deadline = time.Time{}
	s.TotalAsked++
	if q.Playable() && questionTime > 0 {
		s.Deadline = now.Add(questionTime)
	}
	return s
}

// Expire moves an unanswered question to Answered once the deadline passed
func (s SessionState) Expire(now time.Time) SessionState {
	if s.Phase() != PhaseQuestionShown || s.Deadline.IsZero() || now.Before(s.Deadline) {
		return s
	}
	s.UserAnswer = ""
	s.Outcome = OutcomeTimeOver
	s.Deadline = time.Time{}
	return s
}

// Remaining is the time left to answer, zero when no timer runs
func (s SessionState) Remaining(now time.Time) time.Duration {
	if s.Phase() != PhaseQuestionShown || s.Deadline.IsZero() {
		return 0
	}
	if d := s.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Select records the player's answer. Only the first answer counts.
// For multiple choice questions answer may be the full option or its label.
func (s SessionState) Select(answer string, now time.Time) (SessionState, error) {
	s = s.Expire(now)
	if err := s.checkAnswerable(); err != nil {
		return s, err
	}

	q := *s.Question
	chosen := strings.TrimSpace(answer)
	if q.HasOptions() {
		idx, ok := matchOption(q.Options, chosen)
		if !ok {
			return s, ErrInvalidAnswer
		}
		chosen = q.Options[idx]
	} else if chosen == "" {
		return s, ErrInvalidAnswer
	}

	s.UserAnswer = chosen
	s.Deadline = time.Time{}
	if answerMatches(q, chosen) {
		s.Outcome = OutcomeCorrect
		s.Score++
	} else {
		s.Outcome = OutcomeIncorrect
	}
	return s, nil
}

// Reveal shows the answer without scoring
func (s SessionState) Reveal(now time.Time) (SessionState, error) {
	s = s.Expire(now)
	if err := s.checkAnswerable(); err != nil {
		return s, err
	}
	s.UserAnswer = ""
	s.Outcome = OutcomeRevealed
	s.Deadline = time.Time{}
	return s, nil
}

// WithInfo attaches an explanation. Only allowed once answered.
func (s SessionState) WithInfo(info string, now time.Time) (SessionState, error) {
	s = s.Expire(now)
	if s.Phase() != PhaseAnswered {
		if s.Phase() == PhaseIdle {
			return s, ErrNoActiveQuestion
		}
		return s, ErrNotAnswered
	}
	s.ExtraInfo = info
	return s, nil
}

// CorrectOption returns the option holding the correct answer, or the raw
// correct answer for option-less questions.
func (s SessionState) CorrectOption() string {
	if s.Question == nil {
		return ""
	}
	if idx, ok := matchOption(s.Question.Options, s.Question.CorrectAnswer); ok && s.Question.HasOptions() {
		return s.Question.Options[idx]
	}
	return s.Question.CorrectAnswer
}

func (s SessionState) checkAnswerable() error {
	switch s.Phase() {
	case PhaseIdle:
		return ErrNoActiveQuestion
	case PhaseAnswered:
		return ErrAlreadyAnswered
	}
	if !s.Question.Playable() {
		return ErrQuestionUnavailable
	}
	return nil
}

// SessionView is what the UI renders
type SessionView struct {
	Phase            Phase    `json:"phase"`
	Category         Category `json:"category,omitempty"`
	Question         string   `json:"question,omitempty"`
	Options          []string `json:"options,omitempty"`
	Playable         bool     `json:"playable"`
	Error            string   `json:"error,omitempty"`
	UserAnswer       string   `json:"user_answer,omitempty"`
	Outcome          Outcome  `json:"outcome,omitempty"`
	CorrectAnswer    string   `json:"correct_answer,omitempty"`
	Feedback         string   `json:"feedback,omitempty"`
	Score            int      `json:"score"`
	TotalAsked       int      `json:"total_asked"`
	RemainingSeconds int      `json:"remaining_seconds"`
	ExtraInfo        string   `json:"extra_info,omitempty"`
}

// View renders s at time now. The correct answer is only included once answered.
func (s SessionState) View(now time.Time) SessionView {
	s = s.Expire(now)
	v := SessionView{
		Phase:      s.Phase(),
		Score:      s.Score,
		TotalAsked: s.TotalAsked,
		ExtraInfo:  s.ExtraInfo,
	}
	if s.Question == nil {
		return v
	}

	q := s.Question
	v.Category = q.Category
	v.Question = q.Text
	v.Options = q.Options
	v.Playable = q.Playable()
	if q.Err != nil {
		v.Error = UserMessage(q.Err)
	}
	remaining := s.Remaining(now)
	v.RemainingSeconds = int((remaining + time.Second - 1) / time.Second)

	if v.Phase == PhaseAnswered {
		v.UserAnswer = s.UserAnswer
		v.Outcome = s.Outcome
		v.CorrectAnswer = s.CorrectOption()
		v.Feedback = feedback(s.Outcome, v.CorrectAnswer)
	}
	return v
}

func feedback(outcome Outcome, correct string) string {
	switch outcome {
	case OutcomeCorrect:
		return "Correct!"
	case OutcomeIncorrect:
		return "Incorrect. The correct answer is: " + correct
	case OutcomeTimeOver:
		return "Time over! The correct answer is: " + correct
	case OutcomeRevealed:
		return "Answer: " + correct
	}
	return ""
}

// RoundFromState builds the history record of an answered question
func RoundFromState(sessionID string, s SessionState, now time.Time) (Round, bool) {
	if s.Phase() != PhaseAnswered {
		return Round{}, false
	}
	q := s.Question
	return Round{
		SessionID:     sessionID,
		QuestionID:    q.ID,
		Category:      q.Category,
		Text:          q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		UserAnswer:    s.UserAnswer,
		Outcome:       s.Outcome,
		AnsweredAt:    now,
	}, true
}
