package triviaquiz

import (
	"errors"
	"time"
)

// Category is one of the fixed quiz subjects offered to the player
type Category string

const (
	CategoryHinduMythology Category = "Hindu Mythology"
	CategoryCricket        Category = "Cricket"
	CategoryBusiness       Category = "Business Trivia"
	CategoryBollywood      Category = "Bollywood"
	CategoryScience        Category = "Science"
)

// Categories lists the selectable categories in display order
var Categories = []Category{
	CategoryHinduMythology,
	CategoryCricket,
	CategoryBusiness,
	CategoryBollywood,
	CategoryScience,
}

// ParseCategory validates a user supplied category name
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// QuestionFormat selects which layout the model is asked to produce
type QuestionFormat string

const (
	// FormatSingle is "question ... Answer: ..." with no options
	FormatSingle QuestionFormat = "single"
	// FormatMultiple is a question line, four labeled options and a correct answer line
	FormatMultiple QuestionFormat = "multiple"
)

const (
	// NotApplicable is the correct answer of a question that failed to generate
	NotApplicable = "N/A"
	// AnswerNotAvailable is the correct answer when a single-answer response has no marker
	AnswerNotAvailable = "Answer not available"
)

// ErrorOptions are the placeholder options shown when a four-option response is malformed
var ErrorOptions = []string{"A) Error", "B) Error", "C) Error", "D) Error"}

// Question represents a single generated trivia question
type Question struct {
	ID            string    `json:"id"`
	Category      Category  `json:"category"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`        // empty or exactly four labeled entries
	CorrectAnswer string    `json:"correct_answer"` // label ("A") or free text
	RawResponse   string    `json:"raw_response"`
	CreatedAt     time.Time `json:"created_at"`

	// Err is set when the question is a placeholder for a failure.
	Err error `json:"-"`
}

// Playable reports whether the user can answer the question. A question
// returned after the duplicate retry cap is still a real question.
func (q Question) Playable() bool {
	return q.Err == nil || errors.Is(q.Err, ErrDuplicateQuestionExhausted)
}

// HasOptions reports whether the question is multiple choice
func (q Question) HasOptions() bool {
	return len(q.Options) > 0
}

// Outcome is how a question ended
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeTimeOver  Outcome = "time_over"
	OutcomeRevealed  Outcome = "revealed"
)

// Round is a finished question as stored in the history database
type Round struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	QuestionID    string    `json:"question_id"`
	Category      Category  `json:"category"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
	UserAnswer    string    `json:"user_answer"`
	Outcome       Outcome   `json:"outcome"`
	AnsweredAt    time.Time `json:"answered_at"`
}
