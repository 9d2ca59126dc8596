package triviaquiz

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	singleAnswerMarkers = []string{"Answer:", "A:"}
	labelPattern        = regexp.MustCompile(`^\(?([A-Da-d])(?:[).:\]]|\s|$)`)
)

// ParseSingleAnswer reads a "question ... Answer: ..." response. Without a
// marker the whole text is the question and the answer is AnswerNotAvailable.
// An empty question part yields an error question.
func ParseSingleAnswer(raw string) Question {
	q := Question{RawResponse: raw}

	idx, marker := -1, ""
	for _, m := range singleAnswerMarkers {
		if i := strings.Index(raw, m); i >= 0 && (idx < 0 || i < idx) {
			idx, marker = i, m
		}
	}
	if idx < 0 {
		q.Text = strings.TrimSpace(raw)
		q.CorrectAnswer = AnswerNotAvailable
	} else {
		q.Text = strings.TrimSpace(raw[:idx])
		q.CorrectAnswer = strings.TrimSpace(raw[idx+len(marker):])
	}
	if q.Text == "" {
		err := fmt.Errorf("%w: empty question", ErrMalformedResponse)
		return Question{
			Text:          UserMessage(err),
			CorrectAnswer: NotApplicable,
			RawResponse:   raw,
			Err:           err,
		}
	}
	if q.CorrectAnswer == "" {
		q.CorrectAnswer = AnswerNotAvailable
	}
	return q
}

// ParseMultipleChoice reads the six line layout:
//
//	Q: <question>
//	A) ...
//	B) ...
//	C) ...
//	D) ...
//	Correct Answer: <label>
//
// Malformed input yields an error question, never a panic.
func ParseMultipleChoice(raw string) Question {
	lines := nonEmptyLines(raw)
	if len(lines) < 6 {
		return malformedQuestion(raw, fmt.Sprintf("expected 6 non-empty lines, got %d", len(lines)))
	}

	text := strings.TrimSpace(strings.TrimPrefix(lines[0], "Q:"))
	options := make([]string, 4)
	copy(options, lines[1:5])
	correct := strings.TrimSpace(strings.TrimPrefix(lines[5], "Correct Answer:"))

	if text == "" || correct == "" {
		return malformedQuestion(raw, "empty question or answer line")
	}
	if _, ok := matchOption(options, correct); !ok {
		return malformedQuestion(raw, fmt.Sprintf("correct answer %q matches no option", correct))
	}

	return Question{
		Text:          text,
		Options:       options,
		CorrectAnswer: correct,
		RawResponse:   raw,
	}
}

// ParseResponse dispatches on the requested format
func ParseResponse(format QuestionFormat, raw string) Question {
	if format == FormatSingle {
		return ParseSingleAnswer(raw)
	}
	return ParseMultipleChoice(raw)
}

func malformedQuestion(raw, reason string) Question {
	err := fmt.Errorf("%w: %s", ErrMalformedResponse, reason)
	return Question{
		Text:          UserMessage(err),
		Options:       append([]string(nil), ErrorOptions...),
		CorrectAnswer: NotApplicable,
		RawResponse:   raw,
		Err:           err,
	}
}

func nonEmptyLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// optionLabel returns the upper-case leading label of s ("A" for "A) India",
// "a." or "(A)"), or "" when s has none.
func optionLabel(s string) string {
	m := labelPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// optionBody strips the label from an option
func optionBody(s string) string {
	s = strings.TrimSpace(s)
	if loc := labelPattern.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// matchOption finds the option an answer refers to. The full option text
// wins over a leading label, so "A Passage to India" is not read as "A".
func matchOption(options []string, answer string) (int, bool) {
	want := normalizeText(answer)
	if want == "" {
		return -1, false
	}
	for i, opt := range options {
		if normalizeText(opt) == want || normalizeText(optionBody(opt)) == want {
			return i, true
		}
	}

	if label := optionLabel(answer); label != "" {
		for i, opt := range options {
			if optionLabel(opt) == label {
				return i, true
			}
		}
	}

	body := normalizeText(optionBody(answer))
	for i, opt := range options {
		if normalizeText(optionBody(opt)) == body {
			return i, true
		}
	}
	return -1, false
}

// answerMatches reports whether the chosen answer is the correct one
func answerMatches(q Question, chosen string) bool {
	if !q.HasOptions() {
		return normalizeText(chosen) != "" && normalizeText(chosen) == normalizeText(q.CorrectAnswer)
	}
	correct, ok := matchOption(q.Options, q.CorrectAnswer)
	if !ok {
		return false
	}
	picked, ok := matchOption(q.Options, chosen)
	return ok && picked == correct
}
