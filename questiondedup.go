package triviaquiz

import "sync"

// SeenQuestionSet holds the question texts already asked in one session.
// It only grows; comparison ignores case and repeated whitespace.
type SeenQuestionSet struct {
	mu    sync.RWMutex
	index map[string]struct{}
	texts []string // insertion order
}

// NewSeenQuestionSet creates an empty set
func NewSeenQuestionSet() *SeenQuestionSet {
	return &SeenQuestionSet{
		index: make(map[string]struct{}),
	}
}

// Contains reports whether text was already asked
func (s *SeenQuestionSet) Contains(text string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[normalizeText(text)]
	return ok
}

// Add records text and reports whether it was new
func (s *SeenQuestionSet) Add(text string) bool {
	key := normalizeText(text)
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.texts = append(s.texts, text)
	return true
}

// Len returns the number of distinct questions seen
func (s *SeenQuestionSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.texts)
}

// Texts returns the seen questions in the order they were asked
func (s *SeenQuestionSet) Texts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}
