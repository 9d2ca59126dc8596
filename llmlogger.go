package triviaquiz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes every model exchange of one session to a transcript file
type LLMLogger struct {
	file      *os.File
	path      string
	mu        sync.Mutex
	sessionID string
}

// NewLLMLogger creates <dir>/<sessionID>.log
func NewLLMLogger(dir, sessionID string) (*LLMLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s.log", sessionID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript file: %w", err)
	}

	ll := &LLMLogger{
		file:      file,
		path:      filename,
		sessionID: sessionID,
	}

	ll.Logf("=== Trivia Session Transcript ===\n")
	ll.Logf("Session ID: %s\n", sessionID)
	ll.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	ll.Logf("=================================\n\n")

	return ll, nil
}

// Logf writes a timestamped entry
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.writeLocked(format, args...)
}

func (ll *LLMLogger) writeLocked(format string, args ...interface{}) {
	if ll.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(ll.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	ll.file.Sync()
}

// LogLLMRequest logs a prompt
func (ll *LLMLogger) LogLLMRequest(temperature float32, prompt string) {
	ll.Logf("=== LLM REQUEST (temperature %.2f) ===\n", temperature)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs a reply or the error that replaced it
func (ll *LLMLogger) LogLLMResponse(response string, err error) {
	ll.Logf("=== LLM RESPONSE ===\n")
	if err != nil {
		ll.Logf("Error: %v\n", err)
	} else {
		ll.Logf("Response:\n%s\n", response)
	}
	ll.Logf("======================\n\n")
}

// Path returns the transcript file name
func (ll *LLMLogger) Path() string {
	return ll.path
}

// Close closes the transcript file
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file == nil {
		return nil
	}
	ll.writeLocked("=== Session Complete ===\n")
	ll.writeLocked("Completed: %s\n", time.Now().Format(time.RFC3339))
	err := ll.file.Close()
	ll.file = nil
	return err
}

// transcriptCompleter records every exchange of the wrapped Completer
type transcriptCompleter struct {
	inner  Completer
	logger *LLMLogger
}

// WithTranscript wraps c so each prompt and reply is written to logger
func WithTranscript(c Completer, logger *LLMLogger) Completer {
	if logger == nil {
		return c
	}
	return &transcriptCompleter{inner: c, logger: logger}
}

func (t *transcriptCompleter) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	t.logger.LogLLMRequest(temperature, prompt)
	resp, err := t.inner.Complete(ctx, prompt, temperature)
	t.logger.LogLLMResponse(resp, err)
	return resp, err
}
