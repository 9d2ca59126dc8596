package triviaquiz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLLMLogger_Transcript(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "transcripts")
	ll, err := NewLLMLogger(dir, "session-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "session-1.log"), ll.Path())

	llm := NewMockCompleter(t)
	llm.On("Complete", mock.Anything, "first prompt", float32(0.9)).Return("first reply", nil).Once()
	llm.On("Complete", mock.Anything, "second prompt", float32(0.7)).Return("", errors.New("boom")).Once()

	c := WithTranscript(llm, ll)
	reply, err := c.Complete(context.Background(), "first prompt", 0.9)
	assert.NoError(t, err)
	assert.Equal(t, "first reply", reply)
	_, err = c.Complete(context.Background(), "second prompt", 0.7)
	assert.EqualError(t, err, "boom")

	require.NoError(t, ll.Close())
	assert.NoError(t, ll.Close())
	ll.Logf("ignored after close\n")

	data, err := os.ReadFile(ll.Path())
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Session ID: session-1")
	assert.Contains(t, content, "LLM REQUEST (temperature 0.90)")
	assert.Contains(t, content, "first prompt")
	assert.Contains(t, content, "first reply")
	assert.Contains(t, content, "Error: boom")
	assert.Contains(t, content, "Session Complete")
	assert.NotContains(t, content, "ignored after close")
}

func TestWithTranscript_NilLogger(t *testing.T) {
	llm := NewMockCompleter(t)
	assert.Same(t, llm, WithTranscript(llm, nil))
}
