package triviaquiz

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCompleter is a testify mock of Completer
type MockCompleter struct {
	mock.Mock
}

func NewMockCompleter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCompleter {
	m := &MockCompleter{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	args := m.Called(ctx, prompt, temperature)
	return args.String(0), args.Error(1)
}
