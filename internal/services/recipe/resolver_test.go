package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListModels(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

var testPreferences = []string{"llama3.2", "llama3", "mistral"}

func TestSelectModel(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		want      string
	}{
		{"preference beats listing order", []string{"mistral:7b", "llama3:8b"}, "llama3:8b"},
		{"most specific preference first", []string{"llama3:8b", "llama3.2:3b"}, "llama3.2:3b"},
		{"first name holding the preference", []string{"llama3:70b", "llama3:8b"}, "llama3:70b"},
		{"no match takes first available", []string{"phi3:mini", "gemma:2b"}, "phi3:mini"},
		{"empty list uses fallback", nil, "llama3"},
		{"blank names skipped", []string{"", "phi3"}, "phi3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectModel(tt.available, testPreferences, "llama3"))
		})
	}
}

func TestResolve_QueriesServer(t *testing.T) {
	lister := new(mockLister)
	lister.On("ListModels", mock.Anything).Return([]string{"mistral:7b", "llama3:8b"}, nil).Once()

	r := NewModelResolver(lister, "", testPreferences, "llama3")
	assert.Equal(t, "llama3:8b", r.Resolve(context.Background()))
	lister.AssertExpectations(t)
}

func TestResolve_OverrideSkipsListing(t *testing.T) {
	lister := new(mockLister)

	r := NewModelResolver(lister, "qwen3:4b", testPreferences, "llama3")
	assert.Equal(t, "qwen3:4b", r.Resolve(context.Background()))
	lister.AssertNotCalled(t, "ListModels", mock.Anything)
}

func TestResolve_FailureUsesDefault(t *testing.T) {
	lister := new(mockLister)
	lister.On("ListModels", mock.Anything).Return(nil, errors.New("connection refused"))

	r := NewModelResolver(lister, "", testPreferences, "llama3")
	assert.Equal(t, "llama3", r.Resolve(context.Background()))
}

func TestResolve_NotCached(t *testing.T) {
	lister := new(mockLister)
	lister.On("ListModels", mock.Anything).Return([]string{"mistral:7b"}, nil).Once()
	lister.On("ListModels", mock.Anything).Return([]string{"mistral:7b", "llama3:8b"}, nil).Once()

	r := NewModelResolver(lister, "", testPreferences, "llama3")
	assert.Equal(t, "mistral:7b", r.Resolve(context.Background()))
	assert.Equal(t, "llama3:8b", r.Resolve(context.Background()))
	lister.AssertNumberOfCalls(t, "ListModels", 2)
}
