package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	require.NoError(t, Init())
	require.NoError(t, Init())

	assert.NotNil(t, RecipeStructureTotal)
	assert.NotNil(t, RecipeSparseDictations)
	assert.NotNil(t, CompletionDuration)
	assert.NotNil(t, ExternalAPICallsTotal)
	assert.NotNil(t, TranscriptionInFlight)
	assert.NotNil(t, JobDuration)
}
