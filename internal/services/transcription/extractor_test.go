package transcription

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/dictameal/backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAudio(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}

	input := filepath.Join(t.TempDir(), "tone.mp3")
	cmd := exec.Command("ffmpeg", "-f", "lavfi", "-i", "sine=frequency=440:duration=1", "-ac", "2", "-ar", "44100", input)
	require.NoError(t, cmd.Run())

	out, err := NormalizeAudio(context.Background(), input)
	require.NoError(t, err)
	defer os.Remove(out)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(44))
	assert.Equal(t, ".wav", filepath.Ext(out))
}

func TestNormalizeAudio_InvalidInput(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}

	input := filepath.Join(t.TempDir(), "garbage.mp3")
	require.NoError(t, os.WriteFile(input, []byte("not audio"), 0o600))

	out, err := NormalizeAudio(context.Background(), input)
	assert.Empty(t, out)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "AUDIO_NORMALIZE_ERROR", appErr.ErrorCode)
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "garbage.mp3: Invalid data", lastLine("ffmpeg version 6\n  built with gcc\ngarbage.mp3: Invalid data\n"))
	assert.Equal(t, "single", lastLine("single"))
	assert.Equal(t, "", lastLine(""))
}
