package transcription

import (
	"context"
	"os"
	"os/exec"

	"github.com/dictameal/backend/internal/errors"
)

// NormalizeAudio converts any input ffmpeg understands into 16 kHz mono WAV,
// the format whisper models are trained on. The caller removes the returned
// file.
func NormalizeAudio(ctx context.Context, inputPath string) (string, error) {
	tempFile, err := os.CreateTemp("", "dictation-*.wav")
	if err != nil {
		return "", errors.NewTranscriptionError("failed to create temp file", "AUDIO_NORMALIZE_ERROR", err)
	}
	outputPath := tempFile.Name()
	tempFile.Close()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		"-y", outputPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(outputPath)
		appErr := errors.NewTranscriptionError("failed to normalize audio with ffmpeg", "AUDIO_NORMALIZE_ERROR", err)
		if len(out) > 0 {
			appErr.Message += ": " + lastLine(string(out))
		}
		return "", appErr
	}
	return outputPath, nil
}

func lastLine(s string) string {
	end := len(s)
	for end > 0 && (s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	start := end
	for start > 0 && s[start-1] != '\n' {
		start--
	}
	return s[start:end]
}
