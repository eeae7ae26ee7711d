package transcription

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/dictameal/backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type providerFunc func(ctx context.Context, audioPath string) (string, error)

func (f providerFunc) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return f(ctx, audioPath)
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestService_Transcribe(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()

	var seen string
	provider := providerFunc(func(ctx context.Context, path string) (string, error) {
		seen = path
		data, err := os.ReadFile(path)
		assert.NoError(t, err)
		assert.Equal(t, "audio bytes", string(data))
		return "  200 g spaghetti, two eggs \n", nil
	})

	svc := NewService(provider, 2, WithTempDir(dir))
	text, err := svc.Transcribe(context.Background(), strings.NewReader("audio bytes"), "memo.WEBM")
	require.NoError(t, err)

	assert.Equal(t, "200 g spaghetti, two eggs", text)
	assert.Equal(t, ".webm", filepath.Ext(seen))
	assert.NoFileExists(t, seen)
	assert.Empty(t, dirEntries(t, dir))
}

func TestService_ProviderErrorRemovesUpload(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()

	failure := errors.NewTranscriptionError("upstream 500", "WHISPER_HTTP_ERROR", nil)
	svc := NewService(providerFunc(func(context.Context, string) (string, error) {
		return "", failure
	}), 1, WithTempDir(dir))

	_, err := svc.Transcribe(context.Background(), strings.NewReader("x"), "a.wav")
	assert.Same(t, failure, err)
	assert.Empty(t, dirEntries(t, dir))
}

func TestService_EmptyUpload(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(providerFunc(func(context.Context, string) (string, error) {
		t.Fatal("provider must not run for an empty upload")
		return "", nil
	}), 1, WithTempDir(dir))

	_, err := svc.Transcribe(context.Background(), strings.NewReader(""), "a.wav")
	assert.True(t, errors.IsType(err, errors.ErrorTypeBadRequest))
	assert.Empty(t, dirEntries(t, dir))
}

func TestService_StagingFailureRemovesFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(providerFunc(func(context.Context, string) (string, error) {
		return "", nil
	}), 1, WithTempDir(dir))

	_, err := svc.Transcribe(context.Background(), iotest.ErrReader(stderrors.New("client went away")), "a.wav")
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "UPLOAD_STAGING_ERROR", appErr.ErrorCode)
	assert.Empty(t, dirEntries(t, dir))
}

func TestService_Cancellation(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()

	started := make(chan struct{})
	svc := NewService(providerFunc(func(ctx context.Context, path string) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}), 1, WithTempDir(dir))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := svc.Transcribe(ctx, strings.NewReader("x"), "a.wav")
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "TRANSCRIPTION_CANCELLED", appErr.ErrorCode)
	assert.False(t, appErr.IsRetryable())

	assert.Eventually(t, func() bool {
		return len(dirEntries(t, dir)) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestService_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := NewService(providerFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), 1, WithTempDir(t.TempDir()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Transcribe(ctx, strings.NewReader("x"), "a.wav")
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "TRANSCRIPTION_TIMEOUT", appErr.ErrorCode)
	assert.Equal(t, 504, appErr.StatusCode)
}

func TestCancelled_WrappedDeadline(t *testing.T) {
	appErr := cancelled(fmt.Errorf("acquire slot: %w", context.DeadlineExceeded))
	assert.Equal(t, "TRANSCRIPTION_TIMEOUT", appErr.ErrorCode)
	assert.Equal(t, 504, appErr.StatusCode)

	appErr = cancelled(fmt.Errorf("acquire slot: %w", context.Canceled))
	assert.Equal(t, "TRANSCRIPTION_CANCELLED", appErr.ErrorCode)
	assert.Equal(t, 499, appErr.StatusCode)
}

func TestService_BoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	svc := NewService(providerFunc(func(ctx context.Context, _ string) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return "ok", nil
	}), 2, WithTempDir(t.TempDir()))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := svc.Transcribe(context.Background(), strings.NewReader("x"), "a.wav")
			assert.NoError(t, err)
			assert.Equal(t, "ok", text)
		}()
	}

	assert.Eventually(t, func() bool { return inFlight.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(2), peak.Load())
}

func TestService_RecoversPanic(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()

	svc := NewService(providerFunc(func(context.Context, string) (string, error) {
		panic("decoder exploded")
	}), 1, WithTempDir(dir))

	_, err := svc.Transcribe(context.Background(), strings.NewReader("x"), "a.wav")
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
	assert.Contains(t, err.Error(), "decoder exploded")
	assert.Empty(t, dirEntries(t, dir))

	// The slot was released.
	_, err = svc.Transcribe(context.Background(), strings.NewReader("x"), "a.wav")
	assert.Error(t, err)
}
