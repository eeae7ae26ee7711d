package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "cache.internal:6380", client.Options().Addr)
	assert.Equal(t, "secret", client.Options().Password)
	assert.Equal(t, 2, client.Options().DB)

	bare, err := NewRedisClient("localhost:6379")
	require.NoError(t, err)
	defer bare.Close()
	assert.Equal(t, "localhost:6379", bare.Options().Addr)
}

func TestJob_Done(t *testing.T) {
	assert.False(t, Job{Status: JobQueued}.Done())
	assert.False(t, Job{Status: JobProcessing}.Done())
	assert.True(t, Job{Status: JobCompleted}.Done())
	assert.True(t, Job{Status: JobFailed}.Done())
}

func TestRedisJobStore(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := NewRedisClient(redisURL)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	store := NewRedisJobStore(client, time.Minute)

	_, err = store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrJobNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	job := Job{ID: uuid.NewString(), Status: JobCompleted, Text: "boil the pasta", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Save(ctx, job))
	defer client.Del(ctx, jobKeyPrefix+job.ID)

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job, got)

	ttl, err := client.TTL(ctx, jobKeyPrefix+job.ID).Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Minute.Seconds(), ttl.Seconds(), 5)
}
