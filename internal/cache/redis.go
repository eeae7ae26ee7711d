package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

const jobKeyPrefix = "transcription:job:"

// RedisJobStore keeps job records as JSON strings with a TTL.
type RedisJobStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisJobStore(client *redis.Client, ttl time.Duration) *RedisJobStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &RedisJobStore{
		client: client,
		ttl:    ttl,
	}
}

// NewRedisClient parses a redis:// or rediss:// URL (a bare host:port is
// accepted too) and instruments the client with OTel tracing and metrics.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt, err = redis.ParseURL("redis://" + redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
	}

	client := redis.NewClient(opt)
	if err := redisotel.InstrumentTracing(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to instrument redis metrics: %w", err)
	}
	return client, nil
}

func (s *RedisJobStore) makeKey(id string) string {
	return jobKeyPrefix + id
}

func (s *RedisJobStore) Save(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.makeKey(job.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisJobStore) Get(ctx context.Context, id string) (Job, error) {
	data, err := s.client.Get(ctx, s.makeKey(id)).Bytes()
	if err == redis.Nil {
		return Job{}, ErrJobNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("failed to load job %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("corrupt job record %s: %w", id, err)
	}
	return job, nil
}
