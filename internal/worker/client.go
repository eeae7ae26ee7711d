package worker

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"
)

// ParseRedisURL accepts redis://, rediss:// or a bare host:port.
func ParseRedisURL(redisURL string) (asynq.RedisClientOpt, error) {
	if !strings.HasPrefix(redisURL, "redis://") && !strings.HasPrefix(redisURL, "rediss://") {
		if redisURL == "" {
			return asynq.RedisClientOpt{}, fmt.Errorf("redis url is empty")
		}
		return asynq.RedisClientOpt{Addr: redisURL}, nil
	}

	u, err := url.Parse(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	opt := asynq.RedisClientOpt{
		Addr: u.Host,
	}

	if u.User != nil {
		opt.Username = u.User.Username()
		if password, ok := u.User.Password(); ok {
			opt.Password = password
		}
	}

	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return asynq.RedisClientOpt{}, fmt.Errorf("invalid redis database %q", db)
		}
		opt.DB = n
	}

	if u.Scheme == "rediss" {
		opt.TLSConfig = &tls.Config{ServerName: u.Hostname()}
	}

	return opt, nil
}

// NewClient creates an asynq client for enqueueing tasks.
func NewClient(redisURL string) (*asynq.Client, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return asynq.NewClient(opt), nil
}
