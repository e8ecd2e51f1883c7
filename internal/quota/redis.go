package quota

import (
	"context"
	"errors"
	"time"

	"uploader/internal/apperr"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	URL          string `split_words:"true" required:"true"`
	ReadTimeout  int    `split_words:"true" default:"3"`
	WriteTimeout int    `split_words:"true" default:"3"`
	DialTimeout  int    `split_words:"true" default:"5"`
}

// New dials Redis and pings it once.
func (c *Config) New() (*redis.Client, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Config, err, "parse redis url")
	}

	opts.ReadTimeout = time.Duration(c.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(c.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(c.DialTimeout) * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, apperr.Networkf(err, "redis ping")
	}
	return client, nil
}

// Redis shares limits between concurrent sessions on different hosts.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

func (r *Redis) Reached(ctx context.Context, group, market string) (bool, error) {
	err := r.client.Get(ctx, Key(r.now(), group, market)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Networkf(err, "redis get quota")
	}
	return true, nil
}

func (r *Redis) Mark(ctx context.Context, group, market string) error {
	now := r.now()
	if err := r.client.Set(ctx, Key(now, group, market), 1, untilMidnight(now)).Err(); err != nil {
		return apperr.Networkf(err, "redis set quota")
	}
	return nil
}
