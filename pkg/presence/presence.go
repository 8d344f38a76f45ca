// Package presence mirrors member activity into a Redis sorted set so other
// services can ask who was active recently without reading the store.
package presence

import (
	"context"

	"curbdb/pkg/notify"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const DefaultKey = "curbdb:presence"

type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// Sink implements notify.Sink. Every event refreshes the actor's score with
// the event time.
type Sink struct {
	client *redis.Client
	key    string
}

func New(opts Options) *Sink {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	return &Sink{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		key: key,
	}
}

func (s *Sink) Name() string { return "redis_presence" }

func (s *Sink) Handle(ctx context.Context, ev notify.Event) error {
	members := entries(ev)
	if len(members) == 0 {
		return nil
	}
	if err := s.client.ZAdd(ctx, s.key, members...).Err(); err != nil {
		return errors.Wrapf(err, "zadd %s", s.key)
	}
	return nil
}

func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Sink) Close() error {
	return s.client.Close()
}

func entries(ev notify.Event) []redis.Z {
	if ev.Actor == "" {
		return nil
	}
	return []redis.Z{{Score: float64(ev.At), Member: ev.Actor}}
}
