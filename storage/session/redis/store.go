package redissession

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/session"
)

const keyPrefix = "session:"

type store struct {
	client *redis.Client
}

var _ session.Store = (*store)(nil)

func NewClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

// NewStore returns a session.Store keeping JSON-encoded sessions in Redis, expired by Redis itself.
func NewStore(client *redis.Client) session.Store {
	return &store{client: client}
}

func (st *store) Get(ctx context.Context, id string) (*session.Session, error) {
	data, err := st.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, errors.Wrap(err, "getting session")
	}

	var s session.Session
	if err = json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decoding session")
	}
	if s.IsExpired() {
		return nil, session.ErrNotFound
	}
	return &s, nil
}

func (st *store) Save(ctx context.Context, s *session.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return st.Delete(ctx, s.ID)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(st.client.Set(ctx, keyPrefix+s.ID, data, ttl).Err(), "saving session")
}

func (st *store) Delete(ctx context.Context, id string) error {
	return errors.Wrap(st.client.Del(ctx, keyPrefix+id).Err(), "deleting session")
}

func (st *store) Ping(ctx context.Context) error {
	return errors.Wrap(st.client.Ping(ctx).Err(), "pinging redis")
}
