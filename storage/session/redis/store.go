package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/session"
)

// Redis key prefix for sessions
const sessionKeyPrefix = "session:"

// NewClient connects a go-redis client from the configured URL.
// Returns nil if no URL is configured.
func NewClient(conf *core.Config) (*redis.Client, error) {
	if conf.Redis.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(conf.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// sessionStore keeps sessions as TTL'd JSON values, shared across instances.
type sessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ session.Store = (*sessionStore)(nil)

func NewSessionStore(client *redis.Client, ttl time.Duration) *sessionStore {
	return &sessionStore{client: client, ttl: ttl}
}

func (st *sessionStore) GetSession(ctx context.Context, id string) (*session.Session, error) {
	data, err := st.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, session.ErrNotFound
		}
		return nil, errors.Wrap(err, "getting session")
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Wrap(err, "decoding session")
	}
	return &sess, nil
}

func (st *sessionStore) SaveSession(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(
		st.client.Set(ctx, sessionKeyPrefix+sess.ID, data, st.ttl).Err(),
		"saving session",
	)
}

func (st *sessionStore) DeleteSession(ctx context.Context, id string) error {
	return errors.Wrap(st.client.Del(ctx, sessionKeyPrefix+id).Err(), "deleting session")
}
