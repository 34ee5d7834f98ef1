package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskhub/domain"
	"github.com/fastygo/taskhub/repository"
)

const (
	sessionPrefix = "taskhub:refresh:"
	userPrefix    = "taskhub:user-sessions:"
)

type sessionRepository struct {
	client *redislib.Client
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed store of live refresh-token sessions.
// A refresh token whose session key is gone is treated as revoked. Each user
// also owns a set of session ids so all of them can be revoked at once.
func NewSessionRepository(client *redislib.Client, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionRepository{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return sessionPrefix + id
}

func userKey(userID int64) string {
	return userPrefix + strconv.FormatInt(userID, 10)
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	result, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(result, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Save stores the session until its expiry and indexes it under its user.
// Every save pushes the user set's expiry out to the full refresh lifetime.
func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = r.ttl
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), payload, ttl)
		pipe.SAdd(ctx, userKey(session.UserID), session.ID)
		pipe.Expire(ctx, userKey(session.UserID), r.ttl)
		return nil
	})
	return err
}

// Delete revokes the session; deleting an unknown session reports ErrSessionNotFound.
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	var removed *redislib.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		removed = pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, userKey(session.UserID), id)
		return nil
	})
	if err != nil {
		return err
	}
	if removed.Val() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID int64) (int, error) {
	ids, err := r.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}

	var removed *redislib.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		removed = pipe.Del(ctx, keys...)
		pipe.Del(ctx, userKey(userID))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(removed.Val()), nil
}
