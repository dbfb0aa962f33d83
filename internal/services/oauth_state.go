package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrStateMismatch = errors.New("invalid oauth state")

const stateBytes = 32

// StateStore binds an OAuth callback to the login request that started it.
type StateStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) error
}

func newStateNonce() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RedisStateStore keeps issued states in Redis; each one can be consumed once.
type RedisStateStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStateStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStateStore {
	if prefix == "" {
		prefix = "oauth_state"
	}
	return &RedisStateStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStateStore) key(state string) string {
	return s.prefix + ":" + state
}

func (s *RedisStateStore) Issue(ctx context.Context) (string, error) {
	state, err := newStateNonce()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(state), "1", s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return state, nil
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) error {
	if state == "" {
		return ErrStateMismatch
	}
	err := s.client.GetDel(ctx, s.key(state)).Err()
	if errors.Is(err, redis.Nil) {
		return ErrStateMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return nil
}

// SignedStateStore needs no storage: the state carries its own expiry and an
// HMAC over nonce and expiry. It does not stop replay within the TTL.
type SignedStateStore struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSignedStateStore(secret string, ttl time.Duration) *SignedStateStore {
	return &SignedStateStore{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *SignedStateStore) sign(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (s *SignedStateStore) Issue(ctx context.Context) (string, error) {
	nonce, err := newStateNonce()
	if err != nil {
		return "", err
	}
	payload := nonce + "." + strconv.FormatInt(s.now().Add(s.ttl).Unix(), 10)
	return payload + "." + s.sign(payload), nil
}

func (s *SignedStateStore) Consume(ctx context.Context, state string) error {
	parts := strings.Split(state, ".")
	if len(parts) != 3 {
		return ErrStateMismatch
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[2])) {
		return ErrStateMismatch
	}
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || s.now().Unix() > expiry {
		return ErrStateMismatch
	}
	return nil
}
