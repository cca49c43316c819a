/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package redisqueue

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/registry"
)

// DriverName is the registry name of the Redis queue driver
const DriverName = "redisqueue"

const (
	// DefaultPrefix namespaces every key the driver writes
	DefaultPrefix = "storagekit:queue:"
	// DefaultTombstoneTTL is how long a deleted queue name stays reserved
	DefaultTombstoneTTL = 30 * time.Second
	// DefaultVisibilityTimeout is how long a dequeued message stays hidden
	DefaultVisibilityTimeout = 30 * time.Second
)

func init() {
	registry.RegisterQueueDriver(DriverName, func(ctx context.Context, acct *account.Context) (datastore.QueueService, error) {
		client, err := NewClient(ctx, acct)
		if err != nil {
			return nil, err
		}
		return NewQueueService(client), nil
	})
}

// NewClient connects to the Redis server named by acct.RedisAddr, either a
// host:port pair or a redis:// URL. An optional Password setting is honoured.
func NewClient(ctx context.Context, acct *account.Context) (*redis.Client, error) {
	if acct == nil || acct.RedisAddr == "" {
		return nil, errors.NewInvalidArgumentError("RedisAddr", "a Redis address is required")
	}

	var opts *redis.Options
	if strings.HasPrefix(acct.RedisAddr, "redis://") || strings.HasPrefix(acct.RedisAddr, "rediss://") {
		parsed, err := redis.ParseURL(acct.RedisAddr)
		if err != nil {
			return nil, errors.NewInvalidFormatError("RedisAddr", "failed to parse Redis URL", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: acct.RedisAddr}
	}
	if password, ok := acct.Setting("Password"); ok {
		opts.Password = password
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	slog.Default().Debug("Redis client initialized", "addr", opts.Addr)
	return client, nil
}

// QueueService implements datastore.QueueService on Redis. Each queue is a
// marker key, a sorted set of message IDs scored by visibility time, and a hash
// of payloads.
type QueueService struct {
	client     redis.UniversalClient
	prefix     string
	tombstone  time.Duration
	visibility time.Duration
	now        func() time.Time
}

// Option configures a QueueService
type Option func(*QueueService)

// WithPrefix sets the key prefix
func WithPrefix(prefix string) Option {
	return func(s *QueueService) { s.prefix = prefix }
}

// WithTombstoneTTL sets how long a deleted queue cannot be recreated
func WithTombstoneTTL(d time.Duration) Option {
	return func(s *QueueService) { s.tombstone = d }
}

// WithVisibilityTimeout sets how long a dequeued message stays hidden
func WithVisibilityTimeout(d time.Duration) Option {
	return func(s *QueueService) { s.visibility = d }
}

// WithClock sets the time source used for message visibility
func WithClock(now func() time.Time) Option {
	return func(s *QueueService) { s.now = now }
}

// NewQueueService creates a queue service on client
func NewQueueService(client redis.UniversalClient, opts ...Option) *QueueService {
	s := &QueueService{
		client:     client,
		prefix:     DefaultPrefix,
		tombstone:  DefaultTombstoneTTL,
		visibility: DefaultVisibilityTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Queue implements datastore.QueueService
func (s *QueueService) Queue(name string) datastore.Queue {
	base := s.prefix + name
	return &queue{
		svc:       s,
		name:      name,
		marker:    base,
		messages:  base + ":messages",
		payloads:  base + ":payloads",
		tombstone: base + ":deleted",
	}
}

type queue struct {
	svc  *QueueService
	name string

	marker    string
	messages  string
	payloads  string
	tombstone string
}

func (q *queue) Name() string { return q.name }

func (q *queue) Exists(ctx context.Context) (bool, error) {
	n, err := q.svc.client.Exists(ctx, q.marker).Result()
	if err != nil {
		return false, q.unavailable("exists", err)
	}
	return n == 1, nil
}

func (q *queue) CreateIfNotExists(ctx context.Context) error {
	n, err := q.svc.client.Exists(ctx, q.tombstone).Result()
	if err != nil {
		return q.unavailable("create queue", err)
	}
	if n == 1 {
		return errors.NewBeingDeletedError(errors.KindQueue, q.name, errors.CodeQueueBeingDeleted, nil)
	}
	if err := q.svc.client.SetNX(ctx, q.marker, q.svc.now().UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return q.unavailable("create queue", err)
	}
	return nil
}

func (q *queue) Delete(ctx context.Context) error {
	var removed *redis.IntCmd
	_, err := q.svc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, q.marker)
		pipe.Del(ctx, q.messages, q.payloads)
		return nil
	})
	if err != nil {
		return q.unavailable("delete queue", err)
	}
	if removed.Val() == 0 {
		return errors.NewRemoteFailureError("delete queue", errors.KindQueue, q.name, http.StatusNotFound, "QueueNotFound", nil)
	}
	if q.svc.tombstone > 0 {
		if err := q.svc.client.Set(ctx, q.tombstone, "1", q.svc.tombstone).Err(); err != nil {
			return q.unavailable("delete queue", err)
		}
	}
	return nil
}

// enqueueScript adds a message only while the queue marker exists.
var enqueueScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[3], ARGV[1], ARGV[3])
redis.call("ZADD", KEYS[2], ARGV[2], ARGV[1])
return 1
`)

// dequeueScript hides the first visible message until ARGV[2] and returns its payload.
var dequeueScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return redis.error_reply("QueueNotFound")
end
local ids = redis.call("ZRANGEBYSCORE", KEYS[2], "-inf", ARGV[1], "LIMIT", 0, 1)
if #ids == 0 then
	return false
end
redis.call("ZADD", KEYS[2], ARGV[2], ids[1])
return redis.call("HGET", KEYS[3], ids[1])
`)

func (q *queue) keys() []string {
	return []string{q.marker, q.messages, q.payloads}
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (q *queue) Enqueue(ctx context.Context, payload []byte) error {
	added, err := enqueueScript.Run(ctx, q.svc.client, q.keys(), uuid.NewString(), millis(q.svc.now()), payload).Int()
	if err != nil {
		return q.unavailable("enqueue", err)
	}
	if added == 0 {
		return errors.NewRemoteFailureError("enqueue", errors.KindQueue, q.name, http.StatusNotFound, "QueueNotFound", nil)
	}
	return nil
}

func (q *queue) Dequeue(ctx context.Context) ([]byte, bool, error) {
	now := q.svc.now()
	payload, err := dequeueScript.Run(ctx, q.svc.client, q.keys(), millis(now), millis(now.Add(q.svc.visibility))).Text()
	switch {
	case stderrors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil && strings.Contains(err.Error(), "QueueNotFound"):
		return nil, false, errors.NewRemoteFailureError("dequeue", errors.KindQueue, q.name, http.StatusNotFound, "QueueNotFound", err)
	case err != nil:
		return nil, false, q.unavailable("dequeue", err)
	}
	return []byte(payload), true, nil
}

func (q *queue) unavailable(op string, err error) error {
	return errors.NewRemoteFailureError(op, errors.KindQueue, q.name, http.StatusServiceUnavailable, "RedisError", err)
}

var _ datastore.QueueService = (*QueueService)(nil)
