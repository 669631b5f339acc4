package genstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps generations in Redis so they survive a restart of the client
// process. Only counters are stored there, never cached records. With a TTL,
// an expired counter reads as 0 and pending commits that observed a higher
// generation are discarded.
type Redis struct {
	rdb         redis.UniversalClient
	ns          string
	ttl         time.Duration
	closeClient bool
}

var _ GenStore = (*Redis)(nil)

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Namespace   string        // key prefix; usually the session or user id
	TTL         time.Duration // <= 0 disables expiry
	CloseClient bool          // set only when the store owns the client
}

// ErrNilClient is returned by NewRedis for a nil client.
var ErrNilClient = errors.New("genstore: nil redis client")

func NewRedis(client redis.UniversalClient, opts RedisOptions) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: client, ns: opts.Namespace, ttl: opts.TTL, closeClient: opts.CloseClient}, nil
}

func (s *Redis) key(scope string) string { return "gen:" + s.ns + ":" + scope }

func (s *Redis) Snapshot(ctx context.Context, scope string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(scope)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis gen parse: %w", err)
	}
	return u, nil
}

func (s *Redis) SnapshotMany(ctx context.Context, scopes []string) (map[string]uint64, error) {
	if len(scopes) == 0 {
		return map[string]uint64{}, nil
	}
	keys := make([]string, len(scopes))
	for i, k := range scopes {
		keys[i] = s.key(k)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]uint64, len(scopes))
	for i, v := range vals {
		if v == nil {
			out[scopes[i]] = 0
			continue
		}
		var str string
		switch vv := v.(type) {
		case string:
			str = vv
		case []byte:
			str = string(vv)
		default:
			str = fmt.Sprint(vv)
		}
		u, err := strconv.ParseUint(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis gen parse at %s: %w", scopes[i], err)
		}
		out[scopes[i]] = u
	}
	return out, nil
}

// Bump increments the counter; with a TTL, INCR and EXPIRE share one pipeline.
func (s *Redis) Bump(ctx context.Context, scope string) (uint64, error) {
	k := s.key(scope)
	if s.ttl <= 0 {
		v, err := s.rdb.Incr(ctx, k).Result()
		if err != nil {
			return 0, err
		}
		return uint64(v), nil
	}

	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

// Cleanup is a no-op; Redis expires keys itself when a TTL is set.
func (s *Redis) Cleanup(time.Duration) {}

func (s *Redis) Close(context.Context) error {
	if !s.closeClient {
		return nil
	}
	if err := s.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
