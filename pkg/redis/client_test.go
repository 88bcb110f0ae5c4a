package redis

import (
	"context"
	"testing"
	"time"

	"github.com/custconnect/custconnect-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data    map[string]string
	sets    map[string]map[string]struct{}
	counts  map[string]int64
	expired map[string]time.Duration
	pubbed  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:    map[string]string{},
		sets:    map[string]map[string]struct{}{},
		counts:  map[string]int64{},
		expired: map[string]time.Duration{},
	}
}

func (f *fakeStore) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(ctx context.Context, key string) *redis.StringCmd {
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expired[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeStore) SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd {
	if f.sets[key] == nil {
		f.sets[key] = map[string]struct{}{}
	}
	for _, m := range members {
		f.sets[key][m.(string)] = struct{}{}
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeStore) SRem(ctx context.Context, key string, members ...any) *redis.IntCmd {
	for _, m := range members {
		delete(f.sets[key], m.(string))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeStore) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	out := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return redis.NewStringSliceResult(out, nil)
}

func (f *fakeStore) SIsMember(ctx context.Context, key string, member any) *redis.BoolCmd {
	_, ok := f.sets[key][member.(string)]
	return redis.NewBoolResult(ok, nil)
}

func (f *fakeStore) Publish(ctx context.Context, channel string, payload any) *redis.IntCmd {
	f.pubbed = append(f.pubbed, channel)
	return redis.NewIntResult(1, nil)
}

func newTestClient() (*Client, *fakeStore) {
	store := newFakeStore()
	return &Client{store: store}, store
}

func TestKeyBuilders(t *testing.T) {
	c, _ := newTestClient()
	if got := c.AccessSessionKey("abc"); got != "cc:session:access:abc" {
		t.Fatalf("unexpected session key %q", got)
	}
	if got := c.RateLimitKey("login:ip:1.2.3.4"); got != "cc:rate_limit:login:ip:1.2.3.4" {
		t.Fatalf("unexpected rate limit key %q", got)
	}
	if got := c.PresenceKey(); got != "cc:presence:online" {
		t.Fatalf("unexpected presence key %q", got)
	}
}

func TestFixedWindowAllow(t *testing.T) {
	c, store := newTestClient()

	for i := 0; i < 3; i++ {
		allowed, _, err := c.FixedWindowAllow(context.Background(), "login:test", 3, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	allowed, count, err := c.FixedWindowAllow(context.Background(), "login:test", 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("fourth attempt should be denied")
	}
	if count != 4 {
		t.Fatalf("expected count 4, got %d", count)
	}
	if _, ok := store.expired[c.RateLimitKey("login:test")]; !ok {
		t.Fatal("expected TTL applied on first increment")
	}
}

func TestPresenceSetOperations(t *testing.T) {
	c, _ := newTestClient()
	ctx := context.Background()

	if err := c.SAdd(ctx, c.PresenceKey(), "u1"); err != nil {
		t.Fatalf("sadd error: %v", err)
	}
	online, err := c.SIsMember(ctx, c.PresenceKey(), "u1")
	if err != nil || !online {
		t.Fatalf("expected u1 online, err=%v", err)
	}
	if err := c.SRem(ctx, c.PresenceKey(), "u1"); err != nil {
		t.Fatalf("srem error: %v", err)
	}
	online, _ = c.SIsMember(ctx, c.PresenceKey(), "u1")
	if online {
		t.Fatal("expected u1 offline after removal")
	}
}

func TestOptionsFromConfigRequiresEndpoint(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}
	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", PoolSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.PoolSize != 5 {
		t.Fatalf("options not propagated: %+v", opts)
	}
}
