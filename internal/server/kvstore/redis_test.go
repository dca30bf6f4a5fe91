package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failAll error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	if f.failAll != nil {
		return redis.NewStatusResult("", f.failAll)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failAll != nil {
		return redis.NewStringResult("", f.failAll)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.failAll != nil {
		return redis.NewIntResult(0, f.failAll)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Ping(_ context.Context) *redis.StatusCmd {
	if f.failAll != nil {
		return redis.NewStatusResult("", f.failAll)
	}
	return redis.NewStatusResult("PONG", nil)
}

func TestRedisStore_RoundTripWithNamespace(t *testing.T) {
	fr := newFakeRedis()
	s := NewRedisStore(fr, "mymee")
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "otp:signup:a@x.com", []byte(`{"code":"123456"}`), 65*time.Minute))
	assert.Contains(t, fr.data, "mymee:otp:signup:a@x.com")
	assert.Equal(t, 65*time.Minute, fr.ttls["mymee:otp:signup:a@x.com"])

	got, err := s.Get(ctx, "otp:signup:a@x.com")
	require.NoError(t, err)
	assert.Equal(t, `{"code":"123456"}`, string(got))

	require.NoError(t, s.Delete(ctx, "otp:signup:a@x.com"))
	_, err = s.Get(ctx, "otp:signup:a@x.com")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestRedisStore_NoNamespace(t *testing.T) {
	fr := newFakeRedis()
	s := NewRedisStore(fr, "")

	require.NoError(t, s.Put(context.Background(), "k", []byte("v"), 0))
	assert.Contains(t, fr.data, "k")
}

func TestRedisStore_Errors(t *testing.T) {
	fr := newFakeRedis()
	fr.failAll = errors.New("connection refused")
	s := NewRedisStore(fr, "ns")
	ctx := context.Background()

	err := s.Put(ctx, "k", []byte("v"), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set")

	_, err = s.Get(ctx, "k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorNotFound))

	require.Error(t, s.Delete(ctx, "k"))
	require.Error(t, s.Ping(ctx))
}

func TestNewRedisClient_Options(t *testing.T) {
	c := NewRedisClient("127.0.0.1:6390", "pw", 3)
	defer c.Close()

	opts := c.Options()
	assert.Equal(t, "127.0.0.1:6390", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
}
