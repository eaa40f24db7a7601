package middleware

import (
	"bytes"
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
)

const idempotencyTTL = 24 * time.Hour

var (
	_ IdempotencyCacher = IdemResMap{}
	_ IdempotencyCacher = IdemResRedis{}
)

// An IdempotencyCacher can store responses paired to idempotency keys.
type IdempotencyCacher interface {
	Get(ctx context.Context, key string) (IdemRes, bool)
	Set(ctx context.Context, key string, idemRes IdemRes)
}

// An IdemResMap stores idempotency key, IdemRes value pairs in memory,
// expiring them after 24 hours.
//
// Server restarts reset an IdemResMap, and it is not shared between instances;
// use an IdemResRedis when running more than one.
type IdemResMap struct {
	c *cache.Cache
}

// NewIdemResMap constructs an IdemResMap
// for use in an Idempotency middleware as a cache.
func NewIdemResMap() IdemResMap { return IdemResMap{c: cache.New(idempotencyTTL, time.Hour)} }

// Get retrieves the result of the request matching the idempotency key.
func (i IdemResMap) Get(ctx context.Context, key string) (IdemRes, bool) {
	if key == "" {
		return IdemRes{}, false
	}

	select {
	case <-ctx.Done():
		return IdemRes{}, false

	default:
		v, ok := i.c.Get(key)
		if !ok {
			return IdemRes{}, false
		}

		ir := v.(IdemRes)
		ir.Body = bytes.NewBuffer(append([]byte(nil), ir.Body.Bytes()...))
		return ir, true
	}
}

// Set overwrites the value paired to key, resetting its expiry.
func (i IdemResMap) Set(ctx context.Context, key string, idemRes IdemRes) {
	select {
	case <-ctx.Done():
		return
	default:
		i.c.SetDefault(key, idemRes)
	}
}

// An IdemResRedis connects to a Redis backend
// for the purposes of caching idempotent responses.
type IdemResRedis struct {
	client *redis.Client
}

// NewRedisCache constructs an IdemResRedis with the options passed in.
func NewRedisCache(opts *redis.Options) IdemResRedis {
	return IdemResRedis{client: redis.NewClient(opts)}
}

// NewRedisCacheFromURL constructs an IdemResRedis connecting to the Redis URL,
// such as "redis://localhost:6379/0".
func NewRedisCacheFromURL(url string) (IdemResRedis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return IdemResRedis{}, err
	}

	return NewRedisCache(opts), nil
}

// Ping checks the connection to the Redis backend.
func (i IdemResRedis) Ping(ctx context.Context) error {
	return i.client.Ping(ctx).Err()
}

// Close closes the connection to the Redis backend.
func (i IdemResRedis) Close() error { return i.client.Close() }

// Get retrieves the IdemRes paired to key from the connected Redis backend.
func (i IdemResRedis) Get(ctx context.Context, key string) (IdemRes, bool) {
	select {
	case <-ctx.Done():
		return IdemRes{}, false
	default:
		b, err := i.client.Get(ctx, idemRedisKey(key)).Bytes()
		if err != nil {
			return IdemRes{}, false
		}

		ir := new(IdemRes)
		if err := ir.GobDecode(b); err != nil {
			return IdemRes{}, false
		}

		return *ir, true
	}
}

// Set saves the IdemRes by pairing it to the key in the Redis backend.
func (i IdemResRedis) Set(ctx context.Context, key string, idemRes IdemRes) {
	select {
	case <-ctx.Done():
		return
	default:
		b, err := idemRes.GobEncode()
		if err != nil {
			return
		}
		i.client.Set(ctx, idemRedisKey(key), b, idempotencyTTL)
	}
}

func idemRedisKey(key string) string { return "portfolio:idempotency:" + key }
