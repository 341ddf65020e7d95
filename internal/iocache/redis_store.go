package iocache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
)

const (
	redisTimeout   = 5 * time.Second
	redisKeyExpiry = 24 * time.Hour // snapshots are long stale by then
	redisScanCount = 100
)

// Hash fields of one stored snapshot.
const (
	redisFieldValue     = "value"
	redisFieldVersion   = "version"
	redisFieldTimestamp = "timestamp"
)

// RedisCacheStore keeps snapshots as Redis hashes under a common key prefix.
type RedisCacheStore struct {
	client *redis.Client
	prefix string
}

var _ contract.CacheStore = &RedisCacheStore{} // Compile-time check

// NewRedisCacheStore connects to Redis. connStr is a redis:// URL or host:port.
func NewRedisCacheStore(connStr, prefix string) (*RedisCacheStore, error) {
	opts, err := parseRedisOptions(connStr)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s. Check that the server is running: %w", opts.Addr, err)
	}
	return &RedisCacheStore{client: client, prefix: prefix + ":"}, nil
}

// parseRedisOptions accepts both URL and bare address forms.
func parseRedisOptions(connStr string) (*redis.Options, error) {
	if strings.HasPrefix(connStr, "redis://") || strings.HasPrefix(connStr, "rediss://") {
		opts, err := redis.ParseURL(connStr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		return opts, nil
	}
	if !strings.Contains(connStr, ":") {
		return nil, fmt.Errorf("invalid redis address %q. Use redis://host:port/db or host:port", connStr)
	}
	return &redis.Options{Addr: connStr}, nil
}

func (rs *RedisCacheStore) key(k string) string {
	return rs.prefix + k
}

// Get retrieves a snapshot by key. A missing key returns redis.Nil.
func (rs *RedisCacheStore) Get(key string) ([]byte, int, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	fields, err := rs.client.HGetAll(ctx, rs.key(key)).Result()
	if err != nil {
		return nil, 0, 0, err
	}
	if len(fields) == 0 {
		return nil, 0, 0, redis.Nil
	}
	version, err := strconv.Atoi(fields[redisFieldVersion])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	ts, err := strconv.ParseInt(fields[redisFieldTimestamp], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return []byte(fields[redisFieldValue]), version, ts, nil
}

// Set replaces the snapshot stored under key.
func (rs *RedisCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	k := rs.key(key)
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k,
			redisFieldValue, value,
			redisFieldVersion, version,
			redisFieldTimestamp, timestamp)
		pipe.Expire(ctx, k, redisKeyExpiry)
		return nil
	})
	return err
}

// Clear deletes every key under the store prefix.
func (rs *RedisCacheStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	keys, err := rs.scanKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rs.client.Del(ctx, keys...).Err()
}

func (rs *RedisCacheStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := rs.client.Scan(ctx, cursor, rs.prefix+"*", redisScanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan redis keys: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// GetStatus reports entry counts, timestamps and memory usage.
func (rs *RedisCacheStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.RedisBackend), Connected: true}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	keys, err := rs.scanKeys(ctx)
	if err != nil {
		return status, err
	}
	status.TotalEntries = len(keys)

	var newest, oldest int64
	for _, k := range keys {
		raw, err := rs.client.HGet(ctx, k, redisFieldTimestamp).Result()
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if ts > newest {
			newest = ts
		}
		if oldest == 0 || ts < oldest {
			oldest = ts
		}
		if size, err := rs.client.MemoryUsage(ctx, k).Result(); err == nil {
			status.TableSizeBytes += size
		}
	}
	if newest > 0 {
		status.LastEntryTime = time.UnixMilli(newest)
		status.OldestEntryTime = time.UnixMilli(oldest)
	}
	return status, nil
}

// Close closes the Redis client.
func (rs *RedisCacheStore) Close() error {
	return rs.client.Close()
}
