package walletinfra

import (
	"context"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/redis/go-redis/v9"
)

// RedisProcessedLedger implements wallet.ProcessedLedger with one key per
// completed movement.
type RedisProcessedLedger struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisProcessedLedger keeps markers for ttl; zero keeps them forever.
func NewRedisProcessedLedger(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisProcessedLedger {
	if prefix == "" {
		prefix = "wallet:processed"
	}
	return &RedisProcessedLedger{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (l *RedisProcessedLedger) key(k string) string { return l.prefix + ":" + k }

func (l *RedisProcessedLedger) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := l.rdb.Exists(ctx, l.key(key)).Result()
	if err != nil {
		return false, errx.Wrap(err, "failed to read processed ledger", errx.TypeExternal).WithDetail("key", key)
	}
	return n == 1, nil
}

func (l *RedisProcessedLedger) MarkProcessed(ctx context.Context, key string) error {
	if err := l.rdb.Set(ctx, l.key(key), time.Now().UTC().Format(time.RFC3339), l.ttl).Err(); err != nil {
		return errx.Wrap(err, "failed to write processed ledger", errx.TypeExternal).WithDetail("key", key)
	}
	return nil
}
