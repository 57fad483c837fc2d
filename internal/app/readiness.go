package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Pinger is the minimal interface for a dependency capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

// RedisPinger adapts a go-redis client to Pinger. A nil client yields nil.
func RedisPinger(rdb *redis.Client) Pinger {
	if rdb == nil {
		return nil
	}
	return redisPinger{rdb: rdb}
}

// BuildReadinessChecks returns the db, redis and queue checks. The database
// is always probed; redis and queue checks are nil when not configured.
func BuildReadinessChecks(pool, rdb, queue Pinger) (dbCheck, redisCheck, queueCheck func(ctx context.Context) error) {
	dbCheck = func(ctx context.Context) error {
		if pool == nil {
			return fmt.Errorf("db not configured")
		}
		return pool.Ping(ctx)
	}
	if rdb != nil {
		redisCheck = rdb.Ping
	}
	if queue != nil {
		queueCheck = queue.Ping
	}
	return dbCheck, redisCheck, queueCheck
}
