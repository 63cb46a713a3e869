package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries the holder's token, so an expired lock
// that was taken over is never released by its previous owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// GenerationLocks fences quiz generation with Redis keys:
//
//	SET studysync:quizgen:{roomID}:{section} {token} NX PX {ttl}
//
// The TTL bounds how long a crashed generation can block retries.
type GenerationLocks struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGenerationLocks(client *redis.Client, ttl time.Duration) *GenerationLocks {
	return &GenerationLocks{client: client, ttl: ttl}
}

func (l *GenerationLocks) TryAcquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.lockKey(key), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire generation lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *GenerationLocks) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.lockKey(key)}, token).Err(); err != nil {
		return fmt.Errorf("release generation lock: %w", err)
	}
	return nil
}

func (l *GenerationLocks) lockKey(key string) string {
	return keyPrefix + ":quizgen:" + key
}
