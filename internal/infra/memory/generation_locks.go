package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type lease struct {
	token     string
	expiresAt time.Time
}

// GenerationLocks is an in-process implementation of app.GenerationLocks.
// A lock older than ttl is treated as abandoned and can be taken over.
type GenerationLocks struct {
	ttl   time.Duration
	clock func() time.Time

	mu   sync.Mutex
	held map[string]lease
}

func NewGenerationLocks(ttl time.Duration) *GenerationLocks {
	return &GenerationLocks{
		ttl:   ttl,
		clock: time.Now,
		held:  make(map[string]lease),
	}
}

func (l *GenerationLocks) TryAcquire(_ context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if cur, ok := l.held[key]; ok && (l.ttl <= 0 || cur.expiresAt.After(now)) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = lease{token: token, expiresAt: now.Add(l.ttl)}
	return token, true, nil
}

// Release frees key only while token still holds it.
func (l *GenerationLocks) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.held[key]; ok && cur.token == token {
		delete(l.held, key)
	}
	return nil
}
