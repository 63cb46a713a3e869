package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"studysync-service/internal/domain"
	"studysync-service/internal/infra/memory"
)

const keyPrefix = "studysync"

// RoomRegistry is a Redis-aware implementation of app.RoomRegistry.
// Notes:
//   - Rooms themselves stay in a local in-memory registry; room state is ephemeral and
//     owned by this process.
//   - Redis only carries a liveness marker per room so operators and sidecars can see which
//     rooms are open without talking to the process.
//   - Marker writes are best effort and never fail the caller.
type RoomRegistry struct {
	*memory.RoomRegistry
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRoomRegistry(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RoomRegistry {
	return &RoomRegistry{
		RoomRegistry: memory.NewRoomRegistry(),
		client:       client,
		ttl:          ttl,
		logger:       logger.With(slog.String("component", "redis_registry")),
	}
}

func (r *RoomRegistry) CreateRoom(ctx context.Context, id string, cfg domain.RoomConfig) (*domain.Room, error) {
	room, err := r.RoomRegistry.CreateRoom(ctx, id, cfg)
	if err != nil {
		return nil, err
	}
	if err := r.client.Set(ctx, roomKey(id), "1", r.ttl).Err(); err != nil {
		r.logger.Warn("room marker write failed", slog.String("room_id", id), slog.String("error", err.Error()))
	}
	return room, nil
}

func (r *RoomRegistry) RemoveRoom(ctx context.Context, id string) {
	r.RoomRegistry.RemoveRoom(ctx, id)
	if err := r.client.Del(ctx, roomKey(id)).Err(); err != nil {
		r.logger.Warn("room marker delete failed", slog.String("room_id", id), slog.String("error", err.Error()))
	}
}

func (r *RoomRegistry) Clear(ctx context.Context) {
	ids := r.ListRoomIDs()
	r.RoomRegistry.Clear(ctx)
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, roomKey(id))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("room marker cleanup failed", slog.Int("rooms", len(ids)), slog.String("error", err.Error()))
	}
}

func roomKey(id string) string {
	return keyPrefix + ":room:" + id
}
