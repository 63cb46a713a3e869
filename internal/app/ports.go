package app

import (
	"context"

	"studysync-service/internal/domain"
)

// RoomRegistry abstracts where rooms live (in-memory, in-memory with Redis liveness markers).
// Implementations must tolerate concurrent readers.
type RoomRegistry interface {
	CreateRoom(ctx context.Context, id string, cfg domain.RoomConfig) (*domain.Room, error)
	GetRoom(id string) (*domain.Room, bool)
	ListRoomIDs() []string
	RemoveRoom(ctx context.Context, id string)
	Clear(ctx context.Context)
}

// ContentGenerator turns notes into sections and sections into quizzes.
// Failures degrade to empty results; there is no error path.
type ContentGenerator interface {
	GenerateSections(ctx context.Context, notes string) []domain.Section
	GenerateQuiz(ctx context.Context, req domain.QuizRequest) domain.Quiz
}

// GenerationLocks fences concurrent generation requests for the same key.
// TryAcquire hands out a token identifying the holder; Release only frees the lock while
// that token still holds it.
type GenerationLocks interface {
	TryAcquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// Sender delivers outbound messages to one connection. Send must not block.
type Sender interface {
	ID() string
	Send(msg Outbound)
}
