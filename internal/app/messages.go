package app

import "studysync-service/internal/domain"

// Outbound message types on the wire.
const (
	TypeRoomCreated       = "room-created"
	TypeSectionsCreated   = "sections-created"
	TypeRoomJoined        = "room-joined"
	TypeRoomLeft          = "room-left"
	TypeRoomError         = "room-error"
	TypeChatMessage       = "chat-message"
	TypeLeaderboardUpdate = "leaderboard-update"
	TypeSectionsUpdated   = "sections-updated"
	TypeQuizGenerated     = "quiz-generated"
	TypeQuizError         = "quiz-error"
	TypeRoomDeleted       = "room-deleted"
)

// Outbound is the closed set of messages the dispatcher emits.
type Outbound interface {
	MessageType() string
}

type RoomRef struct {
	RoomID string `json:"roomId"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

type RoomCreated RoomRef
type RoomJoined RoomRef
type RoomLeft RoomRef
type RoomDeleted RoomRef
type RoomError ErrorMessage
type QuizError ErrorMessage
type ChatBroadcast domain.ChatMessage
type SectionsCreated []domain.Section
type SectionsUpdated []domain.Section
type LeaderboardUpdate []domain.LeaderboardEntry

type QuizBroadcast struct {
	Quiz         domain.Quiz `json:"quiz"`
	SectionIndex int         `json:"sectionIndex"`
	SectionTitle string      `json:"sectionTitle"`
}

func (RoomCreated) MessageType() string       { return TypeRoomCreated }
func (RoomJoined) MessageType() string        { return TypeRoomJoined }
func (RoomLeft) MessageType() string          { return TypeRoomLeft }
func (RoomDeleted) MessageType() string       { return TypeRoomDeleted }
func (RoomError) MessageType() string         { return TypeRoomError }
func (QuizError) MessageType() string         { return TypeQuizError }
func (ChatBroadcast) MessageType() string     { return TypeChatMessage }
func (SectionsCreated) MessageType() string   { return TypeSectionsCreated }
func (SectionsUpdated) MessageType() string   { return TypeSectionsUpdated }
func (LeaderboardUpdate) MessageType() string { return TypeLeaderboardUpdate }
func (QuizBroadcast) MessageType() string     { return TypeQuizGenerated }
