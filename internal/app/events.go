package app

import "studysync-service/internal/domain"

// Event is the closed set of inbound events handled by the dispatcher loop.
type Event interface {
	isEvent()
}

type CreateRoom struct {
	RoomID string
	Config domain.RoomConfig
}

type JoinRoom struct {
	RoomID string
}

type SetName struct {
	RoomID string
	Name   string
}

type SendMessage struct {
	RoomID  string
	Message domain.ChatMessage
}

type UpdateScore struct {
	RoomID string
	Score  float64
}

type GetSections struct {
	RoomID string
}

type GenerateQuiz struct {
	RoomID       string
	SectionIndex int
}

type LeaveRoom struct {
	RoomID string
}

// Disconnect is submitted by the transport when a connection goes away.
type Disconnect struct{}

// completions re-enter the loop once a generation goroutine finishes.
type sectionsGenerated struct {
	room      *domain.Room
	creatorID string
	sections  []domain.Section
}

type quizGenerated struct {
	room         *domain.Room
	requesterID  string
	sectionIndex int
	sectionTitle string
	lockKey      string
	lockToken    string
	quiz         domain.Quiz
}

func (CreateRoom) isEvent()        {}
func (JoinRoom) isEvent()          {}
func (SetName) isEvent()           {}
func (SendMessage) isEvent()       {}
func (UpdateScore) isEvent()       {}
func (GetSections) isEvent()       {}
func (GenerateQuiz) isEvent()      {}
func (LeaveRoom) isEvent()         {}
func (Disconnect) isEvent()        {}
func (sectionsGenerated) isEvent() {}
func (quizGenerated) isEvent()     {}

// connected registers a connection with the loop.
type connected struct {
	conn Sender
}

func (connected) isEvent() {}
