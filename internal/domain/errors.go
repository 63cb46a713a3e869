package domain

import "errors"

var (
	// ErrRoomExists is returned when a room is created with an identifier already in use.
	ErrRoomExists = errors.New("room already exists")
	// ErrRoomNotFound is returned when an event targets a room that is not live.
	ErrRoomNotFound = errors.New("room does not exist")
	// ErrNotInRoom is returned when a connection acts on a room it is not bound to.
	ErrNotInRoom = errors.New("connection is not in this room")
	// ErrParticipantNotFound is returned when an unnamed connection tries to score.
	ErrParticipantNotFound = errors.New("participant not found in room")
	// ErrInvalidScore indicates a score that is not a finite number.
	ErrInvalidScore = errors.New("invalid score value")
	// ErrSectionNotFound indicates a quiz request for a section index the room does not have.
	ErrSectionNotFound = errors.New("invalid section or room")
	// ErrGenerationInProgress is returned when the same quiz is already being generated.
	ErrGenerationInProgress = errors.New("quiz generation already in progress")
	// ErrInvalidPayload indicates an inbound message whose payload failed validation.
	ErrInvalidPayload = errors.New("invalid payload")
)
