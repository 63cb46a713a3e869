package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"studysync-service/internal/app"
	"studysync-service/internal/domain"
	"studysync-service/internal/roomcode"
)

// Inbound message types on the wire.
const (
	typeCreateRoom   = "create-room"
	typeJoinRoom     = "join-room"
	typeSetName      = "set-name"
	typeSendMessage  = "send-message"
	typeUpdateScore  = "update-score"
	typeGetSections  = "get-sections"
	typeGenerateQuiz = "generate-quiz"
	typeLeaveRoom    = "leave-room"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type createRoomPayload struct {
	RoomID string             `json:"roomId"`
	Config *domain.RoomConfig `json:"config"`
}

type setNamePayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type sendMessagePayload struct {
	RoomID  string `json:"roomId"`
	Message *struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"message"`
}

type updateScorePayload struct {
	RoomID string   `json:"roomId"`
	Score  *float64 `json:"score"`
}

type generateQuizPayload struct {
	RoomID       string `json:"roomId"`
	SectionIndex *int   `json:"sectionIndex"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

// decodeEvent validates an inbound message and turns it into a dispatcher event.
func decodeEvent(msg inboundMessage) (app.Event, error) {
	switch msg.Type {
	case typeCreateRoom:
		var p createRoomPayload
		if err := unmarshalPayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		id, err := requireRoomID(p.RoomID)
		if err != nil {
			return nil, err
		}
		cfg := domain.RoomConfig{}
		if p.Config != nil {
			cfg = *p.Config
		}
		if cfg.QuizInterval < 0 || cfg.QuestionsPerQuiz < 0 {
			return nil, fmt.Errorf("%w: negative room config", domain.ErrInvalidPayload)
		}
		return app.CreateRoom{RoomID: id, Config: cfg}, nil

	case typeJoinRoom, typeGetSections, typeLeaveRoom:
		id, err := decodeRoomRef(msg.Payload)
		if err != nil {
			return nil, err
		}
		switch msg.Type {
		case typeJoinRoom:
			return app.JoinRoom{RoomID: id}, nil
		case typeGetSections:
			return app.GetSections{RoomID: id}, nil
		default:
			return app.LeaveRoom{RoomID: id}, nil
		}

	case typeSetName:
		var p setNamePayload
		if err := unmarshalPayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		id, err := requireRoomID(p.RoomID)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidPayload)
		}
		return app.SetName{RoomID: id, Name: name}, nil

	case typeSendMessage:
		var p sendMessagePayload
		if err := unmarshalPayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		id, err := requireRoomID(p.RoomID)
		if err != nil {
			return nil, err
		}
		if p.Message == nil || p.Message.ID == "" {
			return nil, fmt.Errorf("%w: message with id is required", domain.ErrInvalidPayload)
		}
		return app.SendMessage{RoomID: id, Message: domain.ChatMessage{ID: p.Message.ID, Text: p.Message.Text}}, nil

	case typeUpdateScore:
		var p updateScorePayload
		if err := unmarshalPayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		id, err := requireRoomID(p.RoomID)
		if err != nil {
			return nil, err
		}
		if p.Score == nil {
			return nil, fmt.Errorf("%w: numeric score is required", domain.ErrInvalidPayload)
		}
		return app.UpdateScore{RoomID: id, Score: *p.Score}, nil

	case typeGenerateQuiz:
		var p generateQuizPayload
		if err := unmarshalPayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		id, err := requireRoomID(p.RoomID)
		if err != nil {
			return nil, err
		}
		if p.SectionIndex == nil || *p.SectionIndex < 0 {
			return nil, fmt.Errorf("%w: non-negative sectionIndex is required", domain.ErrInvalidPayload)
		}
		return app.GenerateQuiz{RoomID: id, SectionIndex: *p.SectionIndex}, nil
	}
	return nil, errUnsupportedType
}

var errUnsupportedType = fmt.Errorf("%w: unsupported message type", domain.ErrInvalidPayload)

// errorReply picks the error channel a client expects for a rejected message.
func errorReply(msgType string, err error) app.Outbound {
	if msgType == typeGenerateQuiz {
		return app.QuizError{Message: err.Error()}
	}
	return app.RoomError{Message: err.Error()}
}

func unmarshalPayload(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%w: missing payload", domain.ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}

// decodeRoomRef accepts either a bare room id string or {"roomId": "..."}.
func decodeRoomRef(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
		return requireRoomID(id)
	}
	var p roomPayload
	if err := unmarshalPayload(raw, &p); err != nil {
		return "", err
	}
	return requireRoomID(p.RoomID)
}

func requireRoomID(id string) (string, error) {
	id = roomcode.Normalize(id)
	if id == "" {
		return "", fmt.Errorf("%w: roomId is required", domain.ErrInvalidPayload)
	}
	return id, nil
}
