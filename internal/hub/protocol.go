package hub

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"realtime-board/internal/model"
	"realtime-board/internal/validation"
)

// 수신 이벤트
const (
	EventJoinBoard           = "joinBoard"
	EventLeaveBoard          = "leaveBoard"
	EventAddNode             = "add-node"
	EventAddPath             = "add-path"
	EventUpdateNode          = "update-node"
	EventUpdatePath          = "update-path"
	EventStartPresentation   = "start-presentation"
	EventJoinPresentation    = "join-presentation"
	EventLeavePresentation   = "leave-presentation"
	EventDragWhilePresenting = "drag-while-presenting"
	EventEndPresentation     = "end-presentation"
	EventPing                = "ping"
)

// 송신 전용 이벤트
const (
	EventBoardUsers        = "board-users"
	EventUserJoined        = "user-joined"
	EventUserLeft          = "user-left"
	EventPresentationUsers = "presentation-users"
	EventError             = "error"
	EventPong              = "pong"
)

var ErrMalformedPayload = errors.New("malformed payload")

// Message 송수신 공통 프레임
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeMessage 수신 텍스트 프레임 파싱
func DecodeMessage(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformedPayload)
	}
	return msg, nil
}

// Encode 송신 프레임 생성
func Encode(eventType string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return json.Marshal(Message{Type: eventType, Payload: body})
}

// boardRef 보드 id 숫자 또는 {"boardId": n}
type boardRef struct {
	BoardID int64 `json:"boardId" validate:"gt=0"`
}

func decodeBoardID(raw json.RawMessage) (int64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0, fmt.Errorf("%w: empty board reference", ErrMalformedPayload)
	}

	var ref boardRef
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
	} else if err := json.Unmarshal(trimmed, &ref.BoardID); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if err := validation.ValidateStruct(&ref); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return ref.BoardID, nil
}

// ElementPayload add-node / add-path 요청 (요소 id는 data.id)
type ElementPayload struct {
	BoardID int64           `json:"boardId" validate:"gt=0"`
	Data    json.RawMessage `json:"data" validate:"required"`
}

// NodeUpdatePayload update-node 요청
type NodeUpdatePayload struct {
	BoardID int64           `json:"boardId" validate:"gt=0"`
	NodeID  ElementKey      `json:"nodeId" validate:"required,max=255"`
	Data    json.RawMessage `json:"data" validate:"required"`
}

// PathUpdatePayload update-path 요청
type PathUpdatePayload struct {
	BoardID int64           `json:"boardId" validate:"gt=0"`
	PathID  ElementKey      `json:"pathId" validate:"required,max=255"`
	Data    json.RawMessage `json:"data" validate:"required"`
}

// StagePayload start-presentation / drag-while-presenting 요청
type StagePayload struct {
	BoardID int64              `json:"boardId" validate:"gt=0"`
	Data    *model.StageConfig `json:"data" validate:"required"`
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := validation.ValidateStruct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// ElementKey 클라이언트가 정한 도형/경로 id. 문자열과 숫자 둘 다 받아 문자열로 보관
type ElementKey string

func (k *ElementKey) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*k = ElementKey(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("element id must be a string or a number: %w", err)
	}
	*k = ElementKey(n.String())
	return nil
}

// elementID add-node / add-path 본문의 data.id
func elementID(data json.RawMessage) (string, error) {
	var head struct {
		ID ElementKey `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("%w: data.id: %v", ErrMalformedPayload, err)
	}
	if head.ID == "" || len(head.ID) > 255 {
		return "", fmt.Errorf("%w: data.id is required", ErrMalformedPayload)
	}
	return string(head.ID), nil
}

// 송신 페이로드

type UserJoinedPayload struct {
	SocketID string              `json:"socketId"`
	User     model.PresenceUser  `json:"user"`
	Users    []model.Participant `json:"users"`
}

type ElementEcho struct {
	BoardID int64           `json:"boardId"`
	Data    json.RawMessage `json:"data"`
}

type NodeEcho struct {
	BoardID int64           `json:"boardId"`
	NodeID  string          `json:"nodeId"`
	Data    json.RawMessage `json:"data"`
}

type PathEcho struct {
	BoardID int64           `json:"boardId"`
	PathID  string          `json:"pathId"`
	Data    json.RawMessage `json:"data"`
}

// PresentationView start-presentation 과 함께 보내는 발표 전체 상태
type PresentationView struct {
	BoardID      int64               `json:"boardId"`
	Presenter    model.Participant   `json:"presenter"`
	Presentation model.StageConfig   `json:"presentation"`
	Participants []model.Participant `json:"participants"`
}

type PresentationUsersPayload struct {
	BoardID      int64               `json:"boardId"`
	Participants []model.Participant `json:"participants"`
}

type StageEcho struct {
	BoardID int64             `json:"boardId"`
	Data    model.StageConfig `json:"data"`
}

type BoardEvent struct {
	BoardID int64 `json:"boardId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
