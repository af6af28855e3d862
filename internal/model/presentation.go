package model

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// PresenceUser 보드 접속자 정보 (접속 시점 권한 포함)
type PresenceUser struct {
	ID         int64      `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Avatar     string     `json:"avatar"`
	Permission Permission `json:"permission,omitempty"`
}

// NewPresenceUser 사용자와 권한으로 PresenceUser 생성
func NewPresenceUser(u *User, perm Permission) PresenceUser {
	return PresenceUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Avatar:     u.Avatar,
		Permission: perm,
	}
}

// StageConfig 발표자 화면 변환 값
type StageConfig struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Participant 발표 참가자
type Participant struct {
	SocketID string       `json:"socketId"`
	User     PresenceUser `json:"user"`
}

// PresentationSnapshot boards.presentation 컬럼에 저장되는 발표 상태
type PresentationSnapshot struct {
	Presenter         *PresenceUser `json:"presenter"`
	PresenterSocketID string        `json:"presenterSocketId,omitempty"`
	Presentation      *StageConfig  `json:"presentation"`
	Participants      []Participant `json:"participants"`
}

// DecodePresentation 저장된 스냅샷 복원 (없으면 nil)
func (b *Board) DecodePresentation() (*PresentationSnapshot, error) {
	if len(b.Presentation) == 0 || string(b.Presentation) == "null" {
		return nil, nil
	}

	var snap PresentationSnapshot
	if err := json.Unmarshal(b.Presentation, &snap); err != nil {
		return nil, fmt.Errorf("decode presentation for board %d: %w", b.ID, err)
	}
	return &snap, nil
}

// EncodePresentation 스냅샷을 jsonb 값으로 변환 (nil 이면 빈 값)
func EncodePresentation(snap *PresentationSnapshot) (datatypes.JSON, error) {
	if snap == nil {
		return nil, nil
	}
	if snap.Presenter == nil {
		return nil, errors.New("presentation snapshot without presenter")
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode presentation: %w", err)
	}
	return datatypes.JSON(raw), nil
}
