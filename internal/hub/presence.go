package hub

import (
	"sort"
	"time"

	"realtime-board/internal/model"
)

type presenceEntry struct {
	connID   string
	user     model.PresenceUser
	joinedAt time.Time
}

// Registry 보드별 접속자 목록
type Registry struct {
	boards map[int64]map[string]*presenceEntry
}

func NewRegistry() *Registry {
	return &Registry{boards: make(map[int64]map[string]*presenceEntry)}
}

// Join 항목 추가 또는 갱신 (갱신 시 최초 입장 시각 유지)
func (r *Registry) Join(boardID int64, connID string, user model.PresenceUser, at time.Time) {
	entries, ok := r.boards[boardID]
	if !ok {
		entries = make(map[string]*presenceEntry)
		r.boards[boardID] = entries
	}
	if e, exists := entries[connID]; exists {
		e.user = user
		return
	}
	entries[connID] = &presenceEntry{connID: connID, user: user, joinedAt: at}
}

// Leave 항목 제거, 존재 여부 반환
func (r *Registry) Leave(boardID int64, connID string) bool {
	entries, ok := r.boards[boardID]
	if !ok {
		return false
	}
	if _, exists := entries[connID]; !exists {
		return false
	}
	delete(entries, connID)
	if len(entries) == 0 {
		delete(r.boards, boardID)
	}
	return true
}

// Lookup 연결이 보드에 있으면 해당 사용자 반환
func (r *Registry) Lookup(boardID int64, connID string) (model.PresenceUser, bool) {
	e, ok := r.boards[boardID][connID]
	if !ok {
		return model.PresenceUser{}, false
	}
	return e.user, true
}

// List 입장 시각, 연결 id 순으로 정렬된 접속자 목록
func (r *Registry) List(boardID int64) []model.Participant {
	entries := r.boards[boardID]
	sorted := make([]*presenceEntry, 0, len(entries))
	for _, e := range entries {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].joinedAt.Equal(sorted[j].joinedAt) {
			return sorted[i].joinedAt.Before(sorted[j].joinedAt)
		}
		return sorted[i].connID < sorted[j].connID
	})

	out := make([]model.Participant, len(sorted))
	for i, e := range sorted {
		out[i] = model.Participant{SocketID: e.connID, User: e.user}
	}
	return out
}

// BoardCount 접속자가 있는 보드 수
func (r *Registry) BoardCount() int {
	return len(r.boards)
}
