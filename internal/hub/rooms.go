package hub

import (
	"fmt"

	"realtime-board/internal/session"
)

func boardRoom(boardID int64) string {
	return fmt.Sprintf("board:%d", boardID)
}

func presentationRoom(boardID int64) string {
	return fmt.Sprintf("board-presentation:%d", boardID)
}

// rooms 이름 붙은 브로드캐스트 그룹 (허브 루프 전용)
type rooms struct {
	members map[string]map[string]*session.Session
}

func newRooms() *rooms {
	return &rooms{members: make(map[string]map[string]*session.Session)}
}

func (r *rooms) join(room string, s *session.Session) {
	m, ok := r.members[room]
	if !ok {
		m = make(map[string]*session.Session)
		r.members[room] = m
	}
	m[s.ID] = s
}

func (r *rooms) leave(room, connID string) {
	m, ok := r.members[room]
	if !ok {
		return
	}
	delete(m, connID)
	if len(m) == 0 {
		delete(r.members, room)
	}
}

func (r *rooms) remove(room string) {
	delete(r.members, room)
}

func (r *rooms) has(room, connID string) bool {
	_, ok := r.members[room][connID]
	return ok
}

func (r *rooms) size(room string) int {
	return len(r.members[room])
}

// recipients 룸 멤버를 한 번씩 나열 (except 제외)
func (r *rooms) recipients(except string, names ...string) []*session.Session {
	seen := make(map[string]struct{})
	var out []*session.Session
	for _, name := range names {
		for id, s := range r.members[name] {
			if id == except {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
