package hub

import (
	"context"
	"errors"

	"github.com/goccy/go-json"

	"realtime-board/internal/metrics"
	"realtime-board/internal/model"
	"realtime-board/internal/session"
)

// onJoinBoard 보드 입장 (실패는 호출자에게 알리지 않아 보드 id 탐색 불가)
func (h *Hub) onJoinBoard(ctx context.Context, s *session.Session, payload json.RawMessage) {
	boardID, err := decodeBoardID(payload)
	if err != nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropMalformed).Inc()
		h.log.Debug().Err(err).Str("conn_id", s.ID).Msg("joinBoard: bad payload")
		return
	}

	access, err := h.gate.Authorize(ctx, s.UserID(), boardID)
	if err != nil {
		h.rejectJoin(s, boardID, err)
		return
	}

	if prev, ok := h.current[s.ID]; ok && prev != boardID {
		h.detach(ctx, s, prev)
	}

	user := model.NewPresenceUser(s.User, access.Permission)
	h.registry.Join(boardID, s.ID, user, h.now())
	h.current[s.ID] = boardID
	h.rooms.join(boardRoom(boardID), s)
	s.SetState(session.StateOnBoard)

	users := h.registry.List(boardID)
	h.emit(EventBoardUsers, users, s.ID, boardRoom(boardID))
	h.send(s, EventUserJoined, UserJoinedPayload{SocketID: s.ID, User: user, Users: users})
	h.publishPresence(boardID)

	h.log.Info().Int64("board_id", boardID).Int64("user_id", s.UserID()).
		Str("conn_id", s.ID).Int("viewers", len(users)).Msg("joined board")
}

func (h *Hub) rejectJoin(s *session.Session, boardID int64, err error) {
	if errors.Is(err, ErrNotAuthorized) {
		metrics.EventsDropped.WithLabelValues(metrics.DropUnauthorized).Inc()
		h.log.Debug().Err(err).Int64("board_id", boardID).Int64("user_id", s.UserID()).
			Msg("joinBoard rejected")
		return
	}
	h.storeFailed("authorize", boardID, s, err)
}

// onLeaveBoard 보드에서만 나가고 연결은 유지
func (h *Hub) onLeaveBoard(ctx context.Context, s *session.Session, payload json.RawMessage) {
	boardID, err := decodeBoardID(payload)
	if err != nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropMalformed).Inc()
		return
	}
	if current, ok := h.current[s.ID]; !ok || current != boardID {
		return
	}
	h.detach(ctx, s, boardID)
}

// detach 보드에서 연결 흔적 제거 (접속자, 발표 역할, 룸) 후 user-left 알림
func (h *Hub) detach(ctx context.Context, s *session.Session, boardID int64) {
	h.registry.Leave(boardID, s.ID)
	delete(h.current, s.ID)
	h.rooms.leave(boardRoom(boardID), s.ID)
	s.SetState(session.StateConnected)

	if pres := h.live[boardID]; pres.Active() {
		switch {
		case pres.IsPresenter(s.ID):
			h.endPresentation(ctx, s, boardID, true)
		case pres.HasParticipant(s.ID):
			h.dropParticipant(ctx, s, pres)
		}
	}
	h.rooms.leave(presentationRoom(boardID), s.ID)

	h.emit(EventUserLeft, s.ID, s.ID, boardRoom(boardID))
	h.publishPresence(boardID)

	h.log.Info().Int64("board_id", boardID).Int64("user_id", s.UserID()).
		Str("conn_id", s.ID).Msg("left board")
}
