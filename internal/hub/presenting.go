package hub

import (
	"context"
	"errors"

	"github.com/goccy/go-json"

	"realtime-board/internal/metrics"
	"realtime-board/internal/model"
	"realtime-board/internal/session"
)

// authorizePresenter 발표 동작 전 멤버십과 접속 여부 재확인
func (h *Hub) authorizePresenter(ctx context.Context, s *session.Session, boardID int64) (model.PresenceUser, error) {
	if _, err := h.gate.Authorize(ctx, s.UserID(), boardID); err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			return model.PresenceUser{}, ErrNotAuthorized
		}
		h.storeFailed("authorize", boardID, s, err)
		return model.PresenceUser{}, ErrStoreUnavailable
	}
	user, ok := h.registry.Lookup(boardID, s.ID)
	if !ok {
		return model.PresenceUser{}, ErrNotViewing
	}
	return user, nil
}

// commit next 저장 후 성공할 때만 현재 상태로 반영
func (h *Hub) commit(ctx context.Context, s *session.Session, next *Presentation, op string) error {
	if err := h.presentations.SavePresentation(ctx, next.boardID, next.Snapshot()); err != nil {
		h.storeFailed(op, next.boardID, s, err)
		return ErrPersistFailed
	}
	h.live[next.boardID] = next
	return nil
}

func (h *Hub) reject(s *session.Session, event string, boardID int64, err error) {
	h.log.Debug().Err(err).Str("event", event).Int64("board_id", boardID).
		Str("conn_id", s.ID).Msg("presentation action rejected")
	h.sendError(s, err)
}

func (h *Hub) onStartPresentation(ctx context.Context, s *session.Session, payload json.RawMessage) {
	var p StagePayload
	if err := decodePayload(payload, &p); err != nil {
		h.reject(s, EventStartPresentation, 0, err)
		return
	}
	user, err := h.authorizePresenter(ctx, s, p.BoardID)
	if err != nil {
		h.reject(s, EventStartPresentation, p.BoardID, err)
		return
	}

	current, ok := h.live[p.BoardID]
	if !ok {
		current = newPresentation(p.BoardID)
	}
	if current.Active() {
		h.reject(s, EventStartPresentation, p.BoardID, ErrPresentationActive)
		return
	}

	next := current.start(s.ID, user, *p.Data)
	if err := h.commit(ctx, s, next, EventStartPresentation); err != nil {
		h.sendError(s, err)
		return
	}
	metrics.ActivePresentations.Inc()

	h.rooms.join(presentationRoom(p.BoardID), s)
	h.emit(EventStartPresentation, next.view(), "", boardRoom(p.BoardID))

	h.log.Info().Int64("board_id", p.BoardID).Str("conn_id", s.ID).
		Int64("user_id", s.UserID()).Msg("presentation started")
}

func (h *Hub) onJoinPresentation(ctx context.Context, s *session.Session, payload json.RawMessage) {
	boardID, err := decodeBoardID(payload)
	if err != nil {
		h.reject(s, EventJoinPresentation, 0, err)
		return
	}
	user, err := h.authorizePresenter(ctx, s, boardID)
	if err != nil {
		h.reject(s, EventJoinPresentation, boardID, err)
		return
	}

	current := h.live[boardID]
	if !current.Active() {
		h.reject(s, EventJoinPresentation, boardID, ErrNoPresentation)
		return
	}

	if !current.HasParticipant(s.ID) {
		next := current.withParticipant(s.ID, user)
		if err := h.commit(ctx, s, next, EventJoinPresentation); err != nil {
			h.sendError(s, err)
			return
		}
		current = next
		h.rooms.join(presentationRoom(boardID), s)
		h.emit(EventPresentationUsers,
			PresentationUsersPayload{BoardID: boardID, Participants: current.Participants()},
			"", boardRoom(boardID))
	}

	// 참여자에게 현재 화면 전달
	h.send(s, EventStartPresentation, current.view())
}

func (h *Hub) onDragWhilePresenting(ctx context.Context, s *session.Session, payload json.RawMessage) {
	var p StagePayload
	if err := decodePayload(payload, &p); err != nil {
		h.reject(s, EventDragWhilePresenting, 0, err)
		return
	}
	if _, err := h.authorizePresenter(ctx, s, p.BoardID); err != nil {
		h.reject(s, EventDragWhilePresenting, p.BoardID, err)
		return
	}

	current := h.live[p.BoardID]
	switch {
	case !current.Active():
		h.reject(s, EventDragWhilePresenting, p.BoardID, ErrNoPresentation)
		return
	case !current.IsPresenter(s.ID):
		h.reject(s, EventDragWhilePresenting, p.BoardID, ErrNotPresenter)
		return
	}

	next := current.withStage(*p.Data)
	if err := h.commit(ctx, s, next, EventDragWhilePresenting); err != nil {
		h.sendError(s, err)
		return
	}
	h.emit(EventDragWhilePresenting, StageEcho{BoardID: p.BoardID, Data: *p.Data},
		s.ID, presentationRoom(p.BoardID))
}

func (h *Hub) onLeavePresentation(ctx context.Context, s *session.Session, payload json.RawMessage) {
	boardID, err := decodeBoardID(payload)
	if err != nil {
		h.reject(s, EventLeavePresentation, 0, err)
		return
	}
	if _, err := h.authorizePresenter(ctx, s, boardID); err != nil {
		h.reject(s, EventLeavePresentation, boardID, err)
		return
	}

	current := h.live[boardID]
	switch {
	case !current.Active():
		h.reject(s, EventLeavePresentation, boardID, ErrNoPresentation)
		return
	case current.IsPresenter(s.ID):
		h.reject(s, EventLeavePresentation, boardID, ErrPresenterMustEnd)
		return
	case !current.HasParticipant(s.ID):
		h.reject(s, EventLeavePresentation, boardID, ErrNotParticipant)
		return
	}

	next := current.withoutParticipant(s.ID)
	if err := h.commit(ctx, s, next, EventLeavePresentation); err != nil {
		h.sendError(s, err)
		return
	}
	h.rooms.leave(presentationRoom(boardID), s.ID)
	h.emit(EventPresentationUsers,
		PresentationUsersPayload{BoardID: boardID, Participants: next.Participants()},
		"", boardRoom(boardID))
	h.send(s, EventLeavePresentation, BoardEvent{BoardID: boardID})
}

func (h *Hub) onEndPresentation(ctx context.Context, s *session.Session, payload json.RawMessage) {
	boardID, err := decodeBoardID(payload)
	if err != nil {
		h.reject(s, EventEndPresentation, 0, err)
		return
	}
	if _, err := h.authorizePresenter(ctx, s, boardID); err != nil {
		h.reject(s, EventEndPresentation, boardID, err)
		return
	}

	current := h.live[boardID]
	switch {
	case !current.Active():
		h.reject(s, EventEndPresentation, boardID, ErrNoPresentation)
		return
	case !current.IsPresenter(s.ID):
		h.reject(s, EventEndPresentation, boardID, ErrNotPresenter)
		return
	}

	if err := h.endPresentation(ctx, s, boardID, false); err != nil {
		h.sendError(s, err)
	}
}

// endPresentation 보드를 Idle로 (force면 저장 실패해도 메모리 정리)
func (h *Hub) endPresentation(ctx context.Context, s *session.Session, boardID int64, force bool) error {
	if err := h.presentations.SavePresentation(ctx, boardID, nil); err != nil {
		h.storeFailed(EventEndPresentation, boardID, s, err)
		if !force {
			return ErrPersistFailed
		}
	}

	delete(h.live, boardID)
	metrics.ActivePresentations.Dec()

	h.emit(EventEndPresentation, BoardEvent{BoardID: boardID}, "",
		presentationRoom(boardID), boardRoom(boardID))
	h.rooms.remove(presentationRoom(boardID))

	h.log.Info().Int64("board_id", boardID).Str("conn_id", s.ID).Bool("forced", force).
		Msg("presentation ended")
	return nil
}

// dropParticipant 나가는 참여자 제거 (저장 실패해도 메모리는 갱신)
func (h *Hub) dropParticipant(ctx context.Context, s *session.Session, current *Presentation) {
	next := current.withoutParticipant(s.ID)
	if err := h.presentations.SavePresentation(ctx, next.boardID, next.Snapshot()); err != nil {
		h.storeFailed(EventLeavePresentation, next.boardID, s, err)
	}
	h.live[next.boardID] = next
	h.emit(EventPresentationUsers,
		PresentationUsersPayload{BoardID: next.boardID, Participants: next.Participants()},
		"", boardRoom(next.boardID))
}
