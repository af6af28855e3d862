package hub

import (
	"context"
	"errors"

	"github.com/goccy/go-json"

	"realtime-board/internal/auth"
	"realtime-board/internal/metrics"
	"realtime-board/internal/service"
	"realtime-board/internal/session"
)

// authorizeEdit 보드를 보고 있고 아직 편집 권한이 있는지 확인
func (h *Hub) authorizeEdit(ctx context.Context, s *session.Session, boardID int64) error {
	if current, ok := h.current[s.ID]; !ok || current != boardID {
		return ErrNotViewing
	}
	access, err := h.gate.Authorize(ctx, s.UserID(), boardID)
	if err != nil {
		return err
	}
	if !auth.CanEdit(access.Permission) {
		return ErrReadOnly
	}
	return nil
}

// dropMutation 거부된 변경 기록 (클라이언트에는 알리지 않음)
func (h *Hub) dropMutation(s *session.Session, event string, boardID int64, err error) {
	switch {
	case errors.Is(err, ErrMalformedPayload):
		metrics.EventsDropped.WithLabelValues(metrics.DropMalformed).Inc()
	case errors.Is(err, ErrNotViewing), errors.Is(err, ErrReadOnly), errors.Is(err, ErrNotAuthorized):
		metrics.EventsDropped.WithLabelValues(metrics.DropUnauthorized).Inc()
	case errors.Is(err, service.ErrShapeNotFound), errors.Is(err, service.ErrPathNotFound):
		metrics.EventsDropped.WithLabelValues(metrics.DropNotFound).Inc()
	default:
		h.storeFailed(event, boardID, s, err)
		return
	}
	h.log.Debug().Err(err).Str("event", event).Int64("board_id", boardID).
		Str("conn_id", s.ID).Msg("mutation dropped")
}

func (h *Hub) onAddNode(ctx context.Context, s *session.Session, payload json.RawMessage) {
	h.addElement(ctx, s, payload, EventAddNode)
}

func (h *Hub) onAddPath(ctx context.Context, s *session.Session, payload json.RawMessage) {
	h.addElement(ctx, s, payload, EventAddPath)
}

// addElement 클라이언트 id 기준 upsert (이미 있는 id면 update 이벤트로 브로드캐스트)
func (h *Hub) addElement(ctx context.Context, s *session.Session, payload json.RawMessage, event string) {
	var p ElementPayload
	if err := decodePayload(payload, &p); err != nil {
		h.dropMutation(s, event, 0, err)
		return
	}
	id, err := elementID(p.Data)
	if err != nil {
		h.dropMutation(s, event, p.BoardID, err)
		return
	}
	if err := h.authorizeEdit(ctx, s, p.BoardID); err != nil {
		h.dropMutation(s, event, p.BoardID, err)
		return
	}

	upsert := h.canvas.UpsertShape
	if event == EventAddPath {
		upsert = h.canvas.UpsertPath
	}
	created, err := upsert(ctx, p.BoardID, id, p.Data)
	if err != nil {
		h.dropMutation(s, event, p.BoardID, err)
		return
	}

	room := boardRoom(p.BoardID)
	switch {
	case created:
		h.emit(event, ElementEcho{BoardID: p.BoardID, Data: p.Data}, s.ID, room)
	case event == EventAddPath:
		h.emit(EventUpdatePath, PathEcho{BoardID: p.BoardID, PathID: id, Data: p.Data}, s.ID, room)
	default:
		h.emit(EventUpdateNode, NodeEcho{BoardID: p.BoardID, NodeID: id, Data: p.Data}, s.ID, room)
	}
}

// onUpdateNode 기존 도형 교체 (없는 id는 생성하지 않고 무시)
func (h *Hub) onUpdateNode(ctx context.Context, s *session.Session, payload json.RawMessage) {
	var p NodeUpdatePayload
	if err := decodePayload(payload, &p); err != nil {
		h.dropMutation(s, EventUpdateNode, 0, err)
		return
	}
	if err := h.authorizeEdit(ctx, s, p.BoardID); err != nil {
		h.dropMutation(s, EventUpdateNode, p.BoardID, err)
		return
	}
	if err := h.canvas.UpdateShape(ctx, p.BoardID, string(p.NodeID), p.Data); err != nil {
		h.dropMutation(s, EventUpdateNode, p.BoardID, err)
		return
	}
	h.emit(EventUpdateNode, NodeEcho{BoardID: p.BoardID, NodeID: string(p.NodeID), Data: p.Data}, s.ID, boardRoom(p.BoardID))
}

// onUpdatePath 기존 경로 교체 (없는 id는 생성하지 않고 무시)
func (h *Hub) onUpdatePath(ctx context.Context, s *session.Session, payload json.RawMessage) {
	var p PathUpdatePayload
	if err := decodePayload(payload, &p); err != nil {
		h.dropMutation(s, EventUpdatePath, 0, err)
		return
	}
	if err := h.authorizeEdit(ctx, s, p.BoardID); err != nil {
		h.dropMutation(s, EventUpdatePath, p.BoardID, err)
		return
	}
	if err := h.canvas.UpdatePath(ctx, p.BoardID, string(p.PathID), p.Data); err != nil {
		h.dropMutation(s, EventUpdatePath, p.BoardID, err)
		return
	}
	h.emit(EventUpdatePath, PathEcho{BoardID: p.BoardID, PathID: string(p.PathID), Data: p.Data}, s.ID, boardRoom(p.BoardID))
}
