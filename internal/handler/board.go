package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"realtime-board/internal/logging"
	"realtime-board/internal/middleware"
	"realtime-board/internal/model"
	"realtime-board/internal/session"
)

// BoardHub 보드 허브 연산 (*hub.Hub 가 만족)
type BoardHub interface {
	Connect(ctx context.Context, s *session.Session) error
	Dispatch(ctx context.Context, s *session.Session, raw []byte) error
	Disconnect(ctx context.Context, s *session.Session) error
	BoardPresence(ctx context.Context, boardID int64) ([]model.Participant, error)
	LivePresentation(ctx context.Context, boardID int64) (*model.PresentationSnapshot, error)
}

// BoardHandler 보드 실시간 상태 조회 핸들러
type BoardHandler struct {
	hub BoardHub
}

// NewBoardHandler BoardHandler 생성
func NewBoardHandler(hub BoardHub) *BoardHandler {
	return &BoardHandler{hub: hub}
}

// PresenceResponse 보드 접속자 응답
type PresenceResponse struct {
	BoardID int64               `json:"boardId"`
	Users   []model.Participant `json:"users"`
}

// PresentationResponse 발표 상태 응답 (live=false 면 저장된 스냅샷)
type PresentationResponse struct {
	BoardID      int64                       `json:"boardId"`
	Live         bool                        `json:"live"`
	Presentation *model.PresentationSnapshot `json:"presentation"`
}

// GetPresence 보드 현재 접속자 목록
func (h *BoardHandler) GetPresence(c *fiber.Ctx) error {
	access, ok := middleware.GetBoardAccess(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "board access required"})
	}

	users, err := h.hub.BoardPresence(c.UserContext(), access.Board.ID)
	if err != nil {
		logging.Warn().Err(err).Int64("board_id", access.Board.ID).Msg("presence query failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "board hub unavailable"})
	}
	if users == nil {
		users = []model.Participant{}
	}

	return c.JSON(PresenceResponse{BoardID: access.Board.ID, Users: users})
}

// GetPresentation 진행 중인 발표 상태 (메모리에 없으면 DB 스냅샷)
func (h *BoardHandler) GetPresentation(c *fiber.Ctx) error {
	access, ok := middleware.GetBoardAccess(c)
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "board access required"})
	}
	boardID := access.Board.ID

	snap, err := h.hub.LivePresentation(c.UserContext(), boardID)
	if err != nil {
		logging.Warn().Err(err).Int64("board_id", boardID).Msg("presentation query failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "board hub unavailable"})
	}
	if snap != nil {
		return c.JSON(PresentationResponse{BoardID: boardID, Live: true, Presentation: snap})
	}

	stored, err := access.Board.DecodePresentation()
	if err != nil {
		logging.Error().Err(err).Int64("board_id", boardID).Msg("stored presentation is corrupt")
		stored = nil
	}
	return c.JSON(PresentationResponse{BoardID: boardID, Presentation: stored})
}
