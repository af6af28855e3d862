package middleware

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"realtime-board/internal/auth"
	"realtime-board/internal/hub"
	"realtime-board/internal/logging"
)

// accessLocalsKey 보드 접근 정보를 저장하는 Locals 키
const accessLocalsKey = "boardAccess"

// Authorizer 보드 접근 권한 확인 (*hub.Gate 가 만족)
type Authorizer interface {
	Authorize(ctx context.Context, userID, boardID int64) (*hub.Access, error)
}

// BoardMiddleware 보드 권한 미들웨어
type BoardMiddleware struct {
	gate Authorizer
}

// NewBoardMiddleware BoardMiddleware 생성
func NewBoardMiddleware(gate Authorizer) *BoardMiddleware {
	return &BoardMiddleware{gate: gate}
}

// getBoardIDFromContext URL에서 보드 ID 추출
func getBoardIDFromContext(c *fiber.Ctx) (int64, error) {
	idStr := c.Params("boardId")
	if idStr == "" {
		idStr = c.Params("id")
	}
	if idStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "board ID is required")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid board ID")
	}
	return id, nil
}

// RequireBoardMembership 보드가 속한 팀의 멤버 필수
func (m *BoardMiddleware) RequireBoardMembership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := auth.GetClaimsFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		boardID, err := getBoardIDFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid board ID",
			})
		}

		access, err := m.gate.Authorize(c.UserContext(), claims.UserID, boardID)
		if err != nil {
			// 존재하지 않는 보드와 비멤버를 구분하지 않음
			if errors.Is(err, hub.ErrNotAuthorized) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "not a board member",
				})
			}
			logging.Warn().Err(err).Int64("board_id", boardID).Msg("board authorization failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": hub.ErrStoreUnavailable.Error(),
			})
		}

		c.Locals(accessLocalsKey, access)
		return c.Next()
	}
}

// GetBoardAccess RequireBoardMembership 이 저장한 접근 정보 조회
func GetBoardAccess(c *fiber.Ctx) (*hub.Access, bool) {
	access, ok := c.Locals(accessLocalsKey).(*hub.Access)
	return access, ok
}
