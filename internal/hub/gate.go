package hub

import (
	"context"
	"errors"
	"fmt"

	"realtime-board/internal/auth"
	"realtime-board/internal/model"
	"realtime-board/internal/service"
)

// Access 보드 인가 결과
type Access struct {
	Board      *model.Board
	Membership *model.UserTeam
	Permission model.Permission
}

// Gate 보드 존재 여부와 팀 멤버십 확인 (멤버십은 바뀔 수 있으므로 캐시하지 않음)
type Gate struct {
	boards  BoardFinder
	members MembershipFinder
}

func NewGate(boards BoardFinder, members MembershipFinder) *Gate {
	return &Gate{boards: boards, members: members}
}

// Authorize 보드 접근 권한 확인 (없는 보드와 비멤버는 ErrNotAuthorized, 저장소 오류는 그대로)
func (g *Gate) Authorize(ctx context.Context, userID, boardID int64) (*Access, error) {
	board, err := g.boards.FindBoard(ctx, boardID)
	if err != nil {
		if errors.Is(err, service.ErrBoardNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotAuthorized, err)
		}
		return nil, err
	}

	member, err := g.members.FindMembership(ctx, userID, board.TeamID)
	if err != nil {
		if errors.Is(err, service.ErrNotTeamMember) {
			return nil, fmt.Errorf("%w: %w", ErrNotAuthorized, err)
		}
		return nil, err
	}

	return &Access{
		Board:      board,
		Membership: member,
		Permission: auth.EffectivePermission(member),
	}, nil
}
