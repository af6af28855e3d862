package hub

import (
	"context"

	"realtime-board/internal/model"
)

// BoardFinder 보드 조회 (없으면 service.ErrBoardNotFound)
type BoardFinder interface {
	FindBoard(ctx context.Context, boardID int64) (*model.Board, error)
}

// MembershipFinder 팀 멤버십 조회 (없으면 service.ErrNotTeamMember)
type MembershipFinder interface {
	FindMembership(ctx context.Context, userID, teamID int64) (*model.UserTeam, error)
}

// CanvasStore (보드, 클라이언트 id) 기준 도형/경로 저장소
type CanvasStore interface {
	UpsertShape(ctx context.Context, boardID int64, shapeID string, data []byte) (created bool, err error)
	UpsertPath(ctx context.Context, boardID int64, pathID string, data []byte) (created bool, err error)
	UpdateShape(ctx context.Context, boardID int64, shapeID string, data []byte) error
	UpdatePath(ctx context.Context, boardID int64, pathID string, data []byte) error
}

// PresentationStore 발표 스냅샷 저장 (nil이면 삭제)
type PresentationStore interface {
	SavePresentation(ctx context.Context, boardID int64, snap *model.PresentationSnapshot) error
}

// PresenceMirror 접속자 변경마다 목록 수신 (블록 금지)
type PresenceMirror interface {
	Publish(boardID int64, users []model.Participant)
}

// Stores 허브가 사용하는 저장소 묶음
type Stores struct {
	Boards        BoardFinder
	Members       MembershipFinder
	Canvas        CanvasStore
	Presentations PresentationStore
}
