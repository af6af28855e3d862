package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"realtime-board/internal/model"
)

// BoardService 보드 조회 및 발표 스냅샷 저장
type BoardService struct {
	db *gorm.DB
}

// NewBoardService BoardService 생성
func NewBoardService(db *gorm.DB) *BoardService {
	return &BoardService{db: db}
}

// FindBoard 보드 조회 (삭제된 보드는 ErrBoardNotFound)
func (s *BoardService) FindBoard(ctx context.Context, boardID int64) (*model.Board, error) {
	var board model.Board
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", boardID, false).
		First(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("find board %d: %w", boardID, err)
	}
	return &board, nil
}

// SavePresentation 발표 스냅샷 저장 (nil 이면 NULL 로 초기화)
func (s *BoardService) SavePresentation(ctx context.Context, boardID int64, snap *model.PresentationSnapshot) error {
	var value interface{} = gorm.Expr("NULL")
	if snap != nil {
		raw, err := model.EncodePresentation(snap)
		if err != nil {
			return err
		}
		value = raw
	}

	result := s.db.WithContext(ctx).Model(&model.Board{}).
		Where("id = ?", boardID).
		Update("presentation", value)
	if result.Error != nil {
		return fmt.Errorf("save presentation for board %d: %w", boardID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBoardNotFound
	}
	return nil
}

// CountPresentations 스냅샷이 남아 있는 보드 수
func (s *BoardService) CountPresentations(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Board{}).
		Where("presentation IS NOT NULL AND is_deleted = ?", false).
		Count(&count).Error
	return count, err
}

// ClearPresentations 모든 보드의 발표 스냅샷 초기화
func (s *BoardService) ClearPresentations(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.Board{}).
		Where("presentation IS NOT NULL").
		Update("presentation", gorm.Expr("NULL"))
	return result.RowsAffected, result.Error
}
