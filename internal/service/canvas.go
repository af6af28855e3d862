package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"realtime-board/internal/model"
)

// CanvasService 도형/경로 저장
//
// id 는 클라이언트가 부여하므로 (board_id, id) 기준으로 upsert 한다.
type CanvasService struct {
	db *gorm.DB
}

// NewCanvasService CanvasService 생성
func NewCanvasService(db *gorm.DB) *CanvasService {
	return &CanvasService{db: db}
}

// UpsertShape 도형 생성 또는 덮어쓰기. 새로 만들었으면 true
func (s *CanvasService) UpsertShape(ctx context.Context, boardID int64, shapeID string, data []byte) (bool, error) {
	if shapeID == "" {
		return false, ErrEmptyElementID
	}

	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Shape
		err := tx.Where("board_id = ? AND id = ?", boardID, shapeID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			return tx.Create(&model.Shape{BoardID: boardID, ID: shapeID, Data: datatypes.JSON(data)}).Error
		case err != nil:
			return err
		}
		return tx.Model(&existing).Update("data", datatypes.JSON(data)).Error
	})
	if err != nil {
		return false, fmt.Errorf("upsert shape %s on board %d: %w", shapeID, boardID, err)
	}
	return created, nil
}

// UpsertPath 경로 생성 또는 덮어쓰기. 새로 만들었으면 true
func (s *CanvasService) UpsertPath(ctx context.Context, boardID int64, pathID string, data []byte) (bool, error) {
	if pathID == "" {
		return false, ErrEmptyElementID
	}

	var created bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Path
		err := tx.Where("board_id = ? AND id = ?", boardID, pathID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			return tx.Create(&model.Path{BoardID: boardID, ID: pathID, Data: datatypes.JSON(data)}).Error
		case err != nil:
			return err
		}
		return tx.Model(&existing).Update("data", datatypes.JSON(data)).Error
	})
	if err != nil {
		return false, fmt.Errorf("upsert path %s on board %d: %w", pathID, boardID, err)
	}
	return created, nil
}

// UpdateShape 기존 도형 데이터 교체 (없으면 ErrShapeNotFound)
func (s *CanvasService) UpdateShape(ctx context.Context, boardID int64, shapeID string, data []byte) error {
	result := s.db.WithContext(ctx).Model(&model.Shape{}).
		Where("board_id = ? AND id = ?", boardID, shapeID).
		Update("data", datatypes.JSON(data))
	if result.Error != nil {
		return fmt.Errorf("update shape %s on board %d: %w", shapeID, boardID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrShapeNotFound
	}
	return nil
}

// UpdatePath 기존 경로 데이터 교체 (없으면 ErrPathNotFound)
func (s *CanvasService) UpdatePath(ctx context.Context, boardID int64, pathID string, data []byte) error {
	result := s.db.WithContext(ctx).Model(&model.Path{}).
		Where("board_id = ? AND id = ?", boardID, pathID).
		Update("data", datatypes.JSON(data))
	if result.Error != nil {
		return fmt.Errorf("update path %s on board %d: %w", pathID, boardID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPathNotFound
	}
	return nil
}
