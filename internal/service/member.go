package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"realtime-board/internal/model"
)

// MemberService 팀 멤버십/사용자 조회
type MemberService struct {
	db *gorm.DB
}

// NewMemberService MemberService 생성
func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// FindMembership 팀 멤버십 조회 (없으면 ErrNotTeamMember)
func (s *MemberService) FindMembership(ctx context.Context, userID, teamID int64) (*model.UserTeam, error) {
	var member model.UserTeam
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND team_id = ?", userID, teamID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("find membership user=%d team=%d: %w", userID, teamID, err)
	}
	return &member, nil
}

// FindUser 사용자 조회
func (s *MemberService) FindUser(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}
	return &user, nil
}
