package model

import (
	"time"

	"gorm.io/datatypes"
)

// User 사용자 (인증 서비스 소유, 조회 전용)
type User struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email         string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	EmailVerified bool      `gorm:"default:false" json:"email_verified"`
	Avatar        string    `gorm:"type:text" json:"avatar"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Teams []UserTeam `gorm:"foreignKey:UserID" json:"teams,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Team 팀
type Team struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Logo        *string   `gorm:"type:text" json:"logo,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Members []UserTeam `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	Boards  []Board    `gorm:"foreignKey:TeamID" json:"boards,omitempty"`
}

func (Team) TableName() string {
	return "teams"
}

// UserTeam 팀 멤버십 (역할 + 보드 권한)
type UserTeam struct {
	UserID     int64      `gorm:"primaryKey" json:"user_id"`
	TeamID     int64      `gorm:"primaryKey" json:"team_id"`
	Role       TeamRole   `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"role"`
	Permission Permission `gorm:"type:varchar(20);not null;default:'EDIT'" json:"permission"`
	JoinedAt   time.Time  `gorm:"autoCreateTime" json:"joined_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Team Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

func (UserTeam) TableName() string {
	return "user_teams"
}

// Board 보드 (팀 하나에 소속)
type Board struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string  `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	TeamID    int64   `gorm:"not null;index" json:"team_id"`
	OwnerID   int64   `gorm:"not null" json:"owner_id"`
	Logo      *string `gorm:"type:text" json:"logo,omitempty"`
	IsDeleted bool    `gorm:"default:false;index" json:"is_deleted"`
	// 마지막 발표 상태 스냅샷 (발표 중이 아니면 NULL)
	Presentation datatypes.JSON `gorm:"type:jsonb" json:"presentation,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Team   Team    `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Owner  User    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Shapes []Shape `gorm:"foreignKey:BoardID" json:"shapes,omitempty"`
	Paths  []Path  `gorm:"foreignKey:BoardID" json:"paths,omitempty"`
}

func (Board) TableName() string {
	return "boards"
}

// Shape 캔버스 도형 (id 는 클라이언트가 부여)
type Shape struct {
	BoardID   int64          `gorm:"primaryKey" json:"board_id"`
	ID        string         `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null" json:"data"`
	Blocking  bool           `gorm:"default:false" json:"blocking"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Shape) TableName() string {
	return "shapes"
}

// Path 캔버스 자유곡선 (id 는 클라이언트가 부여)
type Path struct {
	BoardID   int64          `gorm:"primaryKey" json:"board_id"`
	ID        string         `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null" json:"data"`
	Blocking  bool           `gorm:"default:false" json:"blocking"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Path) TableName() string {
	return "paths"
}
