package model

// TeamRole 팀 내 역할
type TeamRole string

const (
	TeamRoleOwner  TeamRole = "OWNER"
	TeamRoleMember TeamRole = "MEMBER"
)

func (r TeamRole) String() string {
	return string(r)
}

// Permission 보드 권한
type Permission string

const (
	PermissionView Permission = "VIEW"
	PermissionEdit Permission = "EDIT"
)

func (p Permission) String() string {
	return string(p)
}

// Valid 정의된 권한 값인지 확인
func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}
