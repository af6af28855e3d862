package auth

import "realtime-board/internal/model"

// EffectivePermission 멤버십에서 보드 권한 계산
//
// 팀 소유자는 저장된 값과 무관하게 EDIT. 알 수 없는 값은 VIEW 로 취급.
func EffectivePermission(member *model.UserTeam) model.Permission {
	if member == nil {
		return ""
	}
	if member.Role == model.TeamRoleOwner {
		return model.PermissionEdit
	}
	if !member.Permission.Valid() {
		return model.PermissionView
	}
	return member.Permission
}

// CanEdit 도형/경로 변경 가능 여부
func CanEdit(p model.Permission) bool {
	return p == model.PermissionEdit
}
