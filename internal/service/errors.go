package service

import "errors"

var (
	ErrBoardNotFound  = errors.New("board not found")
	ErrNotTeamMember  = errors.New("user is not a member of the board's team")
	ErrUserNotFound   = errors.New("user not found")
	ErrShapeNotFound  = errors.New("shape not found")
	ErrPathNotFound   = errors.New("path not found")
	ErrEmptyElementID = errors.New("element id is required")
)
