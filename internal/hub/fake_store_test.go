package hub

import (
	"context"
	"fmt"
	"sync"

	"realtime-board/internal/model"
	"realtime-board/internal/service"
)

// fakeStore is an in-memory stand-in for the GORM services.
type fakeStore struct {
	mu sync.Mutex

	boards    map[int64]*model.Board
	members   map[[2]int64]*model.UserTeam
	shapes    map[string][]byte
	paths     map[string][]byte
	snapshots map[int64]*model.PresentationSnapshot

	findErr   error
	canvasErr error
	saveErr   error
	saves     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		boards:    make(map[int64]*model.Board),
		members:   make(map[[2]int64]*model.UserTeam),
		shapes:    make(map[string][]byte),
		paths:     make(map[string][]byte),
		snapshots: make(map[int64]*model.PresentationSnapshot),
	}
}

func elemKey(boardID int64, id string) string {
	return fmt.Sprintf("%d/%s", boardID, id)
}

func (f *fakeStore) addBoard(id, teamID int64) {
	f.boards[id] = &model.Board{ID: id, Name: fmt.Sprintf("board-%d", id), TeamID: teamID}
}

func (f *fakeStore) addMember(userID, teamID int64, perm model.Permission) {
	f.members[[2]int64{userID, teamID}] = &model.UserTeam{
		UserID: userID, TeamID: teamID, Role: model.TeamRoleMember, Permission: perm,
	}
}

func (f *fakeStore) removeMember(userID, teamID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members, [2]int64{userID, teamID})
}

func (f *fakeStore) FindBoard(_ context.Context, boardID int64) (*model.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	b, ok := f.boards[boardID]
	if !ok || b.IsDeleted {
		return nil, service.ErrBoardNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) FindMembership(_ context.Context, userID, teamID int64) (*model.UserTeam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[[2]int64{userID, teamID}]
	if !ok {
		return nil, service.ErrNotTeamMember
	}
	cp := *m
	return &cp, nil
}

func (f *fakeStore) upsert(dst map[string][]byte, boardID int64, id string, data []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.canvasErr != nil {
		return false, f.canvasErr
	}
	_, exists := dst[elemKey(boardID, id)]
	dst[elemKey(boardID, id)] = append([]byte(nil), data...)
	return !exists, nil
}

func (f *fakeStore) update(dst map[string][]byte, boardID int64, id string, data []byte, notFound error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.canvasErr != nil {
		return f.canvasErr
	}
	if _, exists := dst[elemKey(boardID, id)]; !exists {
		return notFound
	}
	dst[elemKey(boardID, id)] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStore) UpsertShape(_ context.Context, boardID int64, id string, data []byte) (bool, error) {
	return f.upsert(f.shapes, boardID, id, data)
}

func (f *fakeStore) UpsertPath(_ context.Context, boardID int64, id string, data []byte) (bool, error) {
	return f.upsert(f.paths, boardID, id, data)
}

func (f *fakeStore) UpdateShape(_ context.Context, boardID int64, id string, data []byte) error {
	return f.update(f.shapes, boardID, id, data, service.ErrShapeNotFound)
}

func (f *fakeStore) UpdatePath(_ context.Context, boardID int64, id string, data []byte) error {
	return f.update(f.paths, boardID, id, data, service.ErrPathNotFound)
}

func (f *fakeStore) SavePresentation(_ context.Context, boardID int64, snap *model.PresentationSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	if snap == nil {
		delete(f.snapshots, boardID)
		return nil
	}
	f.snapshots[boardID] = snap
	return nil
}

func (f *fakeStore) snapshot(boardID int64) *model.PresentationSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots[boardID]
}

// fakeMirror records presence publications.
type fakeMirror struct {
	mu    sync.Mutex
	calls map[int64][]model.Participant
}

func (m *fakeMirror) Publish(boardID int64, users []model.Participant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[int64][]model.Participant)
	}
	m.calls[boardID] = users
}

func (m *fakeMirror) last(boardID int64) ([]model.Participant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users, ok := m.calls[boardID]
	return users, ok
}
