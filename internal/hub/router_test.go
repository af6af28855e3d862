package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-board/internal/model"
	"realtime-board/internal/session"
)

func TestJoinBoardBroadcastsPresence(t *testing.T) {
	e := newTestEnv(t)
	a := e.connect("a", alice)
	b := e.connect("b", bob)

	e.join(a, boardSeven)
	joined := only[UserJoinedPayload](t, drain(t, a), EventUserJoined)
	assert.Equal(t, "a", joined.SocketID)
	assert.Equal(t, model.PermissionEdit, joined.User.Permission)
	assert.Equal(t, []string{"a"}, socketIDs(joined.Users))

	e.join(b, boardSeven)
	users := only[[]model.Participant](t, drain(t, a), EventBoardUsers)
	assert.Equal(t, []string{"a", "b"}, socketIDs(users))

	msgs := drain(t, b)
	assert.Equal(t, []string{EventUserJoined}, types(msgs))
	joined = only[UserJoinedPayload](t, msgs, EventUserJoined)
	assert.Equal(t, []string{"a", "b"}, socketIDs(joined.Users))

	assert.Equal(t, session.StateOnBoard, b.GetState())
	mirrored, ok := e.mirror.last(boardSeven)
	require.True(t, ok)
	assert.Len(t, mirrored, 2)
}

func TestJoinBoardResolvesViewPermission(t *testing.T) {
	e := newTestEnv(t)
	c := e.connect("c", carol)

	e.join(c, boardSeven)
	joined := only[UserJoinedPayload](t, drain(t, c), EventUserJoined)
	assert.Equal(t, model.PermissionView, joined.User.Permission)
}

func TestJoinBoardAcceptsObjectPayload(t *testing.T) {
	e := newTestEnv(t)
	a := e.connect("a", alice)

	e.send(a, EventJoinBoard, map[string]int64{"boardId": boardSeven})
	only[UserJoinedPayload](t, drain(t, a), EventUserJoined)
	assert.Equal(t, boardSeven, e.hub.current["a"])
}

func TestJoinBoardFailuresAreSilent(t *testing.T) {
	e := newTestEnv(t)
	e.store.boards[boardEight].IsDeleted = true

	a := e.connect("a", alice)
	e.join(a, boardSeven)
	drain(t, a)

	tests := []struct {
		name    string
		user    int64
		payload any
	}{
		{"not a team member", dave, boardSeven},
		{"unknown board", bob, int64(999)},
		{"soft-deleted board", bob, boardEight},
		{"malformed payload", bob, "seven"},
		{"zero id", bob, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := e.connect("x-"+tt.name, tt.user)
			e.send(s, EventJoinBoard, tt.payload)

			assert.Empty(t, drain(t, s))
			assert.Empty(t, drain(t, a))
			_, onBoard := e.hub.current[s.ID]
			assert.False(t, onBoard)
			assert.Equal(t, []string{"a"}, socketIDs(e.hub.registry.List(boardSeven)))
		})
	}
}

func TestJoinBoardStoreErrorIsSilent(t *testing.T) {
	e := newTestEnv(t)
	e.store.findErr = assert.AnError

	a := e.connect("a", alice)
	e.join(a, boardSeven)

	assert.Empty(t, drain(t, a))
	assert.Empty(t, e.hub.current)
}

func TestSwitchingBoardsDetachesFromPrevious(t *testing.T) {
	e := newTestEnv(t)
	a := e.connect("a", alice)
	b := e.connect("b", bob)
	e.join(a, boardSeven)
	e.join(b, boardSeven)
	drain(t, a)
	drain(t, b)

	e.join(a, boardEight)

	assert.Equal(t, "a", only[string](t, drain(t, b), EventUserLeft))
	assert.Equal(t, []string{"b"}, socketIDs(e.hub.registry.List(boardSeven)))
	assert.Equal(t, []string{"a"}, socketIDs(e.hub.registry.List(boardEight)))
	assert.Equal(t, boardEight, e.hub.current["a"])
	assert.False(t, e.hub.rooms.has(boardRoom(boardSeven), "a"))

	// a connection is in at most one board's presence set
	seen := 0
	for _, boardID := range []int64{boardSeven, boardEight, boardOther} {
		if _, ok := e.hub.registry.Lookup(boardID, "a"); ok {
			seen++
		}
	}
	assert.Equal(t, 1, seen)
}

func TestDuplicateJoinRefreshesEntry(t *testing.T) {
	e := newTestEnv(t)
	a := e.connect("a", alice)
	b := e.connect("b", bob)
	e.join(a, boardSeven)
	e.join(b, boardSeven)
	drain(t, a)

	e.join(b, boardSeven)

	msgs := drain(t, a)
	assert.NotContains(t, types(msgs), EventUserLeft)
	users := only[[]model.Participant](t, msgs, EventBoardUsers)
	assert.Equal(t, []string{"a", "b"}, socketIDs(users))
}

func TestLeaveBoardKeepsConnection(t *testing.T) {
	e := newTestEnv(t)
	a := e.connect("a", alice)
	b := e.connect("b", bob)
	e.join(a, boardSeven)
	e.join(b, boardSeven)
	drain(t, a)

	e.send(b, EventLeaveBoard, boardSeven)

	assert.Equal(t, "b", only[string](t, drain(t, a), EventUserLeft))
	assert.False(t, b.IsClosed())
	assert.Equal(t, session.StateConnected, b.GetState())
	_, onBoard := e.hub.current["b"]
	assert.False(t, onBoard)

	// leaving a board the connection is not on does nothing
	e.send(a, EventLeaveBoard, boardEight)
	assert.Equal(t, boardSeven, e.hub.current["a"])
}

func TestDisconnectBroadcastsUserLeft(t *testing.T) {
	e := newTestEnv(t)
	a := e.connect("a", alice)
	b := e.connect("b", bob)
	e.join(a, boardSeven)
	e.join(b, boardSeven)
	drain(t, a)

	e.disconnect(b)

	assert.Equal(t, "b", only[string](t, drain(t, a), EventUserLeft))
	assert.True(t, b.IsClosed())
	assert.Equal(t, []string{"a"}, socketIDs(e.hub.registry.List(boardSeven)))
	_, known := e.hub.sessions["b"]
	assert.False(t, known)
}

func TestDisconnectWithoutStateIsNoop(t *testing.T) {
	e := newTestEnv(t)
	a := e.connect("a", alice)
	e.join(a, boardSeven)
	drain(t, a)

	stranger := session.New(&model.User{ID: bob}, 4)
	e.disconnect(stranger)
	assert.True(t, stranger.IsClosed())

	idle := e.connect("idle", bob)
	e.disconnect(idle)
	e.disconnect(idle)

	assert.Empty(t, drain(t, a))
}

func TestMessagesAfterDisconnectAreIgnored(t *testing.T) {
	e := newTestEnv(t)
	b := e.connect("b", bob)
	e.disconnect(b)

	e.join(b, boardSeven)
	assert.Empty(t, e.hub.registry.List(boardSeven))
}
