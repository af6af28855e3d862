package hub

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"realtime-board/internal/model"
	"realtime-board/internal/session"
)

const (
	boardSeven = int64(7)
	boardEight = int64(8)
	boardOther = int64(9)

	alice = int64(1)
	bob   = int64(2)
	carol = int64(3) // view-only
	dave  = int64(4) // other team
)

type testEnv struct {
	t      *testing.T
	ctx    context.Context
	hub    *Hub
	store  *fakeStore
	mirror *fakeMirror
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newFakeStore()
	store.addBoard(boardSeven, 1)
	store.addBoard(boardEight, 1)
	store.addBoard(boardOther, 2)
	store.addMember(alice, 1, model.PermissionEdit)
	store.addMember(bob, 1, model.PermissionEdit)
	store.addMember(carol, 1, model.PermissionView)
	store.addMember(dave, 2, model.PermissionEdit)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mirror := &fakeMirror{}
	h := New(Stores{
		Boards:        store,
		Members:       store,
		Canvas:        store,
		Presentations: store,
	}, Options{
		InboxSize:    16,
		StoreTimeout: time.Second,
		Mirror:       mirror,
		Now: func() time.Time {
			clock = clock.Add(time.Millisecond)
			return clock
		},
	})

	return &testEnv{t: t, ctx: context.Background(), hub: h, store: store, mirror: mirror}
}

// connect registers a session with a fixed id.
func (e *testEnv) connect(connID string, userID int64) *session.Session {
	e.t.Helper()
	s := session.New(&model.User{ID: userID, Username: connID, Email: connID + "@example.com"}, 64)
	s.ID = connID
	e.hub.handleConnect(s)
	return s
}

func (e *testEnv) send(s *session.Session, eventType string, payload any) {
	e.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(e.t, err)
	e.hub.handleMessage(e.ctx, s, Message{Type: eventType, Payload: raw})
}

func (e *testEnv) join(s *session.Session, boardID int64) {
	e.t.Helper()
	e.send(s, EventJoinBoard, boardID)
}

func (e *testEnv) disconnect(s *session.Session) {
	e.hub.handleDisconnect(e.ctx, s)
}

func (e *testEnv) presentation(boardID int64) *Presentation {
	return e.hub.live[boardID]
}

// drain returns every frame queued for the session so far.
func drain(t *testing.T, s *session.Session) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case raw, ok := <-s.Outbound:
			if !ok {
				return out
			}
			var msg Message
			require.NoError(t, json.Unmarshal(raw, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func types(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

// only asserts exactly one frame of the given type and decodes its payload.
func only[T any](t *testing.T, msgs []Message, eventType string) T {
	t.Helper()
	var found []Message
	for _, m := range msgs {
		if m.Type == eventType {
			found = append(found, m)
		}
	}
	require.Len(t, found, 1, "expected one %q in %v", eventType, types(msgs))

	var payload T
	require.NoError(t, json.Unmarshal(found[0].Payload, &payload))
	return payload
}

func socketIDs(users []model.Participant) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.SocketID
	}
	return out
}

func stage(scale, x, y float64) map[string]any {
	return map[string]any{"scale": scale, "x": x, "y": y}
}
