package handler

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-board/internal/auth"
	"realtime-board/internal/hub"
	"realtime-board/internal/middleware"
	"realtime-board/internal/model"
	"realtime-board/internal/session"
)

type fakeHub struct {
	users map[int64][]model.Participant
	live  map[int64]*model.PresentationSnapshot
	err   error
}

func (f *fakeHub) Connect(context.Context, *session.Session) error          { return nil }
func (f *fakeHub) Dispatch(context.Context, *session.Session, []byte) error { return nil }
func (f *fakeHub) Disconnect(context.Context, *session.Session) error       { return nil }

func (f *fakeHub) BoardPresence(_ context.Context, boardID int64) ([]model.Participant, error) {
	return f.users[boardID], f.err
}

func (f *fakeHub) LivePresentation(_ context.Context, boardID int64) (*model.PresentationSnapshot, error) {
	return f.live[boardID], f.err
}

type staticGate struct {
	board *model.Board
}

func (g staticGate) Authorize(_ context.Context, userID, _ int64) (*hub.Access, error) {
	return &hub.Access{
		Board:      g.board,
		Membership: &model.UserTeam{UserID: userID, TeamID: g.board.TeamID},
		Permission: model.PermissionEdit,
	}, nil
}

func boardApp(h BoardHub, board *model.Board) *fiber.App {
	app := fiber.New()
	bh := NewBoardHandler(h)
	group := app.Group("/boards/:boardId", func(c *fiber.Ctx) error {
		c.Locals("claims", &auth.Claims{UserID: 1})
		return c.Next()
	}, middleware.NewBoardMiddleware(staticGate{board: board}).RequireBoardMembership())
	group.Get("/presence", bh.GetPresence)
	group.Get("/presentation", bh.GetPresentation)
	return app
}

func getJSON(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && resp.StatusCode == fiber.StatusOK {
		require.NoError(t, json.Unmarshal(body, out))
	}
	return resp.StatusCode
}

func TestGetPresence(t *testing.T) {
	board := &model.Board{ID: 7, TeamID: 1}
	h := &fakeHub{users: map[int64][]model.Participant{
		7: {{SocketID: "s1", User: model.PresenceUser{ID: 1, Username: "alice"}}},
	}}

	var resp PresenceResponse
	status := getJSON(t, boardApp(h, board), "/boards/7/presence", &resp)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, int64(7), resp.BoardID)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "alice", resp.Users[0].User.Username)
}

func TestGetPresenceEmptyIsArray(t *testing.T) {
	app := boardApp(&fakeHub{}, &model.Board{ID: 8, TeamID: 1})

	resp, err := app.Test(httptest.NewRequest("GET", "/boards/8/presence", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"boardId":8,"users":[]}`, string(body))
}

func TestGetPresenceHubStopped(t *testing.T) {
	app := boardApp(&fakeHub{err: hub.ErrHubStopped}, &model.Board{ID: 7, TeamID: 1})
	assert.Equal(t, fiber.StatusServiceUnavailable, getJSON(t, app, "/boards/7/presence", nil))
}

func TestGetPresentationLive(t *testing.T) {
	presenter := model.PresenceUser{ID: 1, Username: "alice"}
	h := &fakeHub{live: map[int64]*model.PresentationSnapshot{
		7: {Presenter: &presenter, Presentation: &model.StageConfig{Scale: 2}},
	}}

	var resp PresentationResponse
	status := getJSON(t, boardApp(h, &model.Board{ID: 7, TeamID: 1}), "/boards/7/presentation", &resp)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, resp.Live)
	require.NotNil(t, resp.Presentation)
	assert.Equal(t, 2.0, resp.Presentation.Presentation.Scale)
}

func TestGetPresentationFallsBackToStored(t *testing.T) {
	presenter := model.PresenceUser{ID: 2, Username: "bob"}
	stored, err := model.EncodePresentation(&model.PresentationSnapshot{Presenter: &presenter})
	require.NoError(t, err)
	board := &model.Board{ID: 7, TeamID: 1, Presentation: stored}

	var resp PresentationResponse
	status := getJSON(t, boardApp(&fakeHub{}, board), "/boards/7/presentation", &resp)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, resp.Live)
	require.NotNil(t, resp.Presentation)
	assert.Equal(t, "bob", resp.Presentation.Presenter.Username)
}

func TestGetPresentationIdle(t *testing.T) {
	app := boardApp(&fakeHub{}, &model.Board{ID: 7, TeamID: 1})

	resp, err := app.Test(httptest.NewRequest("GET", "/boards/7/presentation", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"boardId":7,"live":false,"presentation":null}`, string(body))
}

func TestHealthCheck(t *testing.T) {
	down := errors.New("down")
	tests := []struct {
		name   string
		db     Pinger
		redis  Pinger
		status int
		redisS string
	}{
		{
			name:   "all healthy",
			db:     func(context.Context) error { return nil },
			redis:  func(context.Context) error { return nil },
			status: fiber.StatusOK,
			redisS: "healthy",
		},
		{
			name:   "redis not configured",
			db:     func(context.Context) error { return nil },
			status: fiber.StatusOK,
			redisS: "not_configured",
		},
		{
			name:   "redis down is degraded",
			db:     func(context.Context) error { return nil },
			redis:  func(context.Context) error { return down },
			status: fiber.StatusOK,
			redisS: "degraded",
		},
		{
			name:   "database down",
			db:     func(context.Context) error { return down },
			status: fiber.StatusServiceUnavailable,
			redisS: "not_configured",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, tt.redis)
			app := fiber.New()
			app.Get("/health", h.Check)
			app.Get("/ready", h.Readiness)

			resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body HealthResponse
			raw, _ := io.ReadAll(resp.Body)
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, tt.redisS, body.Checks["redis"].Status)

			ready, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, ready.StatusCode)
		})
	}
}
