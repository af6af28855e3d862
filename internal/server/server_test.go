package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-board/internal/auth"
	"realtime-board/internal/config"
	"realtime-board/internal/handler"
	"realtime-board/internal/hub"
	"realtime-board/internal/model"
	"realtime-board/internal/service"
	"realtime-board/internal/session"
)

type nopHub struct{}

func (nopHub) Connect(context.Context, *session.Session) error          { return nil }
func (nopHub) Dispatch(context.Context, *session.Session, []byte) error { return nil }
func (nopHub) Disconnect(context.Context, *session.Session) error       { return nil }
func (nopHub) BoardPresence(context.Context, int64) ([]model.Participant, error) {
	return nil, nil
}
func (nopHub) LivePresentation(context.Context, int64) (*model.PresentationSnapshot, error) {
	return nil, nil
}

type userTable map[int64]*model.User

func (u userTable) FindUser(_ context.Context, id int64) (*model.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, service.ErrUserNotFound
}

type denyGate struct{}

func (denyGate) Authorize(context.Context, int64, int64) (*hub.Access, error) {
	return nil, hub.ErrNotAuthorized
}

const testSecret = "test-secret"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.FromEnv(testSecret)
	ok := func(context.Context) error { return nil }
	return New(cfg, Deps{
		Hub:    nopHub{},
		Gate:   denyGate{},
		Users:  userTable{1: {ID: 1, Username: "alice"}},
		Health: handler.NewHealthHandler(ok, nil),
	})
}

func token(t *testing.T, cfg *config.Config, userID int64) string {
	t.Helper()
	m := auth.NewJWTManager(testSecret, time.Minute, cfg.Auth.Issuer)
	tok, err := m.GenerateAccessToken(userID, "", "")
	require.NoError(t, err)
	return tok
}

func TestHealthRoutes(t *testing.T) {
	app := newTestServer(t).App()

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
}

func TestMetricsRoute(t *testing.T) {
	resp, err := newTestServer(t).App().Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBoardRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/boards/7/presence", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/api/boards/7/presence", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, s.cfg, 1))
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWebSocketUpgradeChecks(t *testing.T) {
	s := newTestServer(t)

	upgrade := func(tok string) int {
		req := httptest.NewRequest("GET", "/ws/board", nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		resp, err := s.App().Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	plain, err := s.App().Test(httptest.NewRequest("GET", "/ws/board", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, plain.StatusCode)

	assert.Equal(t, fiber.StatusUnauthorized, upgrade(""))
	assert.Equal(t, fiber.StatusUnauthorized, upgrade("garbage"))
	assert.Equal(t, fiber.StatusUnauthorized, upgrade(token(t, s.cfg, 42)))
}
