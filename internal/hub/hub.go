// Package hub 보드 협업 이벤트 루프
//
// 연결, 수신 메시지, 연결 종료, 조회 모두 하나의 FIFO inbox를 거쳐 Serve 고루틴에서
// 순서대로 처리되므로 접속자/룸/발표 맵에는 락이 없다.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"realtime-board/internal/logging"
	"realtime-board/internal/metrics"
	"realtime-board/internal/model"
	"realtime-board/internal/session"
)

type eventKind int

const (
	kindConnect eventKind = iota
	kindMessage
	kindDisconnect
	kindQuery
)

type event struct {
	kind  eventKind
	sess  *session.Session
	msg   Message
	query func()
	done  chan struct{}
}

type handlerFunc func(h *Hub, ctx context.Context, s *session.Session, payload json.RawMessage)

// handlers 수신 이벤트 라우팅 테이블
var handlers = map[string]handlerFunc{
	EventJoinBoard:           (*Hub).onJoinBoard,
	EventLeaveBoard:          (*Hub).onLeaveBoard,
	EventAddNode:             (*Hub).onAddNode,
	EventAddPath:             (*Hub).onAddPath,
	EventUpdateNode:          (*Hub).onUpdateNode,
	EventUpdatePath:          (*Hub).onUpdatePath,
	EventStartPresentation:   (*Hub).onStartPresentation,
	EventJoinPresentation:    (*Hub).onJoinPresentation,
	EventLeavePresentation:   (*Hub).onLeavePresentation,
	EventDragWhilePresenting: (*Hub).onDragWhilePresenting,
	EventEndPresentation:     (*Hub).onEndPresentation,
	EventPing:                (*Hub).onPing,
}

// Options 허브 설정 (0 값은 기본값)
type Options struct {
	InboxSize    int
	StoreTimeout time.Duration
	Mirror       PresenceMirror
	Now          func() time.Time
}

// Hub 모든 연결의 보드 참여 상태를 소유
type Hub struct {
	gate          *Gate
	canvas        CanvasStore
	presentations PresentationStore
	mirror        PresenceMirror

	inbox        chan event
	storeTimeout time.Duration
	now          func() time.Time
	log          zerolog.Logger

	// 현재 Serve 실행이 끝나면 닫힘
	lifeMu  sync.Mutex
	stopped chan struct{}

	// 이벤트 루프 전용
	sessions map[string]*session.Session
	current  map[string]int64
	rooms    *rooms
	registry *Registry
	live     map[int64]*Presentation
}

func New(stores Stores, opts Options) *Hub {
	if opts.InboxSize <= 0 {
		opts.InboxSize = 1024
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Hub{
		gate:          NewGate(stores.Boards, stores.Members),
		canvas:        stores.Canvas,
		presentations: stores.Presentations,
		mirror:        opts.Mirror,
		inbox:         make(chan event, opts.InboxSize),
		storeTimeout:  opts.StoreTimeout,
		now:           opts.Now,
		log:           logging.With().Str("component", "hub").Logger(),
		stopped:       make(chan struct{}),
		sessions:      make(map[string]*session.Session),
		current:       make(map[string]int64),
		rooms:         newRooms(),
		registry:      NewRegistry(),
		live:          make(map[int64]*Presentation),
	}
}

// Serve ctx 취소까지 이벤트 루프 실행
func (h *Hub) Serve(ctx context.Context) error {
	h.markRunning()
	defer h.markStopped()

	h.log.Info().Msg("board hub started")
	defer h.log.Info().Msg("board hub stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-h.inbox:
			h.process(ctx, ev)
		}
	}
}

func (h *Hub) String() string {
	return "board-hub"
}

// markRunning 재시작 시 새 종료 신호 준비
func (h *Hub) markRunning() {
	h.lifeMu.Lock()
	defer h.lifeMu.Unlock()
	select {
	case <-h.stopped:
		h.stopped = make(chan struct{})
	default:
	}
}

func (h *Hub) markStopped() {
	h.lifeMu.Lock()
	defer h.lifeMu.Unlock()
	select {
	case <-h.stopped:
	default:
		close(h.stopped)
	}
}

// done 현재 실행의 종료 신호. Serve 전에는 열린 채로 이벤트를 쌓아 둔다.
func (h *Hub) done() <-chan struct{} {
	h.lifeMu.Lock()
	defer h.lifeMu.Unlock()
	return h.stopped
}

// Connect 인증된 세션 등록
func (h *Hub) Connect(ctx context.Context, s *session.Session) error {
	if !s.HasIdentity() {
		return ErrNoIdentity
	}
	return h.enqueue(ctx, event{kind: kindConnect, sess: s})
}

// Dispatch 수신 프레임 디코딩 후 같은 연결의 이전 프레임 뒤에 큐잉
func (h *Hub) Dispatch(ctx context.Context, s *session.Session, raw []byte) error {
	msg, err := DecodeMessage(raw)
	if err != nil {
		metrics.EventsDropped.WithLabelValues(metrics.DropMalformed).Inc()
		return err
	}
	return h.enqueue(ctx, event{kind: kindMessage, sess: s, msg: msg})
}

// Disconnect 세션 연결 종료 큐잉
func (h *Hub) Disconnect(ctx context.Context, s *session.Session) error {
	return h.enqueue(ctx, event{kind: kindDisconnect, sess: s})
}

// BoardPresence 보드 현재 접속자 목록
func (h *Hub) BoardPresence(ctx context.Context, boardID int64) ([]model.Participant, error) {
	var users []model.Participant
	err := h.ask(ctx, func() { users = h.registry.List(boardID) })
	return users, err
}

// LivePresentation 메모리의 발표 스냅샷 (Idle이면 nil)
func (h *Hub) LivePresentation(ctx context.Context, boardID int64) (*model.PresentationSnapshot, error) {
	var snap *model.PresentationSnapshot
	err := h.ask(ctx, func() { snap = h.live[boardID].Snapshot() })
	return snap, err
}

func (h *Hub) ask(ctx context.Context, fn func()) error {
	stopped := h.done()
	answered := make(chan struct{})
	if err := h.enqueue(ctx, event{kind: kindQuery, query: fn, done: answered}); err != nil {
		return err
	}
	select {
	case <-answered:
		return nil
	case <-stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue 이벤트를 inbox에 넣음. 허브가 멈췄으면 ErrHubStopped, 호출자가 포기하면 ctx 에러.
func (h *Hub) enqueue(ctx context.Context, ev event) error {
	stopped := h.done()
	select {
	case <-stopped:
		return ErrHubStopped
	default:
	}

	select {
	case h.inbox <- ev:
		return nil
	case <-stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) process(ctx context.Context, ev event) {
	switch ev.kind {
	case kindConnect:
		h.handleConnect(ev.sess)
	case kindDisconnect:
		h.handleDisconnect(ctx, ev.sess)
	case kindMessage:
		h.handleMessage(ctx, ev.sess, ev.msg)
	case kindQuery:
		ev.query()
		close(ev.done)
	}
}

func (h *Hub) handleConnect(s *session.Session) {
	if s.IsClosed() {
		return
	}
	h.sessions[s.ID] = s
	metrics.Connections.Set(float64(len(h.sessions)))
	h.log.Debug().Str("conn_id", s.ID).Int64("user_id", s.UserID()).Msg("connection registered")
}

func (h *Hub) handleDisconnect(ctx context.Context, s *session.Session) {
	defer s.Close()

	if _, ok := h.sessions[s.ID]; !ok {
		return
	}

	if boardID, ok := h.current[s.ID]; ok {
		opCtx, cancel := context.WithTimeout(ctx, h.storeTimeout)
		h.detach(opCtx, s, boardID)
		cancel()
	}

	delete(h.sessions, s.ID)
	metrics.Connections.Set(float64(len(h.sessions)))
	h.log.Debug().Str("conn_id", s.ID).Int64("user_id", s.UserID()).
		Dur("duration", s.Duration()).Msg("connection removed")
}

func (h *Hub) handleMessage(ctx context.Context, s *session.Session, msg Message) {
	// 이미 끊긴 연결의 남은 프레임
	if _, ok := h.sessions[s.ID]; !ok {
		return
	}

	handler, ok := handlers[msg.Type]
	if !ok {
		metrics.EventsDropped.WithLabelValues(metrics.DropUnknownEvent).Inc()
		h.log.Debug().Str("conn_id", s.ID).Str("event", msg.Type).Msg("unknown event")
		return
	}
	metrics.EventsReceived.WithLabelValues(msg.Type).Inc()

	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, h.storeTimeout)
	defer cancel()

	handler(h, opCtx, s, msg.Payload)
	metrics.EventDuration.WithLabelValues(msg.Type).Observe(time.Since(start).Seconds())
}

func (h *Hub) onPing(_ context.Context, s *session.Session, _ json.RawMessage) {
	h.send(s, EventPong, struct{}{})
}

// send 한 연결에 이벤트 전송
func (h *Hub) send(s *session.Session, eventType string, payload any) {
	raw, err := Encode(eventType, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", eventType).Msg("encode failed")
		return
	}
	h.deliver(s, eventType, raw)
}

// emit 룸 멤버 전체에 이벤트 전송 (연결당 한 번)
func (h *Hub) emit(eventType string, payload any, except string, roomNames ...string) {
	targets := h.rooms.recipients(except, roomNames...)
	if len(targets) == 0 {
		return
	}
	raw, err := Encode(eventType, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", eventType).Msg("encode failed")
		return
	}
	for _, s := range targets {
		h.deliver(s, eventType, raw)
	}
}

func (h *Hub) sendError(s *session.Session, err error) {
	h.send(s, EventError, ErrorPayload{Message: err.Error()})
}

func (h *Hub) deliver(s *session.Session, eventType string, raw []byte) {
	if s.IsClosed() {
		return
	}
	if s.Send(raw) {
		metrics.MessagesSent.WithLabelValues(eventType).Inc()
		return
	}
	// 송신 큐 가득 참: 연결을 닫고 정리는 disconnect에서
	metrics.EventsDropped.WithLabelValues(metrics.DropSlowClient).Inc()
	h.log.Warn().Str("conn_id", s.ID).Str("event", eventType).Msg("slow client, closing connection")
	s.Close()
}

func (h *Hub) publishPresence(boardID int64) {
	metrics.BoardsWithViewers.Set(float64(h.registry.BoardCount()))
	if h.mirror != nil {
		h.mirror.Publish(boardID, h.registry.List(boardID))
	}
}

func (h *Hub) storeFailed(op string, boardID int64, s *session.Session, err error) {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	h.log.Error().Err(err).Str("op", op).Int64("board_id", boardID).
		Str("conn_id", s.ID).Msg("store operation failed")
}
