package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"realtime-board/internal/model"
)

// State WebSocket 연결 상태
type State int

const (
	StateConnected State = iota // 연결됨, 보드 미참여
	StateOnBoard                // 보드 참여 중
	StateClosed                 // 연결 종료
)

// String 상태를 문자열로 반환
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateOnBoard:
		return "on_board"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session 클라이언트 연결 세션 (Thread-Safe)
//
// Outbound 는 write pump 가 소비하는 송신 큐이며 Close 시 닫힌다.
type Session struct {
	ID          string
	User        *model.User
	ConnectedAt time.Time

	state State
	sent  atomic.Uint64

	// 동시성 제어
	mu sync.RWMutex

	Outbound chan []byte
	ctx      context.Context
	cancel   context.CancelFunc
}

// New 새 세션 생성 (user 가 nil 이면 인증되지 않은 연결)
func New(user *model.User, queueSize int) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		ID:          uuid.New().String(),
		User:        user,
		ConnectedAt: time.Now(),
		state:       StateConnected,
		Outbound:    make(chan []byte, queueSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Context 세션 컨텍스트 반환 (Close 시 취소)
func (s *Session) Context() context.Context {
	return s.ctx
}

// Done 세션 종료 시 닫히는 채널
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// HasIdentity 인증된 사용자 보유 여부
func (s *Session) HasIdentity() bool {
	return s.User != nil && s.User.ID > 0
}

// UserID 사용자 ID (미인증이면 0)
func (s *Session) UserID() int64 {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}

// Send 송신 큐에 메시지 추가. 닫혔거나 큐가 가득 차면 false
func (s *Session) Send(msg []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == StateClosed {
		return false
	}

	select {
	case s.Outbound <- msg:
		s.sent.Add(1)
		return true
	default:
		return false
	}
}

// SetState 상태 전환 (종료된 세션은 변경 불가)
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}
	s.state = state
}

// GetState 현재 상태 조회
func (s *Session) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// SentCount 큐에 넣은 메시지 수
func (s *Session) SentCount() uint64 {
	return s.sent.Load()
}

// Duration 연결 유지 시간
func (s *Session) Duration() time.Duration {
	return time.Since(s.ConnectedAt)
}

// Close 세션 정리 (여러 번 호출해도 안전)
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}

	s.state = StateClosed
	s.cancel()
	close(s.Outbound)
}

// IsClosed 세션 종료 여부 확인
func (s *Session) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state == StateClosed
}
