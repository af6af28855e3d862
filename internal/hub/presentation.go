package hub

import (
	"slices"

	"realtime-board/internal/model"
)

// PresentationState Idle 또는 Presenting
type PresentationState int

const (
	StateIdle PresentationState = iota
	StatePresenting
)

func (s PresentationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePresenting:
		return "presenting"
	default:
		return "unknown"
	}
}

// Presentation 보드 하나의 발표 상태 (전이는 사본을 만들고 저장 성공 후에만 교체)
type Presentation struct {
	boardID       int64
	presenterConn string
	presenter     *model.PresenceUser
	stage         *model.StageConfig

	participants map[string]model.PresenceUser
	order        []string
}

func newPresentation(boardID int64) *Presentation {
	return &Presentation{boardID: boardID, participants: make(map[string]model.PresenceUser)}
}

func (p *Presentation) State() PresentationState {
	if p == nil || p.presenter == nil {
		return StateIdle
	}
	return StatePresenting
}

func (p *Presentation) Active() bool {
	return p.State() == StatePresenting
}

func (p *Presentation) IsPresenter(connID string) bool {
	return p.Active() && p.presenterConn == connID
}

func (p *Presentation) HasParticipant(connID string) bool {
	if p == nil {
		return false
	}
	_, ok := p.participants[connID]
	return ok
}

func (p *Presentation) clone() *Presentation {
	next := &Presentation{
		boardID:       p.boardID,
		presenterConn: p.presenterConn,
		participants:  make(map[string]model.PresenceUser, len(p.participants)),
		order:         slices.Clone(p.order),
	}
	if p.presenter != nil {
		u := *p.presenter
		next.presenter = &u
	}
	if p.stage != nil {
		st := *p.stage
		next.stage = &st
	}
	for id, u := range p.participants {
		next.participants[id] = u
	}
	return next
}

// start connID를 발표자이자 첫 참여자로 하는 Presenting 상태
func (p *Presentation) start(connID string, user model.PresenceUser, stage model.StageConfig) *Presentation {
	next := newPresentation(p.boardID)
	next.presenterConn = connID
	next.presenter = &user
	next.stage = &stage
	next.addParticipant(connID, user)
	return next
}

func (p *Presentation) withParticipant(connID string, user model.PresenceUser) *Presentation {
	next := p.clone()
	next.addParticipant(connID, user)
	return next
}

func (p *Presentation) withoutParticipant(connID string) *Presentation {
	next := p.clone()
	delete(next.participants, connID)
	next.order = slices.DeleteFunc(next.order, func(id string) bool { return id == connID })
	return next
}

func (p *Presentation) withStage(stage model.StageConfig) *Presentation {
	next := p.clone()
	next.stage = &stage
	return next
}

func (p *Presentation) addParticipant(connID string, user model.PresenceUser) {
	if _, ok := p.participants[connID]; !ok {
		p.order = append(p.order, connID)
	}
	p.participants[connID] = user
}

// Participants 발표 참여 순서대로
func (p *Presentation) Participants() []model.Participant {
	if p == nil {
		return []model.Participant{}
	}
	out := make([]model.Participant, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, model.Participant{SocketID: id, User: p.participants[id]})
	}
	return out
}

// Snapshot 저장용 형태 (Idle이면 nil)
func (p *Presentation) Snapshot() *model.PresentationSnapshot {
	if !p.Active() {
		return nil
	}
	presenter := *p.presenter
	snap := &model.PresentationSnapshot{
		Presenter:         &presenter,
		PresenterSocketID: p.presenterConn,
		Participants:      p.Participants(),
	}
	if p.stage != nil {
		st := *p.stage
		snap.Presentation = &st
	}
	return snap
}

func (p *Presentation) view() PresentationView {
	v := PresentationView{
		BoardID:      p.boardID,
		Presenter:    model.Participant{SocketID: p.presenterConn, User: *p.presenter},
		Participants: p.Participants(),
	}
	if p.stage != nil {
		v.Presentation = *p.stage
	}
	return v
}
