/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package shared

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dyadgames/duetbox/realtime"
	"github.com/dyadgames/duetbox/session"
)

// Command is one raw key transition from the local player's client. The
// peer owns the role-specific interpretation; the client just forwards
// key names.
type Command struct {
	Type string `json:"type"` // "keydown" or "keyup"
	Key  string `json:"key"`
}

// View is the renderable scene pushed to the client.
type View struct {
	Status    string     `json:"status"`
	Role      string     `json:"role,omitempty"`
	Players   int        `json:"players"`
	TimeLeft  int        `json:"timeLeft"`
	Pos       Position   `json:"pos"`
	Jumping   bool       `json:"jumping"`
	Crouching bool       `json:"crouching"`
	Obstacles []Obstacle `json:"obstacles,omitempty"`
	Goal      *Rect      `json:"goal,omitempty"`
}

// ResultFunc is called once when a session ends with a win or a loss.
type ResultFunc func(outcome session.Status, role string, secondsLeft int)

// Peer is one player's entire shared-control session. Each peer simulates
// the full avatar but only writes its own axis; the partner's axis is
// corrected from the wire. Everything runs on the single Run goroutine.
type Peer struct {
	playerID string
	roomCode string
	sub      *realtime.Subscription

	machine      *session.Machine
	clock        *session.Countdown
	engine       *Engine
	role         Role
	mapper       InputMapper
	roleAssigned bool

	local      InputState
	remote     InputState
	players    int
	resultSent bool

	commands chan Command
	views    chan View

	log      *zap.SugaredLogger
	onResult ResultFunc
	newLevel func() *Level

	done      chan struct{}
	closeOnce sync.Once
}

// Join subscribes to the room's channel and announces presence. It returns
// realtime.ErrRoomFull when two players are already inside.
func Join(bus *realtime.Bus, roomCode string, log *zap.SugaredLogger, onResult ResultFunc) (*Peer, error) {
	sub, err := bus.Subscribe(ChannelName(roomCode))
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}

	p := &Peer{
		playerID: session.NewPlayerID(),
		roomCode: roomCode,
		sub:      sub,
		machine:  session.NewMachine(),
		clock:    session.NewCountdown(GameSeconds),
		commands: make(chan Command, 16),
		views:    make(chan View, 16),
		log:      log,
		onResult: onResult,
		newLevel: NewLevel,
		done:     make(chan struct{}),
	}

	if err := sub.Track(realtime.PresenceMeta{
		PlayerID: p.playerID,
		JoinedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		sub.Unsubscribe()
		return nil, err
	}

	return p, nil
}

// PlayerID returns this peer's identity.
func (p *Peer) PlayerID() string { return p.playerID }

// Commands is where the client's key transitions go.
func (p *Peer) Commands() chan<- Command { return p.commands }

// Views is the stream of renderable scenes. Closed when Run exits.
func (p *Peer) Views() <-chan View { return p.views }

// Close tears the session down. Safe to call more than once.
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.sub.Unsubscribe()
	})
}

// Run is the peer's event loop. It owns all session state; no other
// goroutine ever touches it.
func (p *Peer) Run() {
	defer close(p.views)

	countdown := time.NewTicker(time.Second)
	defer countdown.Stop()

	syncTick := time.NewTicker(SyncInterval)
	defer syncTick.Stop()

	events := p.sub.Events()
	presence := p.sub.Presence()

	p.pushView()

	for {
		select {
		case <-p.done:
			return

		case metas, ok := <-presence:
			if !ok {
				events, presence = nil, nil
				p.transportLost()
				continue
			}
			p.onPresence(metas)
			p.pushView()

		case ev, ok := <-events:
			if !ok {
				events, presence = nil, nil
				p.transportLost()
				continue
			}
			p.onEvent(ev)
			p.pushView()

		case cmd := <-p.commands:
			p.onCommand(cmd)
			p.pushView()

		case <-syncTick.C:
			p.broadcastOwnedAxis()

		case <-countdown.C:
			p.onTick()
			p.pushView()
		}
	}
}

func (p *Peer) transportLost() {
	if p.machine.Set(session.Disconnected) {
		p.log.Infow("transport lost", "room", p.roomCode, "player", p.playerID)
	}
	p.pushView()
}

func (p *Peer) onPresence(metas []realtime.PresenceMeta) {
	p.players = len(metas)
	p.machine.ApplyPresence(len(metas))

	if p.roleAssigned || len(metas) < 2 {
		return
	}

	ids := make([]string, len(metas))
	for i, m := range metas {
		ids[i] = m.PlayerID
	}
	idx := session.RoleIndex(ids, p.playerID)
	if idx < 0 {
		return
	}

	p.role = RoleFromIndex(idx)
	p.mapper = MapperForRole(p.role)
	p.roleAssigned = true
	p.engine = NewEngine(p.newLevel())
	p.log.Infow("role assigned", "room", p.roomCode, "player", p.playerID, "role", p.role.String())
}

func (p *Peer) onEvent(ev realtime.Event) {
	switch ev.Name {
	case EventInput:
		var in InputPayload
		if err := json.Unmarshal(ev.Payload, &in); err != nil {
			p.log.Debugw("malformed input payload", "room", p.roomCode, "err", err)
			return
		}
		if in.PlayerID == p.playerID {
			return
		}
		p.remote.Apply(in.Input)

	case EventSyncPos:
		var sp SyncPayload
		if err := json.Unmarshal(ev.Payload, &sp); err != nil {
			p.log.Debugw("malformed sync_pos payload", "room", p.roomCode, "err", err)
			return
		}
		if sp.PlayerID == p.playerID {
			return
		}
		p.reconcile(sp)

	case EventGameState:
		var gs GameStatePayload
		if err := json.Unmarshal(ev.Payload, &gs); err != nil {
			p.log.Debugw("malformed game_state payload", "room", p.roomCode, "err", err)
			return
		}
		if gs.Type != StateGameOver {
			return
		}
		switch gs.Result {
		case ResultWon:
			p.finish(session.Won)
		case ResultLost:
			p.finish(session.Lost)
		}

	default:
		p.log.Debugw("ignoring unknown event", "room", p.roomCode, "event", ev.Name)
	}
}

// reconcile applies a remote coordinate, but only on the axis the partner
// owns. Corrections below the threshold are absorbed.
func (p *Peer) reconcile(sp SyncPayload) {
	if p.engine == nil {
		return
	}
	if p.role.OwnsX() {
		if sp.Y != nil {
			p.engine.SetY(Reconcile(p.engine.Pos().Y, *sp.Y))
		}
	} else {
		if sp.X != nil {
			p.engine.SetX(Reconcile(p.engine.Pos().X, *sp.X))
		}
	}
	p.checkGoal()
}

func (p *Peer) onCommand(cmd Command) {
	if p.machine.Status() != session.Playing || p.engine == nil {
		return
	}

	flag := p.mapper.Map(cmd.Key)
	if flag == "" {
		return
	}
	down := cmd.Type == "keydown"

	delta := Partial{flag: down}
	p.local.Apply(delta)
	p.broadcast(EventInput, InputPayload{PlayerID: p.playerID, Input: delta})

	if down && p.mapper.OwnsFlag(flag) {
		p.step(flag)
	}
}

// step commits one discrete move on the owned axis and immediately
// rebroadcasts the new coordinate, so the partner corrects without
// waiting for the next sync tick.
func (p *Peer) step(flag string) {
	jumping := p.local.Jump || p.remote.Jump
	crouching := p.local.Crouch || p.remote.Crouch

	var moved bool
	switch flag {
	case "left":
		moved = p.engine.StepX(-StepSize, jumping, crouching)
	case "right":
		moved = p.engine.StepX(StepSize, jumping, crouching)
	case "up":
		moved = p.engine.StepY(-StepSize, jumping, crouching)
	case "down":
		moved = p.engine.StepY(StepSize, jumping, crouching)
	}
	if !moved {
		return
	}

	p.broadcastOwnedAxis()
	p.checkGoal()
}

func (p *Peer) broadcastOwnedAxis() {
	if p.engine == nil || p.machine.Status() != session.Playing {
		return
	}
	sp := SyncPayload{PlayerID: p.playerID}
	pos := p.engine.Pos()
	if p.role.OwnsX() {
		sp.X = &pos.X
	} else {
		sp.Y = &pos.Y
	}
	p.broadcast(EventSyncPos, sp)
}

func (p *Peer) checkGoal() {
	if !p.engine.WinOnce() {
		return
	}
	p.finish(session.Won)
	p.broadcast(EventGameState, GameStatePayload{Type: StateGameOver, Result: ResultWon})
}

func (p *Peer) onTick() {
	if p.machine.Status() != session.Playing {
		return
	}
	if p.clock.Tick() {
		p.loseByTimeout()
	}
}

// loseByTimeout ends the session and broadcasts the outcome so the
// partner's independent clock converges on the same result.
func (p *Peer) loseByTimeout() {
	if !p.finish(session.Lost) {
		return
	}
	p.broadcast(EventGameState, GameStatePayload{Type: StateGameOver, Result: ResultLost})
}

func (p *Peer) finish(outcome session.Status) bool {
	if !p.machine.Set(outcome) {
		return false
	}
	if !p.resultSent && p.onResult != nil {
		p.resultSent = true
		p.onResult(outcome, p.role.String(), p.clock.Remaining())
	}
	return true
}

func (p *Peer) broadcast(event string, payload any) {
	if err := p.sub.Broadcast(event, payload); err != nil {
		p.log.Debugw("broadcast failed", "room", p.roomCode, "event", event, "err", err)
	}
}

func (p *Peer) pushView() {
	v := View{
		Status:   p.machine.Status().String(),
		Players:  p.players,
		TimeLeft: p.clock.Remaining(),
	}

	if p.roleAssigned {
		v.Role = p.role.String()
		v.Pos = p.engine.Pos()
		v.Jumping = p.local.Jump || p.remote.Jump
		v.Crouching = p.local.Crouch || p.remote.Crouch
		v.Obstacles = p.engine.Level().Obstacles
		goal := p.engine.Level().Goal
		v.Goal = &goal
	}

	select {
	case p.views <- v:
	default:
		// The client is behind; it only ever needs the latest scene.
	}
}
