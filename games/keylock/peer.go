/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package keylock

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dyadgames/duetbox/realtime"
	"github.com/dyadgames/duetbox/session"
)

// Command is one input from the local player's client.
type Command struct {
	Type string `json:"type"`           // "key" or "signal"
	Key  string `json:"key,omitempty"`  // up, down, left, right
	Name string `json:"name,omitempty"` // STOP, GO, CARRY
}

// EntityView is an entity as this role is allowed to see it.
type EntityView struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Hazard string `json:"hazardType,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Color  string `json:"color,omitempty"`
	Opened bool   `json:"opened,omitempty"`
}

// View is the renderable scene pushed to the client. Visibility filtering
// has already happened: the client never receives entities its role may
// not see.
type View struct {
	Status   string       `json:"status"`
	Role     string       `json:"role,omitempty"`
	Players  int          `json:"players"`
	TimeLeft int          `json:"timeLeft"`
	Layout   []string     `json:"layout,omitempty"`
	Entities []EntityView `json:"entities,omitempty"`
	Me       *Position    `json:"me,omitempty"`
	Partner  *Position    `json:"partner,omitempty"`
	Signal   string       `json:"signal,omitempty"`
}

// ResultFunc is called once when a session ends with a win or a loss.
type ResultFunc func(outcome session.Status, role string, secondsLeft int)

// Peer is one player's entire game session: presence handling, role
// assignment, the maze engine, the countdown and the broadcast plumbing.
// Everything runs on the single Run goroutine; the only way in is the
// command channel and the only way out is the view channel.
type Peer struct {
	playerID string
	roomCode string
	sub      *realtime.Subscription

	machine      *session.Machine
	clock        *session.Countdown
	engine       *Engine
	role         Role
	roleAssigned bool

	players    int
	remotePos  *Position
	signal     string
	resultSent bool

	commands chan Command
	views    chan View

	log        *zap.SugaredLogger
	onResult   ResultFunc
	newLevel   func() *Level

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

// Commands is where the client's inputs go.
func (p *Peer) Commands() chan<- Command { return p.commands }

// Views is the stream of renderable scenes. Closed when Run exits.
func (p *Peer) Views() <-chan View { return p.views }

// Close tears the session down: transport subscription, countdown and the
// run loop all stop. Safe to call more than once.
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

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

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

		case <-ticker.C:
			p.onTick()
			p.pushView()
		}
	}
}

// transportLost marks the session disconnected. There is no resume: the
// only way back is a fresh room.
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
	p.roleAssigned = true
	p.engine = NewEngine(p.role, p.newLevel())
	p.log.Infow("role assigned", "room", p.roomCode, "player", p.playerID, "role", p.role.String())
}

func (p *Peer) onEvent(ev realtime.Event) {
	switch ev.Name {
	case EventPlayerMove:
		var mv MovePayload
		if err := json.Unmarshal(ev.Payload, &mv); err != nil {
			p.log.Debugw("malformed player_move payload", "room", p.roomCode, "err", err)
			return
		}
		if mv.PlayerID == p.playerID {
			return
		}
		pos := mv.Pos
		p.remotePos = &pos

	case EventGameEvent:
		var ge GameEventPayload
		if err := json.Unmarshal(ev.Payload, &ge); err != nil {
			p.log.Debugw("malformed game_event payload", "room", p.roomCode, "err", err)
			return
		}
		p.onGameEvent(ge)

	default:
		p.log.Debugw("ignoring unknown event", "room", p.roomCode, "event", ev.Name)
	}
}

func (p *Peer) onGameEvent(ge GameEventPayload) {
	switch ge.Type {
	case GameEventSignal:
		if ge.PlayerID == p.playerID {
			return
		}
		p.signal = ge.Message

	case GameEventHazardHit:
		p.signal = "PARTNER HIT TRAP! " + ge.Message
		if ge.HazardType == HazardTimePenalty.String() {
			if p.clock.Penalize(TimePenaltySeconds) {
				p.loseByTimeout()
			}
		}

	case GameEventKeyCollected:
		if p.engine != nil {
			p.engine.ApplyKeyCollected(ge.EntityID)
		}

	case GameEventGameOver:
		p.finish(session.Lost)

	case GameEventGameWon:
		p.finish(session.Won)

	default:
		p.log.Debugw("ignoring unknown game_event type", "room", p.roomCode, "type", ge.Type)
	}
}

func (p *Peer) onCommand(cmd Command) {
	switch cmd.Type {
	case "key":
		p.onKey(cmd.Key)
	case "signal":
		p.onSignal(cmd.Name)
	}
}

var directions = map[string]Direction{
	"up":    Up,
	"down":  Down,
	"left":  Left,
	"right": Right,
}

func (p *Peer) onKey(key string) {
	if p.machine.Status() != session.Playing || p.engine == nil {
		return
	}
	dir, ok := directions[key]
	if !ok {
		return
	}

	res := p.engine.Move(dir)
	if !res.Moved {
		return
	}

	p.broadcast(EventPlayerMove, MovePayload{
		PlayerID: p.playerID,
		Pos:      res.Pos,
		Role:     p.role.String(),
	})

	if res.CollectedKey != nil {
		p.broadcast(EventGameEvent, GameEventPayload{
			Type:     GameEventKeyCollected,
			EntityID: res.CollectedKey.ID,
			PlayerID: p.playerID,
		})
	}

	if res.HazardHit != nil {
		p.onHazard(res.HazardHit)
	}

	if res.ReachedGoal {
		p.finish(session.Won)
		p.broadcast(EventGameEvent, GameEventPayload{
			Type:          GameEventGameWon,
			TimeRemaining: p.clock.Remaining(),
		})
	}
}

func (p *Peer) onHazard(hazard *Entity) {
	switch hazard.Hazard {
	case HazardTimePenalty:
		expired := p.clock.Penalize(TimePenaltySeconds)
		p.broadcast(EventGameEvent, GameEventPayload{
			Type:       GameEventHazardHit,
			HazardType: HazardTimePenalty.String(),
			Message:    "-30s",
		})
		if expired {
			p.loseByTimeout()
		}

	case HazardInstantDeath:
		p.finish(session.Lost)
		p.broadcast(EventGameEvent, GameEventPayload{
			Type:   GameEventGameOver,
			Reason: "Hit a death trap!",
		})
	}
}

var validSignals = map[string]bool{"STOP": true, "GO": true, "CARRY": true}

func (p *Peer) onSignal(name string) {
	if !validSignals[name] {
		return
	}
	p.broadcast(EventGameEvent, GameEventPayload{
		Type:     GameEventSignal,
		Message:  name,
		PlayerID: p.playerID,
	})
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
	p.broadcast(EventGameEvent, GameEventPayload{
		Type:   GameEventGameOver,
		Reason: "Out of time",
	})
}

// finish moves to a terminal outcome, reporting whether this call did the
// transition. The result hook fires exactly once.
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
		// Contained locally: there is no central authority to report to.
		p.log.Debugw("broadcast failed", "room", p.roomCode, "event", event, "err", err)
	}
}

func (p *Peer) pushView() {
	v := View{
		Status:   p.machine.Status().String(),
		Players:  p.players,
		TimeLeft: p.clock.Remaining(),
		Signal:   p.signal,
	}
	p.signal = ""

	if p.roleAssigned {
		v.Role = p.role.String()
		v.Layout = p.engine.Level().Layout()

		visible := p.engine.VisibleEntities()
		v.Entities = make([]EntityView, 0, len(visible))
		for _, ent := range visible {
			v.Entities = append(v.Entities, EntityView{
				ID:     ent.ID,
				Type:   ent.Type.String(),
				Hazard: ent.Hazard.String(),
				X:      ent.Pos.X,
				Y:      ent.Pos.Y,
				Color:  ent.Color,
				Opened: ent.Opened,
			})
		}

		pos := p.engine.Pos()
		v.Me = &pos
		v.Partner = p.remotePos
	}

	select {
	case p.views <- v:
	default:
		// The client is behind; it only ever needs the latest scene.
	}
}
