// File: game/room_actor.go
package game

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/lguibr/bollywood"
	"github.com/quadball-arena/quadball/utils"
	"golang.org/x/net/websocket"
)

// RoomActor runs one room's simulation. It is the sole writer of the room's
// GameState: game sockets post inputs into its mailbox, a ticker goroutine
// posts GameTick, and broadcasts go out through a child BroadcasterActor so a
// slow client can never block a tick.
type RoomActor struct {
	cfg    utils.Config
	roomID string
	state  *GameState
	logic  *Logic

	engine         *bollywood.Engine
	selfPID        *bollywood.PID
	broadcasterPID *bollywood.PID
	ticker         *time.Ticker
	stopTickerCh   chan struct{}

	// Pending inputs drained at the start of each tick. Movement coalesces
	// per player; throws keep arrival order.
	moves  map[string]utils.Vec2
	throws []string

	conns     map[string]*websocket.Conn
	connected map[string]bool
	// pauseKnocked marks players whose current knockout is the disconnect
	// pause rather than a beat. Only those are lifted on reconnect.
	pauseKnocked map[string]bool
	eventCount   int

	// onClose removes the room from the registry when the actor tears the
	// room down on its own (invariant violation).
	onClose func(roomID string)
}

// NewRoomActorProducer creates a producer for a RoomActor bound to a prepared
// kickoff-ready state.
func NewRoomActorProducer(engine *bollywood.Engine, roomID string, state *GameState, onClose func(roomID string)) bollywood.Producer {
	return func() bollywood.Actor {
		return &RoomActor{
			cfg:          state.Config(),
			roomID:       roomID,
			state:        state,
			logic:        NewLogic(state),
			engine:       engine,
			stopTickerCh: make(chan struct{}),
			moves:        make(map[string]utils.Vec2),
			conns:        make(map[string]*websocket.Conn),
			connected:    make(map[string]bool),
			pauseKnocked: make(map[string]bool),
			onClose:      onClose,
		}
	}
}

// Receive is the main message handler for the RoomActor.
func (a *RoomActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			pidStr := "unknown"
			if a.selfPID != nil {
				pidStr = a.selfPID.String()
			}
			fmt.Printf("PANIC recovered in RoomActor %s Receive: %v\nStack trace:\n%s\n", pidStr, r, string(debug.Stack()))
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch m := ctx.Message().(type) {
	case bollywood.Started:
		fmt.Printf("RoomActor %s: room %s started with %d players.\n", a.selfPID, a.roomID, len(a.state.Players()))
		broadcasterProps := bollywood.NewProps(NewBroadcasterProducer(a.selfPID))
		a.broadcasterPID = a.engine.Spawn(broadcasterProps)
		a.ticker = time.NewTicker(a.cfg.GameTickPeriod)
		go a.runTickerLoop()

	case *GameTick:
		a.handleTick()

	case PlayerConnect:
		a.handlePlayerConnect(m.PlayerID, m.Conn)

	case PlayerDisconnect:
		a.handlePlayerDisconnect(m.PlayerID, m.Conn)

	case MoveInput:
		if a.connected[m.PlayerID] {
			a.moves[m.PlayerID] = m.Direction
		}

	case ThrowInput:
		if a.connected[m.PlayerID] {
			a.throws = append(a.throws, m.PlayerID)
		}

	case GetInitialStateRequest:
		ctx.Reply(NewInitialStateMessage(a.state))

	case internalGetStateRequest:
		knockedOut := 0
		for _, p := range a.state.Players() {
			if p.IsKnockedOut {
				knockedOut++
			}
		}
		ctx.Reply(internalGetStateResponse{
			Score:      a.state.Score,
			GameTime:   a.state.GameTime,
			DelayBin:   a.state.DelayBin,
			Events:     a.eventCount,
			KnockedOut: knockedOut,
		})

	case bollywood.Stopping:
		fmt.Printf("RoomActor %s: room %s stopping.\n", a.selfPID, a.roomID)
		a.stopTicker()
		if a.broadcasterPID != nil {
			a.engine.Stop(a.broadcasterPID)
			a.broadcasterPID = nil
		}
		for _, ws := range a.conns {
			if ws != nil {
				_ = ws.Close()
			}
		}
		a.conns = make(map[string]*websocket.Conn)

	case bollywood.Stopped:
		// Actor stopped

	default:
		fmt.Printf("RoomActor %s: Received unknown message type: %T\n", a.selfPID, m)
	}
}

// handleTick drains pending inputs, advances the simulation one step, and
// broadcasts the resulting frame. An invariant violation tears down this room
// only.
func (a *RoomActor) handleTick() {
	// Disconnected players stay down until their socket returns. A knockout
	// earned from a beat keeps counting down on its own; the pause takes over
	// once it expires.
	for _, p := range a.state.Players() {
		if a.connected[p.ID] {
			continue
		}
		if p.IsKnockedOut && !a.pauseKnocked[p.ID] {
			continue
		}
		if p.HasBall() {
			if held := a.state.Ball(p.HeldBallID); held != nil {
				held.HolderID = ""
				held.Velocity = p.Velocity
			}
			p.HeldBallID = ""
		}
		p.KnockOut(a.cfg.KnockoutDuration)
		a.pauseKnocked[p.ID] = true
	}

	inputs := TickInputs{Moves: a.moves, Throws: a.throws}
	a.moves = make(map[string]utils.Vec2)
	a.throws = nil

	dt := 1.0 / float64(a.cfg.TickHz)
	events := a.logic.Step(dt, inputs)
	a.eventCount += len(events)

	if err := a.state.Validate(); err != nil {
		fmt.Printf("ERROR: RoomActor %s: invariant violation in room %s, tearing room down: %v\n", a.selfPID, a.roomID, err)
		if a.onClose != nil {
			a.onClose(a.roomID)
		}
		a.engine.Stop(a.selfPID)
		return
	}

	if a.broadcasterPID == nil {
		return
	}
	a.engine.Send(a.broadcasterPID, BroadcastFrame{Data: EncodeStateV3(a.state)}, a.selfPID)
	for _, ev := range events {
		a.engine.Send(a.broadcasterPID, BroadcastJSON{Message: StateUpdateMessage{
			Type:           "state_update",
			Event:          ev.Type,
			Team:           ev.Team,
			Score:          a.state.Score,
			GameTime:       a.state.GameTime,
			DelayBin:       a.state.DelayBin,
			PossessionCode: a.state.PossessionCode(),
		}}, a.selfPID)
	}
}

// handlePlayerConnect registers a new game socket. The game handler has
// already written the initial snapshot to the socket before sending this
// message, and binary frames only start once AddClient reaches the
// broadcaster, so the JSON snapshot is always the first frame a client sees.
func (a *RoomActor) handlePlayerConnect(playerID string, ws *websocket.Conn) {
	p := a.state.Player(playerID)
	if p == nil || ws == nil {
		fmt.Printf("WARN: RoomActor %s: connect for unknown player %q in room %s.\n", a.selfPID, playerID, a.roomID)
		if ws != nil {
			_ = ws.Close()
		}
		return
	}
	if old := a.conns[playerID]; old != nil && old != ws {
		a.engine.Send(a.broadcasterPID, RemoveClient{Conn: old}, a.selfPID)
		_ = old.Close()
	}

	a.conns[playerID] = ws
	a.connected[playerID] = true
	// Attaching the socket lifts the disconnect pause. A knockout earned from
	// a beat keeps its remaining penalty.
	if a.pauseKnocked[playerID] {
		p.IsKnockedOut = false
		p.KnockoutTimer = 0
		delete(a.pauseKnocked, playerID)
	}
	a.engine.Send(a.broadcasterPID, AddClient{PlayerID: playerID, Conn: ws}, a.selfPID)
	fmt.Printf("RoomActor %s: player %s connected to room %s.\n", a.selfPID, playerID, a.roomID)
}

// handlePlayerDisconnect pauses the player until the same ID reconnects. The
// room keeps running for everyone else.
func (a *RoomActor) handlePlayerDisconnect(playerID string, ws *websocket.Conn) {
	if playerID == "" {
		for id, conn := range a.conns {
			if conn == ws {
				playerID = id
				break
			}
		}
	}
	if playerID == "" {
		return
	}
	if a.conns[playerID] != nil && (ws == nil || a.conns[playerID] == ws) {
		if a.broadcasterPID != nil {
			a.engine.Send(a.broadcasterPID, RemoveClient{Conn: a.conns[playerID]}, a.selfPID)
		}
		delete(a.conns, playerID)
	}
	a.connected[playerID] = false
	fmt.Printf("RoomActor %s: player %s disconnected from room %s.\n", a.selfPID, playerID, a.roomID)
}

// runTickerLoop sends GameTick messages to the actor's own mailbox at the
// configured cadence.
func (a *RoomActor) runTickerLoop() {
	defer func() {
		if r := recover(); r != nil {
			pidStr := "unknown"
			if a.selfPID != nil {
				pidStr = a.selfPID.String()
			}
			fmt.Printf("PANIC recovered in RoomActor %s Ticker Loop: %v\nStack trace:\n%s\n", pidStr, r, string(debug.Stack()))
		}
	}()

	time.Sleep(15 * time.Millisecond)
	actorPID := a.selfPID
	if actorPID == nil {
		fmt.Println("ERROR: RoomActor ticker loop cannot start, self PID not set after wait.")
		return
	}
	tickMsg := &GameTick{}

	for {
		select {
		case <-a.stopTickerCh:
			return
		case _, ok := <-a.ticker.C:
			if !ok {
				return
			}
			select {
			case <-a.stopTickerCh:
				return
			default:
				a.engine.Send(actorPID, tickMsg, nil)
			}
		}
	}
}

func (a *RoomActor) stopTicker() {
	if a.ticker != nil {
		a.ticker.Stop()
	}
	select {
	case <-a.stopTickerCh:
	default:
		close(a.stopTickerCh)
	}
}
