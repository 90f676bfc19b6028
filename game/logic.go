// File: game/logic.go
package game

import (
	"github.com/quadball-arena/quadball/utils"
)

// EventType tags a discrete rules event produced during a tick.
type EventType string

const (
	EventGoal     EventType = "goal"
	EventTurnover EventType = "turnover"
	EventInbound  EventType = "inbound"
)

// Event is a discrete rules outcome the room relays to clients alongside the
// regular binary frames.
type Event struct {
	Type EventType `json:"event"`
	Team int       `json:"team"`
}

// TickInputs carries one tick's worth of drained client intents. Moves hold
// the latest movement vector per player; Throws keep arrival order.
type TickInputs struct {
	Moves  map[string]utils.Vec2
	Throws []string
}

// Logic advances a GameState one fixed timestep at a time. It is not safe for
// concurrent use; the room actor is its only caller.
type Logic struct {
	cfg   utils.Config
	state *GameState
}

// NewLogic binds a rules engine to a state.
func NewLogic(state *GameState) *Logic {
	return &Logic{cfg: state.Config(), state: state}
}

// Step applies one simulation tick. Phases run in a fixed order so every
// observable transition is totally ordered within the tick. The returned
// events cover goals, delay turnovers and inbound triggers.
func (l *Logic) Step(dt float64, in TickInputs) []Event {
	var events []Event

	l.applyInputs(in.Moves)
	l.stepPlayers(dt)
	l.followHolders()
	l.applyThrows(in.Throws)
	events = l.stepFreeBalls(dt, events)
	l.collideBalls()
	l.applyPickups()
	l.applyBeats()
	events = l.detectGoals(events)
	l.collidePlayers()
	events = l.stepDelayOfGame(dt, events)
	l.followHolders()

	if l.state.Inbound.Active {
		l.state.Inbound.Timer -= dt
		if l.state.Inbound.Timer <= 0 {
			l.state.Inbound = InboundState{Team: NoTeam}
		}
	}
	l.state.GameTime += dt
	return events
}

// applyInputs stores each player's latest movement intent. Knocked-out
// players keep their previous direction but move nowhere until they recover.
func (l *Logic) applyInputs(moves map[string]utils.Vec2) {
	for id, dir := range moves {
		p := l.state.Player(id)
		if p == nil || p.IsKnockedOut {
			continue
		}
		p.Direction = dir.Normalize()
	}
}

// stepPlayers integrates player motion: velocity eases toward the
// role-capped target, knockout timers count down, and walls absorb rather
// than reflect.
func (l *Logic) stepPlayers(dt float64) {
	cfg := l.cfg
	blend := utils.Clamp(cfg.AccelFactor*dt, 0, 1)
	for _, p := range l.state.Players() {
		if p.IsKnockedOut {
			p.Velocity = utils.Vec2{}
			p.TickKnockout(dt)
			continue
		}
		target := p.Direction.Scale(p.MaxSpeed(cfg))
		p.Velocity = p.Velocity.Lerp(target, blend)
		p.Position = p.Position.Add(p.Velocity.Scale(dt))

		if p.Position.X < 0 {
			p.Position.X = 0
			if p.Velocity.X < 0 {
				p.Velocity.X = 0
			}
		} else if p.Position.X > cfg.PitchLength {
			p.Position.X = cfg.PitchLength
			if p.Velocity.X > 0 {
				p.Velocity.X = 0
			}
		}
		if p.Position.Y < 0 {
			p.Position.Y = 0
			if p.Velocity.Y < 0 {
				p.Velocity.Y = 0
			}
		} else if p.Position.Y > cfg.PitchWidth {
			p.Position.Y = cfg.PitchWidth
			if p.Velocity.Y > 0 {
				p.Velocity.Y = 0
			}
		}
	}
}

// followHolders pins held balls to their holders. Runs again at the end of
// the tick so collision nudges on the holder carry over to the ball.
func (l *Logic) followHolders() {
	for _, b := range l.state.Balls() {
		if !b.Held() {
			continue
		}
		holder := l.state.Player(b.HolderID)
		if holder == nil {
			continue
		}
		b.PrevPosition = b.Position
		b.Position = holder.Position
		b.Velocity = holder.Velocity
	}
}

// applyThrows releases balls in arrival order. A throw from a player not
// holding a ball is dropped, which also makes duplicate throws in one tick
// collapse to a single release.
func (l *Logic) applyThrows(throws []string) {
	cfg := l.cfg
	for _, id := range throws {
		p := l.state.Player(id)
		if p == nil || p.IsKnockedOut || !p.HasBall() {
			continue
		}
		b := l.state.Ball(p.HeldBallID)
		if b == nil {
			p.HeldBallID = ""
			continue
		}

		dir := p.Direction
		offset := p.Radius + b.Radius + cfg.ThrowReleaseEpsilon
		b.HolderID = ""
		p.HeldBallID = ""
		b.Velocity = dir.Scale(cfg.BallThrowSpeed(b.Type))
		b.Position = clampToPitch(cfg, p.Position.Add(dir.Scale(offset)))
		b.PrevPosition = b.Position
		b.LastThrowerID = p.ID

		if b.IsVolleyball() {
			l.setPossession(b, p.Team)
			l.state.DelayBin = 0
			l.state.delayHold = 0
			l.state.delayHoldTeam = NoTeam
			if p.Role == utils.RoleKeeper && p.Immune(cfg) {
				b.keeperZoneReleaseAt = l.state.GameTime
			}
		}
	}
}

// setPossession records which team owns the volleyball, zeroing the
// delay-of-game escalation whenever ownership changes hands.
func (l *Logic) setPossession(b *Ball, team int) {
	if b.PossessionTeam == team {
		return
	}
	b.PossessionTeam = team
	if b.IsVolleyball() {
		l.state.DelayBin = 0
		l.state.delayHold = 0
		l.state.delayHoldTeam = NoTeam
	}
}

func clampToPitch(cfg utils.Config, v utils.Vec2) utils.Vec2 {
	return utils.Vec2{
		X: utils.Clamp(v.X, 0, cfg.PitchLength),
		Y: utils.Clamp(v.Y, 0, cfg.PitchWidth),
	}
}
