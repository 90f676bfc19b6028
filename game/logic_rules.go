// File: game/logic_rules.go
package game

import (
	"github.com/quadball-arena/quadball/utils"
)

// stepFreeBalls integrates free balls: drag, wall bounces, and the volleyball
// side-line exit that starts an inbound.
func (l *Logic) stepFreeBalls(dt float64, events []Event) []Event {
	cfg := l.cfg
	drag := utils.Clamp(1-cfg.BallDrag*dt, 0, 1)
	for _, b := range l.state.Balls() {
		if b.Held() {
			continue
		}
		b.PrevPosition = b.Position
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
		b.Velocity = b.Velocity.Scale(drag)

		// Short walls bounce every ball type.
		if b.Position.X < 0 {
			b.Position.X = 0
			if b.Velocity.X < 0 {
				b.Velocity.X = -b.Velocity.X * cfg.WallRestitution
			}
		} else if b.Position.X > cfg.PitchLength {
			b.Position.X = cfg.PitchLength
			if b.Velocity.X > 0 {
				b.Velocity.X = -b.Velocity.X * cfg.WallRestitution
			}
		}

		if b.Position.Y >= 0 && b.Position.Y <= cfg.PitchWidth {
			continue
		}
		if b.IsVolleyball() {
			events = append(events, l.startInbound(b))
			continue
		}
		// Dodgeballs bounce off the side lines too.
		if b.Position.Y < 0 {
			b.Position.Y = 0
			if b.Velocity.Y < 0 {
				b.Velocity.Y = -b.Velocity.Y * cfg.WallRestitution
			}
		} else {
			b.Position.Y = cfg.PitchWidth
			if b.Velocity.Y > 0 {
				b.Velocity.Y = -b.Velocity.Y * cfg.WallRestitution
			}
		}
	}
	return events
}

// startInbound snaps the volleyball onto the side line it crossed, hands
// possession to the non-offending team, and opens the pickup grace window.
func (l *Logic) startInbound(b *Ball) Event {
	cfg := l.cfg
	if b.Position.Y < 0 {
		b.Position.Y = 0
	} else {
		b.Position.Y = cfg.PitchWidth
	}
	b.Velocity = utils.Vec2{}

	team := NoTeam
	switch {
	case b.PossessionTeam != NoTeam:
		team = 1 - b.PossessionTeam
	case b.LastThrowerID != "":
		if thrower := l.state.Player(b.LastThrowerID); thrower != nil {
			team = 1 - thrower.Team
		}
	}
	if team != NoTeam {
		l.setPossession(b, team)
	}
	l.state.Inbound = InboundState{Active: true, Team: team, Timer: cfg.InboundGraceSecs}
	return Event{Type: EventInbound, Team: team}
}

// collideBalls exchanges momentum between pairs of free, live balls.
func (l *Logic) collideBalls() {
	balls := l.state.Balls()
	for i := 0; i < len(balls); i++ {
		for j := i + 1; j < len(balls); j++ {
			a, b := balls[i], balls[j]
			if a.Held() || b.Held() || a.IsDead || b.IsDead {
				continue
			}
			delta := b.Position.Sub(a.Position)
			minDist := a.Radius + b.Radius
			if delta.SquaredMagnitude() >= minDist*minDist {
				continue
			}
			normal := delta.Normalize()
			if normal == (utils.Vec2{}) {
				normal = utils.Vec2{X: 1}
			}
			overlap := minDist - delta.Magnitude()
			a.Position = clampToPitch(l.cfg, a.Position.Sub(normal.Scale(overlap/2)))
			b.Position = clampToPitch(l.cfg, b.Position.Add(normal.Scale(overlap/2)))

			an := a.Velocity.Dot(normal)
			bn := b.Velocity.Dot(normal)
			if bn-an < 0 {
				a.Velocity = a.Velocity.Add(normal.Scale(bn - an))
				b.Velocity = b.Velocity.Add(normal.Scale(an - bn))
			}
		}
	}
}

// canPickUp applies the role gate, the inbound lock, and the goaltending
// block for one player/ball pair. Distance is checked by the caller.
func (l *Logic) canPickUp(p *Player, b *Ball) bool {
	if p.IsKnockedOut || p.HasBall() {
		return false
	}
	if b.IsVolleyball() {
		if p.Role != utils.RoleChaser && p.Role != utils.RoleKeeper {
			return false
		}
		inb := l.state.Inbound
		if inb.Active && inb.Team != NoTeam && p.Team != inb.Team {
			return false
		}
		if p.Role == utils.RoleChaser && l.nearOwnHoop(p.Team, b.Position) {
			return false
		}
		return true
	}
	return p.Role == utils.RoleBeater
}

// nearOwnHoop reports whether pos sits inside the goaltending radius of any
// of the team's own hoops.
func (l *Logic) nearOwnHoop(team int, pos utils.Vec2) bool {
	for _, h := range l.state.Hoops {
		if h.Team == team && utils.Distance(pos, h.Position) <= l.cfg.GoaltendRadius {
			return true
		}
	}
	return false
}

// applyPickups resolves ball pickups in deterministic ball-then-player order.
// A beater touching a dead dodgeball revives it and takes it over.
func (l *Logic) applyPickups() {
	for _, b := range l.state.Balls() {
		if b.Held() {
			continue
		}
		for _, p := range l.state.Players() {
			if b.IsDead {
				if p.Role != utils.RoleBeater || p.IsKnockedOut || p.HasBall() {
					continue
				}
			} else if !l.canPickUp(p, b) {
				continue
			}
			if utils.Distance(p.Position, b.Position) > p.Radius+b.Radius {
				continue
			}

			b.IsDead = false
			b.LastThrowerID = ""
			b.HolderID = p.ID
			p.HeldBallID = b.ID
			b.PrevPosition = b.Position
			b.Position = p.Position
			b.Velocity = utils.Vec2{}
			if b.IsVolleyball() {
				l.setPossession(b, p.Team)
				l.state.Inbound = InboundState{Team: NoTeam}
			}
			break
		}
	}
}

// applyBeats resolves live thrown dodgeballs against opposing players. An
// immune keeper still deadens the ball; anyone else goes down and drops what
// they hold.
func (l *Logic) applyBeats() {
	cfg := l.cfg
	for _, b := range l.state.Balls() {
		if b.IsVolleyball() || b.IsDead || b.Held() || b.LastThrowerID == "" {
			continue
		}
		thrower := l.state.Player(b.LastThrowerID)
		if thrower == nil {
			continue
		}
		for _, p := range l.state.Players() {
			if p.ID == thrower.ID || p.Team == thrower.Team || p.IsKnockedOut {
				continue
			}
			if utils.Distance(p.Position, b.Position) > p.Radius+b.Radius {
				continue
			}
			if !p.Immune(cfg) {
				impactVelocity := p.Velocity
				if p.HasBall() {
					if held := l.state.Ball(p.HeldBallID); held != nil {
						held.HolderID = ""
						held.Position = p.Position
						held.PrevPosition = held.Position
						if held.IsVolleyball() {
							// Holding team keeps possession of the loose ball.
							held.Velocity = impactVelocity.Scale(0.5)
						} else {
							held.Velocity = impactVelocity
						}
					}
					p.HeldBallID = ""
				}
				p.KnockOut(cfg.KnockoutDuration)
			}
			b.IsDead = true
			b.Velocity = utils.Vec2{}
			break
		}
	}
}

// detectGoals scores free volleyballs crossing an opponent hoop plane and
// resets the pitch for kickoff. Goals inside the keeper-release void window
// do not count.
func (l *Logic) detectGoals(events []Event) []Event {
	cfg := l.cfg
	for _, b := range l.state.Balls() {
		if !b.IsVolleyball() || b.Held() || b.PossessionTeam == NoTeam {
			continue
		}
		if l.state.GameTime-b.keeperZoneReleaseAt < cfg.KeeperGoalVoidSecs {
			continue
		}
		for _, h := range l.state.Hoops {
			if h.Team == b.PossessionTeam {
				continue
			}
			if _, ok := h.CrossedBy(b.PrevPosition, b.Position); !ok {
				continue
			}
			scorer := b.PossessionTeam
			l.state.Score[scorer]++
			events = append(events, Event{Type: EventGoal, Team: scorer})
			l.state.ResetForKickoff()
			break
		}
	}
	return events
}

// collidePlayers separates overlapping players and exchanges the approaching
// normal velocity. Knocked-out players behave as static obstacles.
func (l *Logic) collidePlayers() {
	players := l.state.Players()
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			a, b := players[i], players[j]
			if a.IsKnockedOut && b.IsKnockedOut {
				continue
			}
			delta := b.Position.Sub(a.Position)
			minDist := a.Radius + b.Radius
			if delta.SquaredMagnitude() >= minDist*minDist {
				continue
			}
			normal := delta.Normalize()
			if normal == (utils.Vec2{}) {
				normal = utils.Vec2{X: 1}
			}
			overlap := minDist - delta.Magnitude()

			switch {
			case a.IsKnockedOut:
				b.Position = clampToPitch(l.cfg, b.Position.Add(normal.Scale(overlap)))
				if n := b.Velocity.Dot(normal); n < 0 {
					b.Velocity = b.Velocity.Sub(normal.Scale(n))
				}
			case b.IsKnockedOut:
				a.Position = clampToPitch(l.cfg, a.Position.Sub(normal.Scale(overlap)))
				if n := a.Velocity.Dot(normal); n > 0 {
					a.Velocity = a.Velocity.Sub(normal.Scale(n))
				}
			default:
				a.Position = clampToPitch(l.cfg, a.Position.Sub(normal.Scale(overlap/2)))
				b.Position = clampToPitch(l.cfg, b.Position.Add(normal.Scale(overlap/2)))
				an := a.Velocity.Dot(normal)
				bn := b.Velocity.Dot(normal)
				if bn-an < 0 {
					a.Velocity = a.Velocity.Add(normal.Scale(bn - an))
					b.Velocity = b.Velocity.Add(normal.Scale(an - bn))
				}
			}
		}
	}
}

// stepDelayOfGame escalates the stall counter while one team keeps the
// volleyball inside the central band, forcing a turnover at the cap. Crossing
// the half-line or losing possession resets the escalation.
func (l *Logic) stepDelayOfGame(dt float64, events []Event) []Event {
	cfg := l.cfg
	vb := l.state.Volleyball()
	if vb == nil {
		return events
	}

	mid := cfg.PitchLength / 2
	if (vb.PrevPosition.X-mid)*(vb.Position.X-mid) < 0 {
		l.state.DelayBin = 0
		l.state.delayHold = 0
		l.state.delayHoldTeam = NoTeam
	}

	holder := l.state.Player(vb.HolderID)
	inBand := holder != nil &&
		holder.Position.X >= cfg.KeeperZoneX &&
		holder.Position.X <= cfg.PitchLength-cfg.KeeperZoneX
	if !inBand {
		l.state.delayHold = 0
		l.state.delayHoldTeam = NoTeam
		return events
	}

	if l.state.delayHoldTeam != holder.Team {
		l.state.delayHoldTeam = holder.Team
		l.state.delayHold = 0
	}
	l.state.delayHold += dt
	for l.state.delayHold >= cfg.DelayBandHoldSecs {
		l.state.delayHold -= cfg.DelayBandHoldSecs
		l.state.DelayBin++
		if l.state.DelayBin < cfg.DelayBinCap {
			continue
		}
		// Turnover: drop the ball in place and flip possession.
		team := holder.Team
		holder.HeldBallID = ""
		vb.HolderID = ""
		vb.Velocity = utils.Vec2{}
		vb.PrevPosition = vb.Position
		vb.PossessionTeam = 1 - team
		l.state.DelayBin = 0
		l.state.delayHold = 0
		l.state.delayHoldTeam = NoTeam
		events = append(events, Event{Type: EventTurnover, Team: 1 - team})
		break
	}
	return events
}
