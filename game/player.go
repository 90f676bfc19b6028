// File: game/player.go
package game

import (
	"github.com/quadball-arena/quadball/utils"
)

// Player is one participant on the pitch. The room's tick actor is the only
// writer after kickoff.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Team int    `json:"team"` // 0 or 1
	Role string `json:"role"` // utils.Role*

	Position  utils.Vec2 `json:"position"`
	Velocity  utils.Vec2 `json:"velocity"`
	Direction utils.Vec2 `json:"direction"` // last movement intent, normalized or zero
	Radius    float64    `json:"radius"`

	IsKnockedOut  bool    `json:"is_knocked_out"`
	KnockoutTimer float64 `json:"-"` // seconds remaining; 0 iff not knocked out

	// HeldBallID is the ID of the ball this player holds, or "" if none.
	HeldBallID string `json:"-"`
}

// NewPlayer creates a player at the given position with config-driven radius.
func NewPlayer(cfg utils.Config, id, name string, team int, role string, pos utils.Vec2) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Team:     team,
		Role:     role,
		Position: pos,
		Radius:   cfg.PlayerRadius,
	}
}

// HasBall reports whether the player currently holds a ball.
func (p *Player) HasBall() bool {
	return p.HeldBallID != ""
}

// KnockOut puts the player down for the given duration, zeroing velocity.
// Ball release is the caller's job so the release velocity can be chosen.
func (p *Player) KnockOut(duration float64) {
	p.IsKnockedOut = true
	p.KnockoutTimer = duration
	p.Velocity = utils.Vec2{}
}

// TickKnockout counts the knockout timer down and clears the flag at zero.
func (p *Player) TickKnockout(dt float64) {
	if !p.IsKnockedOut {
		return
	}
	p.KnockoutTimer -= dt
	if p.KnockoutTimer <= 0 {
		p.KnockoutTimer = 0
		p.IsKnockedOut = false
	}
}

// MaxSpeed returns the role-specific speed cap.
func (p *Player) MaxSpeed(cfg utils.Config) float64 {
	return cfg.RoleMaxSpeed(p.Role)
}

// Immune reports keeper immunity: a keeper standing inside their own keeper
// zone cannot be beat.
func (p *Player) Immune(cfg utils.Config) bool {
	if p.Role != utils.RoleKeeper {
		return false
	}
	if p.Team == 0 {
		return p.Position.X <= cfg.KeeperZoneX
	}
	return p.Position.X >= cfg.PitchLength-cfg.KeeperZoneX
}
