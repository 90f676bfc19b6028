// File: game/ball.go
package game

import (
	"github.com/quadball-arena/quadball/utils"
)

// NoTeam marks a ball without a possessing team.
const NoTeam = -1

// Ball is the volleyball (quaffle) or a dodgeball (bludger).
type Ball struct {
	ID   string `json:"id"`
	Type string `json:"ball_type"` // utils.BallVolleyball or utils.BallDodgeball

	Position     utils.Vec2 `json:"position"`
	PrevPosition utils.Vec2 `json:"-"`
	Velocity     utils.Vec2 `json:"velocity"`
	Radius       float64    `json:"radius"`

	// HolderID is the holding player's ID, or "" when free. While held the
	// ball's position mirrors the holder's and its velocity is ignored.
	HolderID      string `json:"holder_id,omitempty"`
	LastThrowerID string `json:"-"`

	// IsDead applies to dodgeballs: set after a beat, cleared when a beater
	// picks the ball back up.
	IsDead bool `json:"is_dead"`

	// PossessionTeam is the team that last held, threw, or was granted the
	// ball; NoTeam when unowned. For the volleyball this drives the
	// possession code on the wire.
	PossessionTeam int `json:"-"`

	// keeperZoneReleaseAt is the game time of the last release by a keeper
	// standing inside their own zone. Goals inside the void window after such
	// a release do not count.
	keeperZoneReleaseAt float64
}

// NewBall creates a free ball of the given type at pos.
func NewBall(cfg utils.Config, id, ballType string, pos utils.Vec2) *Ball {
	return &Ball{
		ID:                  id,
		Type:                ballType,
		Position:            pos,
		PrevPosition:        pos,
		Radius:              cfg.BallRadius(ballType),
		PossessionTeam:      NoTeam,
		keeperZoneReleaseAt: -1e9,
	}
}

// IsVolleyball reports whether this is the scoring ball.
func (b *Ball) IsVolleyball() bool {
	return b.Type == utils.BallVolleyball
}

// Held reports whether some player holds the ball.
func (b *Ball) Held() bool {
	return b.HolderID != ""
}

// PossessionCode maps the possession team to the wire encoding:
// 0 none, 1 team 0, 2 team 1.
func (b *Ball) PossessionCode() uint8 {
	if b.PossessionTeam == NoTeam {
		return 0
	}
	return uint8(b.PossessionTeam + 1)
}
