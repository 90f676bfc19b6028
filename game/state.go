// File: game/state.go
package game

import (
	"fmt"

	"github.com/quadball-arena/quadball/utils"
)

// InboundState tracks the volleyball inbounding procedure after a side-line
// exit. While active, only the inbounding team may pick the ball up, until a
// player of that team touches it or the grace period elapses.
type InboundState struct {
	Active bool    `json:"active"`
	Team   int     `json:"team"` // NoTeam means anyone may pick up
	Timer  float64 `json:"timer"`
}

// GameState aggregates everything the simulation owns for one room. Insertion
// order of players and balls is preserved so binary frames stay aligned with
// the players_order / balls_order arrays sent at connect time.
type GameState struct {
	cfg utils.Config

	playerOrder []string
	players     map[string]*Player
	ballOrder   []string
	balls       map[string]*Ball
	Hoops       []Hoop

	Score    [2]int
	GameTime float64

	// DelayBin counts delay-of-game escalation on the team holding the
	// volleyball in the central band; a turnover fires at the cap.
	DelayBin int
	// delayHold accumulates continuous central-band hold time by the same
	// team toward the next bin.
	delayHold     float64
	delayHoldTeam int

	Inbound InboundState
}

// NewGameState creates an empty state with hoops placed per config.
func NewGameState(cfg utils.Config) *GameState {
	return &GameState{
		cfg:           cfg,
		players:       make(map[string]*Player),
		balls:         make(map[string]*Ball),
		Hoops:         BuildHoops(cfg),
		delayHoldTeam: NoTeam,
	}
}

// Config returns the room's immutable configuration.
func (s *GameState) Config() utils.Config { return s.cfg }

// AddPlayer registers a player, keeping insertion order.
func (s *GameState) AddPlayer(p *Player) {
	if _, exists := s.players[p.ID]; !exists {
		s.playerOrder = append(s.playerOrder, p.ID)
	}
	s.players[p.ID] = p
}

// AddBall registers a ball, keeping insertion order.
func (s *GameState) AddBall(b *Ball) {
	if _, exists := s.balls[b.ID]; !exists {
		s.ballOrder = append(s.ballOrder, b.ID)
	}
	s.balls[b.ID] = b
}

// Player returns a player by ID, or nil.
func (s *GameState) Player(id string) *Player { return s.players[id] }

// Ball returns a ball by ID, or nil.
func (s *GameState) Ball(id string) *Ball { return s.balls[id] }

// Players yields players in insertion order.
func (s *GameState) Players() []*Player {
	out := make([]*Player, 0, len(s.playerOrder))
	for _, id := range s.playerOrder {
		out = append(out, s.players[id])
	}
	return out
}

// Balls yields balls in insertion order.
func (s *GameState) Balls() []*Ball {
	out := make([]*Ball, 0, len(s.ballOrder))
	for _, id := range s.ballOrder {
		out = append(out, s.balls[id])
	}
	return out
}

// PlayerOrder returns the wire ordering of player IDs.
func (s *GameState) PlayerOrder() []string { return append([]string(nil), s.playerOrder...) }

// BallOrder returns the wire ordering of ball IDs.
func (s *GameState) BallOrder() []string { return append([]string(nil), s.ballOrder...) }

// Volleyball returns the scoring ball, or nil before setup.
func (s *GameState) Volleyball() *Ball {
	for _, id := range s.ballOrder {
		if b := s.balls[id]; b.IsVolleyball() {
			return b
		}
	}
	return nil
}

// PossessionCode reports which team last touched or scored with the
// volleyball: 0 none, 1 team 0, 2 team 1.
func (s *GameState) PossessionCode() uint8 {
	if vb := s.Volleyball(); vb != nil {
		return vb.PossessionCode()
	}
	return 0
}

// SetupBalls places the volleyball at pitch center and two dodgeballs
// symmetrically on the keeper-zone lines.
func (s *GameState) SetupBalls() {
	cfg := s.cfg
	s.AddBall(NewBall(cfg, "volleyball", utils.BallVolleyball,
		utils.Vec2{X: cfg.PitchLength / 2, Y: cfg.PitchWidth / 2}))
	s.AddBall(NewBall(cfg, "dodgeball_0", utils.BallDodgeball,
		utils.Vec2{X: cfg.KeeperZoneX, Y: cfg.PitchWidth / 4}))
	s.AddBall(NewBall(cfg, "dodgeball_1", utils.BallDodgeball,
		utils.Vec2{X: cfg.PitchLength - cfg.KeeperZoneX, Y: 3 * cfg.PitchWidth / 4}))
}

// kickoffPosition computes the formation slot for the n-th player of a role
// on a team: keeper at the own center hoop, chasers in a triangle, beaters
// flanking, seeker at the rear. Team 1 mirrors team 0 across mid-pitch.
func (s *GameState) kickoffPosition(team int, role string, n int) utils.Vec2 {
	cfg := s.cfg
	midY := cfg.PitchWidth / 2
	var pos utils.Vec2
	switch role {
	case utils.RoleKeeper:
		pos = utils.Vec2{X: cfg.HoopOffsetX, Y: midY + float64(n)*2}
	case utils.RoleChaser:
		triangle := []utils.Vec2{
			{X: cfg.PitchLength/2 - 8, Y: midY},
			{X: cfg.PitchLength/2 - 12, Y: midY + 6},
			{X: cfg.PitchLength/2 - 12, Y: midY - 6},
		}
		pos = triangle[n%len(triangle)]
		pos.X -= float64(n/len(triangle)) * 2
	case utils.RoleBeater:
		flank := []utils.Vec2{
			{X: cfg.PitchLength/2 - 16, Y: cfg.PitchWidth / 4},
			{X: cfg.PitchLength/2 - 16, Y: 3 * cfg.PitchWidth / 4},
		}
		pos = flank[n%len(flank)]
		pos.X -= float64(n/len(flank)) * 2
	default: // seeker
		pos = utils.Vec2{X: cfg.KeeperZoneX / 2, Y: midY - 8 - float64(n)*2}
	}
	if team == 1 {
		pos.X = cfg.PitchLength - pos.X
	}
	return pos
}

// ResetForKickoff arranges both teams mirrored on their own halves, recenters
// all balls, and clears knockouts, possession, delay and inbound state. Used
// at room start and after every goal.
func (s *GameState) ResetForKickoff() {
	cfg := s.cfg
	roleCount := map[int]map[string]int{0: {}, 1: {}}
	for _, p := range s.Players() {
		n := roleCount[p.Team][p.Role]
		roleCount[p.Team][p.Role] = n + 1
		p.Position = s.kickoffPosition(p.Team, p.Role, n)
		p.Velocity = utils.Vec2{}
		p.Direction = utils.Vec2{}
		p.IsKnockedOut = false
		p.KnockoutTimer = 0
		p.HeldBallID = ""
	}

	ballSpots := map[string]utils.Vec2{
		"volleyball":  {X: cfg.PitchLength / 2, Y: cfg.PitchWidth / 2},
		"dodgeball_0": {X: cfg.KeeperZoneX, Y: cfg.PitchWidth / 4},
		"dodgeball_1": {X: cfg.PitchLength - cfg.KeeperZoneX, Y: 3 * cfg.PitchWidth / 4},
	}
	for _, b := range s.Balls() {
		if spot, ok := ballSpots[b.ID]; ok {
			b.Position = spot
		}
		b.PrevPosition = b.Position
		b.Velocity = utils.Vec2{}
		b.HolderID = ""
		b.LastThrowerID = ""
		b.IsDead = false
		b.PossessionTeam = NoTeam
		b.keeperZoneReleaseAt = -1e9
	}

	s.DelayBin = 0
	s.delayHold = 0
	s.delayHoldTeam = NoTeam
	s.Inbound = InboundState{Team: NoTeam}
}

// Validate checks the state invariants. A non-nil error means the tick is
// corrupt and the room must be torn down.
func (s *GameState) Validate() error {
	cfg := s.cfg
	holders := make(map[string]string, len(s.balls))
	for _, b := range s.Balls() {
		if b.Position.X < 0 || b.Position.X > cfg.PitchLength ||
			b.Position.Y < 0 || b.Position.Y > cfg.PitchWidth {
			return fmt.Errorf("ball %s out of pitch at (%.3f, %.3f)", b.ID, b.Position.X, b.Position.Y)
		}
		if b.Held() {
			holder := s.players[b.HolderID]
			if holder == nil {
				return fmt.Errorf("ball %s held by unknown player %s", b.ID, b.HolderID)
			}
			if prev, dup := holders[b.HolderID]; dup {
				return fmt.Errorf("player %s holds both %s and %s", b.HolderID, prev, b.ID)
			}
			holders[b.HolderID] = b.ID
			if holder.Position != b.Position {
				return fmt.Errorf("held ball %s at (%.3f, %.3f) away from holder %s", b.ID, b.Position.X, b.Position.Y, holder.ID)
			}
		}
	}
	for _, p := range s.Players() {
		if p.Position.X < 0 || p.Position.X > cfg.PitchLength ||
			p.Position.Y < 0 || p.Position.Y > cfg.PitchWidth {
			return fmt.Errorf("player %s out of pitch at (%.3f, %.3f)", p.ID, p.Position.X, p.Position.Y)
		}
		if held, ok := holders[p.ID]; ok != p.HasBall() || (ok && held != p.HeldBallID) {
			return fmt.Errorf("player %s ball linkage inconsistent (held=%q)", p.ID, p.HeldBallID)
		}
		if p.IsKnockedOut && p.HasBall() {
			return fmt.Errorf("knocked out player %s still holds %s", p.ID, p.HeldBallID)
		}
		if p.IsKnockedOut != (p.KnockoutTimer > 0) {
			return fmt.Errorf("player %s knockout flag/timer mismatch", p.ID)
		}
	}
	if s.Score[0] < 0 || s.Score[1] < 0 {
		return fmt.Errorf("negative score %v", s.Score)
	}
	return nil
}
