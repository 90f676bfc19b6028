// File: utils/config.go
package utils

import "time"

// Player roles. Kept as plain strings so they round-trip through the lobby
// JSON protocol without a translation layer.
const (
	RoleKeeper = "keeper"
	RoleChaser = "chaser"
	RoleBeater = "beater"
	RoleSeeker = "seeker"
)

// Ball types.
const (
	BallVolleyball = "volleyball" // quaffle
	BallDodgeball  = "dodgeball"  // bludger
)

// Config holds all configurable game parameters.
type Config struct {
	// Timing
	TickHz         int           `json:"tickHz"`         // Simulation ticks per second
	GameTickPeriod time.Duration `json:"gameTickPeriod"` // Calculated: time.Second / TickHz

	// Pitch geometry (meters)
	PitchLength float64 `json:"pitchLength"` // Long axis (x)
	PitchWidth  float64 `json:"pitchWidth"`  // Short axis (y)
	KeeperZoneX float64 `json:"keeperZoneX"` // Keeper zone strip width along each short end
	HoopOffsetX float64 `json:"hoopOffsetX"` // Hoop line distance from each short end
	HoopSpacing float64 `json:"hoopSpacing"` // Distance between center hoop and side hoops

	// Entity radii (meters)
	HoopRadius       float64 `json:"hoopRadius"`
	HoopThickness    float64 `json:"hoopThickness"`
	PlayerRadius     float64 `json:"playerRadius"`
	VolleyballRadius float64 `json:"volleyballRadius"`
	DodgeballRadius  float64 `json:"dodgeballRadius"`

	// Player kinematics
	MaxSpeed    map[string]float64 `json:"maxSpeed"`    // Per role, m/s
	AccelFactor float64            `json:"accelFactor"` // Velocity lerp rate toward target, 1/s

	// Ball physics
	ThrowSpeed      map[string]float64 `json:"throwSpeed"` // Per ball type, m/s
	BallDrag        float64            `json:"ballDrag"`   // Linear drag on free balls, 1/s
	WallRestitution float64            `json:"wallRestitution"`

	// Rules
	KnockoutDuration   float64 `json:"knockoutDuration"`   // Seconds a beat player stays down
	DelayBinCap        int     `json:"delayBinCap"`        // Delay-of-game bins before turnover
	DelayBandHoldSecs  float64 `json:"delayBandHoldSecs"`  // Continuous hold time per bin
	InboundGraceSecs   float64 `json:"inboundGraceSecs"`   // Pickup exclusivity after side-line exit
	GoaltendRadius     float64 `json:"goaltendRadius"`     // Own-hoop pickup suppression radius for chasers
	KeeperGoalVoidSecs float64 `json:"keeperGoalVoidSecs"` // Self-own protection window after keeper release

	// Misc
	ThrowReleaseEpsilon float64 `json:"throwReleaseEpsilon"` // Gap added between thrower and released ball
	MaxRosterSize       int     `json:"maxRosterSize"`
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	tickHz := 20

	return Config{
		TickHz:         tickHz,
		GameTickPeriod: time.Second / time.Duration(tickHz),

		PitchLength: 60,
		PitchWidth:  33,
		KeeperZoneX: 12,
		HoopOffsetX: 13.5,
		HoopSpacing: 2.75,

		// Regulation hoop loops are 81-86cm inner diameter.
		HoopRadius:       0.43,
		HoopThickness:    0.1,
		PlayerRadius:     0.3,
		VolleyballRadius: 0.106,
		DodgeballRadius:  0.111,

		MaxSpeed: map[string]float64{
			RoleKeeper: 3.5,
			RoleChaser: 4.0,
			RoleBeater: 4.0,
			RoleSeeker: 4.5,
		},
		AccelFactor: 4.0,

		ThrowSpeed: map[string]float64{
			BallVolleyball: 12,
			BallDodgeball:  14,
		},
		BallDrag:        0.15,
		WallRestitution: 0.8,

		KnockoutDuration:   5,
		DelayBinCap:        8,
		DelayBandHoldSecs:  1,
		InboundGraceSecs:   5,
		GoaltendRadius:     1.5,
		KeeperGoalVoidSecs: 0.2,

		ThrowReleaseEpsilon: 0.01,
		MaxRosterSize:       12,
	}
}

// RoleMaxSpeed returns the speed cap for a role, falling back to the chaser
// cap for unknown roles.
func (c Config) RoleMaxSpeed(role string) float64 {
	if v, ok := c.MaxSpeed[role]; ok {
		return v
	}
	return c.MaxSpeed[RoleChaser]
}

// BallThrowSpeed returns the release speed for a ball type.
func (c Config) BallThrowSpeed(ballType string) float64 {
	if v, ok := c.ThrowSpeed[ballType]; ok {
		return v
	}
	return c.ThrowSpeed[BallVolleyball]
}

// BallRadius returns the collision radius for a ball type.
func (c Config) BallRadius(ballType string) float64 {
	if ballType == BallDodgeball {
		return c.DodgeballRadius
	}
	return c.VolleyballRadius
}
