// File: game/hoop.go
package game

import (
	"fmt"

	"github.com/quadball-arena/quadball/utils"
)

// Hoop is a static goal ring. Hoops are created at room start and never move.
type Hoop struct {
	ID        string     `json:"id"`
	Team      int        `json:"team"`
	Position  utils.Vec2 `json:"position"`
	Radius    float64    `json:"radius"`
	Thickness float64    `json:"thickness"`
}

// BuildHoops places three hoops per team on each hoop line, center hoop at
// mid-pitch height and the other two HoopSpacing above and below.
func BuildHoops(cfg utils.Config) []Hoop {
	hoops := make([]Hoop, 0, 6)
	midY := cfg.PitchWidth / 2
	for team := 0; team < 2; team++ {
		x := cfg.HoopOffsetX
		if team == 1 {
			x = cfg.PitchLength - cfg.HoopOffsetX
		}
		for i, y := range []float64{midY + cfg.HoopSpacing, midY, midY - cfg.HoopSpacing} {
			hoops = append(hoops, Hoop{
				ID:        fmt.Sprintf("hoop_%d_%d", team, i),
				Team:      team,
				Position:  utils.Vec2{X: x, Y: y},
				Radius:    cfg.HoopRadius,
				Thickness: cfg.HoopThickness,
			})
		}
	}
	return hoops
}

// CrossedBy reports whether the segment from prev to cur passes through the
// hoop plane within the ring's reach (radius plus thickness), and returns the
// interpolation factor of the crossing.
func (h Hoop) CrossedBy(prev, cur utils.Vec2) (float64, bool) {
	dx := cur.X - prev.X
	if dx == 0 {
		return 0, false
	}
	t := (h.Position.X - prev.X) / dx
	if t <= 0 || t > 1 {
		return 0, false
	}
	yAtPlane := prev.Y + (cur.Y-prev.Y)*t
	if yAtPlane < h.Position.Y-h.Radius-h.Thickness || yAtPlane > h.Position.Y+h.Radius+h.Thickness {
		return 0, false
	}
	return t, true
}
