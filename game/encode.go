// File: game/encode.go
package game

import (
	"encoding/binary"
	"fmt"

	"github.com/quadball-arena/quadball/utils"
)

// Broadcast packet layout, little-endian. The header and per-player block are
// shared across versions:
//
//	u8 version, u8 player_count, u8 ball_count,
//	u16 half game_time, u8 score0, u8 score1,
//	players × (half x, half y, half vx, half vy, u8 flags),
//	balls   × (half x, half y, half vx, half vy, u8 holder, u8 dead
//	           [, u8 possession — version 3 only]),
//	[u8 delay_bin, u8 possession — version 2 trailer only].
//
// IDs are never transmitted; clients pair blocks with the players_order and
// balls_order arrays from the initial_state message.
const (
	headerSize    = 7
	playerBlock   = 9
	ballBlockV1   = 10
	ballBlockV3   = 11
	trailerSizeV2 = 2

	playerFlagKnockedOut = 1 << 0
	playerFlagHasBall    = 1 << 1
)

func putHalf(buf []byte, f float64) {
	binary.LittleEndian.PutUint16(buf, utils.FloatToHalf(f))
}

func getHalf(buf []byte) float64 {
	return utils.HalfToFloat(binary.LittleEndian.Uint16(buf))
}

func encodeHeader(buf []byte, version uint8, s *GameState, players, balls int) {
	buf[0] = version
	buf[1] = uint8(players)
	buf[2] = uint8(balls)
	putHalf(buf[3:], s.GameTime)
	buf[5] = uint8(s.Score[0])
	buf[6] = uint8(s.Score[1])
}

func encodePlayer(buf []byte, p *Player) {
	putHalf(buf[0:], p.Position.X)
	putHalf(buf[2:], p.Position.Y)
	putHalf(buf[4:], p.Velocity.X)
	putHalf(buf[6:], p.Velocity.Y)
	var flags uint8
	if p.IsKnockedOut {
		flags |= playerFlagKnockedOut
	}
	if p.HasBall() {
		flags |= playerFlagHasBall
	}
	buf[8] = flags
}

func encodeBall(buf []byte, b *Ball, withPossession bool) {
	putHalf(buf[0:], b.Position.X)
	putHalf(buf[2:], b.Position.Y)
	putHalf(buf[4:], b.Velocity.X)
	putHalf(buf[6:], b.Velocity.Y)
	buf[8] = 0
	if b.Held() {
		buf[8] = 1
	}
	buf[9] = 0
	if b.IsDead {
		buf[9] = 1
	}
	if withPossession {
		buf[10] = b.PossessionCode()
	}
}

func encodeState(s *GameState, version uint8) []byte {
	players := s.Players()
	balls := s.Balls()
	ballBlock := ballBlockV1
	if version == 3 {
		ballBlock = ballBlockV3
	}
	size := headerSize + len(players)*playerBlock + len(balls)*ballBlock
	if version == 2 {
		size += trailerSizeV2
	}
	buf := make([]byte, size)
	encodeHeader(buf, version, s, len(players), len(balls))

	off := headerSize
	for _, p := range players {
		encodePlayer(buf[off:], p)
		off += playerBlock
	}
	for _, b := range balls {
		encodeBall(buf[off:], b, version == 3)
		off += ballBlock
	}
	if version == 2 {
		buf[off] = uint8(s.DelayBin)
		buf[off+1] = s.PossessionCode()
	}
	return buf
}

// EncodeStateV1 writes the version-1 packet: header and entity blocks only.
func EncodeStateV1(s *GameState) []byte { return encodeState(s, 1) }

// EncodeStateV2 writes the version-2 packet: version 1 plus a trailing
// delay_bin and possession byte.
func EncodeStateV2(s *GameState) []byte { return encodeState(s, 2) }

// EncodeStateV3 writes the version-3 packet broadcast by the server: each
// ball block carries its own possession code.
func EncodeStateV3(s *GameState) []byte { return encodeState(s, 3) }

// DecodedPlayer is one per-player block read back from a packet.
type DecodedPlayer struct {
	Position     utils.Vec2
	Velocity     utils.Vec2
	IsKnockedOut bool
	HasBall      bool
}

// DecodedBall is one per-ball block read back from a packet.
type DecodedBall struct {
	Position       utils.Vec2
	Velocity       utils.Vec2
	Held           bool
	IsDead         bool
	PossessionCode uint8 // version 3 only, zero otherwise
}

// DecodedState is the client-side view of one broadcast packet.
type DecodedState struct {
	Version        uint8
	GameTime       float64
	Score          [2]int
	Players        []DecodedPlayer
	Balls          []DecodedBall
	DelayBin       uint8 // version 2 trailer only
	PossessionCode uint8 // versions 2 and 3
}

// DecodeState parses a packet of any supported version, dispatching on the
// version byte.
func DecodeState(buf []byte) (*DecodedState, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf("packet too short: %d bytes", len(buf))
	}
	version := buf[0]
	if version < 1 || version > 3 {
		return nil, fmt.Errorf("unsupported packet version %d", version)
	}
	playerCount := int(buf[1])
	ballCount := int(buf[2])
	ballBlock := ballBlockV1
	if version == 3 {
		ballBlock = ballBlockV3
	}
	want := headerSize + playerCount*playerBlock + ballCount*ballBlock
	if version == 2 {
		want += trailerSizeV2
	}
	if len(buf) != want {
		return nil, fmt.Errorf("packet version %d: got %d bytes, want %d", version, len(buf), want)
	}

	out := &DecodedState{
		Version:  version,
		GameTime: getHalf(buf[3:]),
		Score:    [2]int{int(buf[5]), int(buf[6])},
		Players:  make([]DecodedPlayer, playerCount),
		Balls:    make([]DecodedBall, ballCount),
	}
	off := headerSize
	for i := range out.Players {
		p := &out.Players[i]
		p.Position = utils.Vec2{X: getHalf(buf[off:]), Y: getHalf(buf[off+2:])}
		p.Velocity = utils.Vec2{X: getHalf(buf[off+4:]), Y: getHalf(buf[off+6:])}
		p.IsKnockedOut = buf[off+8]&playerFlagKnockedOut != 0
		p.HasBall = buf[off+8]&playerFlagHasBall != 0
		off += playerBlock
	}
	for i := range out.Balls {
		b := &out.Balls[i]
		b.Position = utils.Vec2{X: getHalf(buf[off:]), Y: getHalf(buf[off+2:])}
		b.Velocity = utils.Vec2{X: getHalf(buf[off+4:]), Y: getHalf(buf[off+6:])}
		b.Held = buf[off+8] == 1
		b.IsDead = buf[off+9] == 1
		if version == 3 {
			b.PossessionCode = buf[off+10]
			if b.PossessionCode != 0 {
				out.PossessionCode = b.PossessionCode
			}
		}
		off += ballBlock
	}
	if version == 2 {
		out.DelayBin = buf[off]
		out.PossessionCode = buf[off+1]
	}
	return out, nil
}
