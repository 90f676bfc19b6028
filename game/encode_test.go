// File: game/encode_test.go
package game

import (
	"math"
	"testing"

	"github.com/quadball-arena/quadball/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encoderFixture() *GameState {
	carrier := testPlayer("carrier", 0, utils.RoleChaser, utils.Vec2{X: 12.5, Y: 8.25})
	carrier.Velocity = utils.Vec2{X: 3.5, Y: -1.25}
	down := testPlayer("down", 1, utils.RoleBeater, utils.Vec2{X: 47.25, Y: 20})
	down.KnockOut(3)

	s := newTestState(carrier, down)
	s.Score = [2]int{2, 1}
	s.GameTime = 73.5
	s.DelayBin = 4

	vb := s.Volleyball()
	giveBall(s, carrier, vb)
	db := s.Ball("dodgeball_0")
	db.IsDead = true
	db.Velocity = utils.Vec2{X: -2.5, Y: 0.5}
	return s
}

func TestEncodeState_PacketSizes(t *testing.T) {
	s := encoderFixture()
	// 2 players, 3 balls.
	assert.Len(t, EncodeStateV1(s), 7+2*9+3*10)
	assert.Len(t, EncodeStateV2(s), 7+2*9+3*10+2)
	assert.Len(t, EncodeStateV3(s), 7+2*9+3*11)
}

func TestEncodeState_V3RoundTrip(t *testing.T) {
	s := encoderFixture()
	decoded, err := DecodeState(EncodeStateV3(s))
	require.NoError(t, err)

	assert.Equal(t, uint8(3), decoded.Version)
	assert.Equal(t, [2]int{2, 1}, decoded.Score)
	assert.InEpsilon(t, 73.5, decoded.GameTime, math.Pow(2, -10))

	require.Len(t, decoded.Players, 2)
	require.Len(t, decoded.Balls, 3)

	for i, p := range s.Players() {
		got := decoded.Players[i]
		assert.InDelta(t, p.Position.X, got.Position.X, quantum(p.Position.X), p.ID)
		assert.InDelta(t, p.Position.Y, got.Position.Y, quantum(p.Position.Y), p.ID)
		assert.InDelta(t, p.Velocity.X, got.Velocity.X, quantum(p.Velocity.X), p.ID)
		assert.Equal(t, p.IsKnockedOut, got.IsKnockedOut, p.ID)
		assert.Equal(t, p.HasBall(), got.HasBall, p.ID)
	}
	for i, b := range s.Balls() {
		got := decoded.Balls[i]
		assert.InDelta(t, b.Position.X, got.Position.X, quantum(b.Position.X), b.ID)
		assert.InDelta(t, b.Position.Y, got.Position.Y, quantum(b.Position.Y), b.ID)
		assert.Equal(t, b.Held(), got.Held, b.ID)
		assert.Equal(t, b.IsDead, got.IsDead, b.ID)
		assert.Equal(t, b.PossessionCode(), got.PossessionCode, b.ID)
	}
	assert.Equal(t, uint8(1), decoded.PossessionCode, "team 0 holds the volleyball")
}

// quantum is the absolute half-precision quantization bound for a value.
func quantum(v float64) float64 {
	if v == 0 {
		return 1e-12
	}
	return math.Abs(v) * math.Pow(2, -10)
}

func TestEncodeState_V2Trailer(t *testing.T) {
	s := encoderFixture()
	decoded, err := DecodeState(EncodeStateV2(s))
	require.NoError(t, err)

	assert.Equal(t, uint8(2), decoded.Version)
	assert.Equal(t, uint8(4), decoded.DelayBin)
	assert.Equal(t, uint8(1), decoded.PossessionCode)
	assert.Equal(t, uint8(0), decoded.Balls[0].PossessionCode, "no per-ball possession before version 3")
}

func TestEncodeState_V1OmitsPossession(t *testing.T) {
	s := encoderFixture()
	decoded, err := DecodeState(EncodeStateV1(s))
	require.NoError(t, err)

	assert.Equal(t, uint8(1), decoded.Version)
	assert.Equal(t, uint8(0), decoded.PossessionCode)
	assert.Equal(t, uint8(0), decoded.DelayBin)

	// Positions, velocities and flags still parse correctly.
	v3, err := DecodeState(EncodeStateV3(s))
	require.NoError(t, err)
	for i := range decoded.Players {
		assert.Equal(t, v3.Players[i].Position, decoded.Players[i].Position)
		assert.Equal(t, v3.Players[i].Velocity, decoded.Players[i].Velocity)
		assert.Equal(t, v3.Players[i].IsKnockedOut, decoded.Players[i].IsKnockedOut)
		assert.Equal(t, v3.Players[i].HasBall, decoded.Players[i].HasBall)
	}
	for i := range decoded.Balls {
		assert.Equal(t, v3.Balls[i].Position, decoded.Balls[i].Position)
		assert.Equal(t, v3.Balls[i].Held, decoded.Balls[i].Held)
		assert.Equal(t, v3.Balls[i].IsDead, decoded.Balls[i].IsDead)
	}
}

func TestDecodeState_Malformed(t *testing.T) {
	s := encoderFixture()
	good := EncodeStateV3(s)

	testCases := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"short header", good[:5]},
		{"unknown version", append([]byte{9}, good[1:]...)},
		{"version zero", append([]byte{0}, good[1:]...)},
		{"truncated body", good[:len(good)-3]},
		{"trailing garbage", append(append([]byte{}, good...), 0xff)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeState(tc.buf)
			assert.Error(t, err)
		})
	}
}
