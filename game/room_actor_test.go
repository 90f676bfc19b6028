// File: game/room_actor_test.go
package game

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lguibr/bollywood"
	"github.com/quadball-arena/quadball/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

const askTimeout = 500 * time.Millisecond

func spawnTestRoom(t *testing.T, onClose func(string)) (*bollywood.Engine, *bollywood.PID) {
	t.Helper()
	state := newTestState(fullRoster()...)
	state.ResetForKickoff()
	return spawnTestRoomWithState(t, state, onClose)
}

func spawnTestRoomWithState(t *testing.T, state *GameState, onClose func(string)) (*bollywood.Engine, *bollywood.PID) {
	t.Helper()
	engine := bollywood.NewEngine()
	t.Cleanup(func() { engine.Shutdown(2 * time.Second) })

	pid := engine.Spawn(bollywood.NewProps(NewRoomActorProducer(engine, "TEST42", state, onClose)))
	require.NotNil(t, pid)
	return engine, pid
}

// dialTestSocket builds a live websocket pair and returns the server side, the
// half a RoomActor would receive from the game handler.
func dialTestSocket(t *testing.T) *websocket.Conn {
	t.Helper()
	connCh := make(chan *websocket.Conn, 1)
	done := make(chan struct{})
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		connCh <- ws
		<-done
	}))
	t.Cleanup(func() { close(done); srv.Close() })

	client, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return <-connCh
}

func askSnapshot(t *testing.T, engine *bollywood.Engine, pid *bollywood.PID) internalGetStateResponse {
	t.Helper()
	reply, err := engine.Ask(pid, internalGetStateRequest{}, askTimeout)
	require.NoError(t, err)
	resp, ok := reply.(internalGetStateResponse)
	require.True(t, ok, "reply should be internalGetStateResponse, got %T", reply)
	return resp
}

func TestRoomActor_TicksAdvanceGameTime(t *testing.T) {
	engine, pid := spawnTestRoom(t, nil)

	time.Sleep(300 * time.Millisecond)
	snap := askSnapshot(t, engine, pid)

	assert.Greater(t, snap.GameTime, 0.1, "ticker should be driving the simulation")
	assert.Equal(t, [2]int{0, 0}, snap.Score)
	assert.Equal(t, 0, snap.DelayBin)
}

func TestRoomActor_DisconnectedPlayersAreHeldKnockedOut(t *testing.T) {
	engine, pid := spawnTestRoom(t, nil)

	// Nobody has attached a game socket, so every tick re-knocks the whole
	// roster until their sockets show up.
	time.Sleep(200 * time.Millisecond)
	snap := askSnapshot(t, engine, pid)
	assert.Equal(t, 8, snap.KnockedOut)
}

func TestRoomActor_InputsFromUnconnectedPlayersAreDropped(t *testing.T) {
	engine, pid := spawnTestRoom(t, nil)

	engine.Send(pid, MoveInput{PlayerID: "b_chaser", Direction: utils.Vec2{X: 1}}, nil)
	engine.Send(pid, ThrowInput{PlayerID: "b_chaser"}, nil)

	time.Sleep(200 * time.Millisecond)
	snap := askSnapshot(t, engine, pid)
	assert.Equal(t, 0, snap.Events)
	assert.Equal(t, [2]int{0, 0}, snap.Score)
}

func TestRoomActor_InitialStateSnapshot(t *testing.T) {
	engine, pid := spawnTestRoom(t, nil)

	reply, err := engine.Ask(pid, GetInitialStateRequest{}, askTimeout)
	require.NoError(t, err)
	msg, ok := reply.(InitialStateMessage)
	require.True(t, ok, "reply should be InitialStateMessage, got %T", reply)

	assert.Equal(t, "initial_state", msg.Type)
	assert.Len(t, msg.PlayersOrder, 8)
	assert.Len(t, msg.BallsOrder, 3)
	assert.Len(t, msg.Hoops, 6)
}

func TestRoomActor_ConnectLiftsDisconnectPause(t *testing.T) {
	engine, pid := spawnTestRoom(t, nil)

	// Let the pause knock the whole roster down, then attach one socket.
	time.Sleep(200 * time.Millisecond)
	engine.Send(pid, PlayerConnect{PlayerID: "b_chaser", Conn: dialTestSocket(t)}, nil)

	time.Sleep(200 * time.Millisecond)
	snap := askSnapshot(t, engine, pid)
	assert.Equal(t, 7, snap.KnockedOut, "the connected player is back up, the rest stay paused")
}

func TestRoomActor_BeatPenaltySurvivesReconnect(t *testing.T) {
	cfg := utils.DefaultConfig()
	state := newTestState(fullRoster()...)
	state.ResetForKickoff()
	state.Player("b_chaser").KnockOut(cfg.KnockoutDuration)
	engine, pid := spawnTestRoomWithState(t, state, nil)

	engine.Send(pid, PlayerConnect{PlayerID: "b_chaser", Conn: dialTestSocket(t)}, nil)

	time.Sleep(200 * time.Millisecond)
	snap := askSnapshot(t, engine, pid)
	assert.Equal(t, 8, snap.KnockedOut, "cycling the socket does not erase a beat penalty")
}

func TestRoomActor_StopIsClean(t *testing.T) {
	engine, pid := spawnTestRoom(t, nil)

	time.Sleep(100 * time.Millisecond)
	engine.Stop(pid)
	time.Sleep(100 * time.Millisecond)

	_, err := engine.Ask(pid, internalGetStateRequest{}, 100*time.Millisecond)
	assert.Error(t, err, "stopped actor no longer answers")
}
