// File: server/handlers_test.go
package server

import (
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lguibr/bollywood"
	"github.com/quadball-arena/quadball/game"
	"github.com/quadball-arena/quadball/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

const recvTimeout = 2 * time.Second

// --- Test Setup ---

func setupTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	engine := bollywood.NewEngine()
	t.Cleanup(func() { engine.Shutdown(2 * time.Second) })

	srv := New(engine, utils.DefaultConfig())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	ws, err := websocket.Dial(wsURL, "", ts.URL)
	require.NoError(t, err)
	require.NotNil(t, ws)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func recvJSON(t *testing.T, ws *websocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(recvTimeout)))
	require.NoError(t, websocket.JSON.Receive(ws, v))
}

// --- Tests ---

func TestHealthz(t *testing.T) {
	_, ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLobby_CreateAndList(t *testing.T) {
	_, ts := setupTestServer(t)
	creator := dialWS(t, ts, "/ws/lobby")

	require.NoError(t, websocket.JSON.Send(creator, game.CreateRoomRequest{Type: "create_room", PlayerName: "alice"}))
	var created game.RoomCreatedMessage
	recvJSON(t, creator, &created)

	assert.Equal(t, "room_created", created.Type)
	assert.Len(t, created.RoomID, 6)
	assert.NotEmpty(t, created.PlayerID)
	require.Len(t, created.Players, 1)
	assert.Equal(t, "alice", created.Players[0].Name)

	observer := dialWS(t, ts, "/ws/lobby")
	require.NoError(t, websocket.JSON.Send(observer, game.ListRoomsRequest{Type: "list_rooms"}))
	var list game.RoomsListMessage
	recvJSON(t, observer, &list)

	assert.Equal(t, "rooms_list", list.Type)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, created.RoomID, list.Rooms[0].RoomID)
	assert.Equal(t, "alice", list.Rooms[0].CreatorName)
}

func TestLobby_JoinFailedForUnknownRoom(t *testing.T) {
	_, ts := setupTestServer(t)
	ws := dialWS(t, ts, "/ws/lobby")

	require.NoError(t, websocket.JSON.Send(ws, game.JoinRoomRequest{Type: "join_room", RoomID: "NOSUCH", PlayerName: "bob"}))
	var failed game.JoinFailedMessage
	recvJSON(t, ws, &failed)

	assert.Equal(t, "join_failed", failed.Type)
	assert.Contains(t, failed.Error, "not found")
}

func TestLobby_FullHandshake(t *testing.T) {
	_, ts := setupTestServer(t)
	creator := dialWS(t, ts, "/ws/lobby")
	joiner := dialWS(t, ts, "/ws/lobby")

	require.NoError(t, websocket.JSON.Send(creator, game.CreateRoomRequest{Type: "create_room", PlayerName: "alice"}))
	var created game.RoomCreatedMessage
	recvJSON(t, creator, &created)

	require.NoError(t, websocket.JSON.Send(joiner, game.JoinRoomRequest{Type: "join_room", RoomID: created.RoomID, PlayerName: "bob"}))
	var joined game.JoinSuccessfulMessage
	recvJSON(t, joiner, &joined)
	assert.Equal(t, "join_successful", joined.Type)
	assert.Len(t, joined.Players, 2)

	// Both lobby members see the roster broadcast.
	var updated game.PlayersUpdatedMessage
	recvJSON(t, creator, &updated)
	assert.Equal(t, "players_updated", updated.Type)
	assert.Len(t, updated.Players, 2)
	recvJSON(t, joiner, &updated)
	assert.Equal(t, "players_updated", updated.Type)

	// Non-creator cannot start the game.
	require.NoError(t, websocket.JSON.Send(joiner, game.StartGameRequest{Type: "start_game", RoomID: created.RoomID}))
	var startFailed game.JoinFailedMessage
	recvJSON(t, joiner, &startFailed)
	assert.Equal(t, "start_failed", startFailed.Type)

	// The creator starts; every member gets start_successful with their own
	// player ID.
	require.NoError(t, websocket.JSON.Send(creator, game.StartGameRequest{Type: "start_game", RoomID: created.RoomID}))
	var creatorStart, joinerStart game.StartSuccessfulMessage
	recvJSON(t, creator, &creatorStart)
	recvJSON(t, joiner, &joinerStart)

	assert.Equal(t, "start_successful", creatorStart.Type)
	assert.Equal(t, created.PlayerID, creatorStart.PlayerID)
	assert.Equal(t, joined.PlayerID, joinerStart.PlayerID)
	assert.NotEqual(t, creatorStart.PlayerID, joinerStart.PlayerID)
}

func TestGameSocket_InitialStateThenBinaryFrames(t *testing.T) {
	_, ts := setupTestServer(t)
	creator := dialWS(t, ts, "/ws/lobby")

	require.NoError(t, websocket.JSON.Send(creator, game.CreateRoomRequest{Type: "create_room", PlayerName: "alice"}))
	var created game.RoomCreatedMessage
	recvJSON(t, creator, &created)
	require.NoError(t, websocket.JSON.Send(creator, game.StartGameRequest{Type: "start_game", RoomID: created.RoomID}))
	var started game.StartSuccessfulMessage
	recvJSON(t, creator, &started)

	gameWS := dialWS(t, ts, "/ws/game/"+created.RoomID+"/"+created.PlayerID)

	// The first frame is always the JSON snapshot.
	var initial game.InitialStateMessage
	recvJSON(t, gameWS, &initial)
	assert.Equal(t, "initial_state", initial.Type)
	require.Len(t, initial.PlayersOrder, 1)
	assert.Equal(t, created.PlayerID, initial.PlayersOrder[0])
	assert.Len(t, initial.BallsOrder, 3)
	assert.Len(t, initial.Hoops, 6)
	assert.Equal(t, 60.0, initial.Config.PitchLength)

	// Then version-3 binary frames at the tick rate.
	var frame []byte
	require.NoError(t, gameWS.SetReadDeadline(time.Now().Add(recvTimeout)))
	require.NoError(t, websocket.Message.Receive(gameWS, &frame))
	decoded, err := game.DecodeState(frame)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), decoded.Version)
	assert.Len(t, decoded.Players, 1)
	assert.Len(t, decoded.Balls, 3)

	// Movement intents are 4-byte half-float pairs; the simulation reacts.
	move := make([]byte, 4)
	binary.LittleEndian.PutUint16(move[0:], utils.FloatToHalf(1))
	binary.LittleEndian.PutUint16(move[2:], utils.FloatToHalf(0))
	require.NoError(t, websocket.Message.Send(gameWS, move))

	moved := false
	for i := 0; i < 20 && !moved; i++ {
		require.NoError(t, gameWS.SetReadDeadline(time.Now().Add(recvTimeout)))
		require.NoError(t, websocket.Message.Receive(gameWS, &frame))
		d, err := game.DecodeState(frame)
		require.NoError(t, err)
		if d.Players[0].Velocity.X > 0 {
			moved = true
		}
	}
	assert.True(t, moved, "movement input should reach the simulation")
}

func TestGameSocket_RejectsUnknownRoom(t *testing.T) {
	_, ts := setupTestServer(t)
	ws := dialWS(t, ts, "/ws/game/NOSUCH/nobody")

	var frame []byte
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(recvTimeout)))
	err := websocket.Message.Receive(ws, &frame)
	assert.Error(t, err, "server closes the socket without sending anything")
}

func TestParseGamePath(t *testing.T) {
	testCases := []struct {
		path     string
		roomID   string
		playerID string
		ok       bool
	}{
		{"/ws/game/ABC123/player-1", "ABC123", "player-1", true},
		{"/ws/game/ABC123/player-1/", "ABC123", "player-1", true},
		{"/ws/game/ABC123", "", "", false},
		{"/ws/game/", "", "", false},
		{"/ws/other/ABC123/player-1", "", "", false},
		{"/ws/game/ABC123/player-1/extra", "", "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			roomID, playerID, ok := parseGamePath(tc.path)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.roomID, roomID)
			assert.Equal(t, tc.playerID, playerID)
		})
	}
}
