// File: server/game_handler.go
package server

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/quadball-arena/quadball/game"
	"github.com/quadball-arena/quadball/utils"
	"golang.org/x/net/websocket"
)

const snapshotTimeout = 2 * time.Second

// HandleGame attaches one game socket at /ws/game/{room_id}/{player_id} to
// its running room. Inbound frames are either a 4-byte movement intent (two
// little-endian half floats) or a JSON throw request.
func (s *Server) HandleGame() func(ws *websocket.Conn) {
	return func(ws *websocket.Conn) {
		connectionAddr := ws.RemoteAddr().String()
		defer func() {
			if r := recover(); r != nil {
				fmt.Printf("PANIC recovered in game handler for %s: %v\nStack trace:\n%s\n", connectionAddr, r, string(debug.Stack()))
			}
			_ = ws.Close()
		}()

		roomID, playerID, ok := parseGamePath(ws.Request().URL.Path)
		if !ok {
			fmt.Printf("Game: bad path %q from %s\n", ws.Request().URL.Path, connectionAddr)
			return
		}
		roomPID, running := s.registry.RoomActorPID(roomID)
		if !running || !s.registry.HasPlayer(roomID, playerID) {
			fmt.Printf("Game: rejected %s: unknown room %q or player %q\n", connectionAddr, roomID, playerID)
			return
		}

		// The snapshot is written here, on the connection's own goroutine, so
		// a slow client stalls only itself. PlayerConnect goes out after the
		// write, which keeps the JSON snapshot ahead of any binary frame.
		reply, err := s.engine.Ask(roomPID, game.GetInitialStateRequest{}, snapshotTimeout)
		if err != nil {
			fmt.Printf("Game: no state snapshot for %s in room %s: %v\n", playerID, roomID, err)
			return
		}
		snapshot, ok := reply.(game.InitialStateMessage)
		if !ok {
			fmt.Printf("Game: unexpected snapshot reply %T for room %s\n", reply, roomID)
			return
		}
		if err := websocket.JSON.Send(ws, snapshot); err != nil {
			if !isClosedErr(err) {
				fmt.Printf("Game: failed to send initial state to %s (%s): %v\n", playerID, connectionAddr, err)
			}
			return
		}

		s.engine.Send(roomPID, game.PlayerConnect{PlayerID: playerID, Conn: ws}, nil)
		defer s.engine.Send(roomPID, game.PlayerDisconnect{PlayerID: playerID, Conn: ws}, nil)

		for {
			var raw []byte
			if err := websocket.Message.Receive(ws, &raw); err != nil {
				if !isClosedErr(err) {
					fmt.Printf("Game: read error from %s (%s): %v\n", playerID, connectionAddr, err)
				}
				return
			}

			switch {
			case len(raw) == 4:
				dir := utils.Vec2{
					X: utils.HalfToFloat(binary.LittleEndian.Uint16(raw[0:])),
					Y: utils.HalfToFloat(binary.LittleEndian.Uint16(raw[2:])),
				}
				s.engine.Send(roomPID, game.MoveInput{PlayerID: playerID, Direction: dir}, nil)

			default:
				var msg game.ThrowMessage
				if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "throw" {
					fmt.Printf("Game: malformed frame from %s (%s), closing\n", playerID, connectionAddr)
					return
				}
				s.engine.Send(roomPID, game.ThrowInput{PlayerID: playerID}, nil)
			}
		}
	}
}

// parseGamePath extracts room and player IDs from /ws/game/{room}/{player}.
func parseGamePath(path string) (roomID, playerID string, ok bool) {
	rest := strings.TrimPrefix(path, "/ws/game/")
	if rest == path {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
