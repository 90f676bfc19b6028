// File: server/lobby_handler.go
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/quadball-arena/quadball/game"
	"golang.org/x/net/websocket"
)

// HandleLobby runs the JSON lobby protocol on one socket: room creation,
// listing, joining, roster edits and the start handshake.
func (s *Server) HandleLobby() func(ws *websocket.Conn) {
	return func(ws *websocket.Conn) {
		connectionAddr := ws.RemoteAddr().String()
		fmt.Printf("Lobby: new connection from %s\n", connectionAddr)

		defer func() {
			if r := recover(); r != nil {
				fmt.Printf("PANIC recovered in lobby handler for %s: %v\nStack trace:\n%s\n", connectionAddr, r, string(debug.Stack()))
			}
			s.registry.DropLobbyConn(ws)
			_ = ws.Close()
			fmt.Printf("Lobby: connection %s closed\n", connectionAddr)
		}()

		// Rooms this socket has an identity in, for start_game authorization.
		myPlayerIDs := map[string]string{} // room ID -> player ID

		for {
			var raw []byte
			if err := websocket.Message.Receive(ws, &raw); err != nil {
				if !isClosedErr(err) {
					fmt.Printf("Lobby: read error from %s: %v\n", connectionAddr, err)
				}
				return
			}

			var header game.MessageHeader
			if err := json.Unmarshal(raw, &header); err != nil {
				// Malformed frame: tell the client why and drop the socket.
				_ = websocket.JSON.Send(ws, game.JoinFailedMessage{Type: "join_failed", Error: "malformed message"})
				return
			}

			switch header.Type {
			case "create_room":
				var req game.CreateRoomRequest
				if err := json.Unmarshal(raw, &req); err != nil {
					_ = websocket.JSON.Send(ws, game.JoinFailedMessage{Type: "join_failed", Error: "malformed create_room"})
					return
				}
				roomID, playerID, roster := s.registry.CreateRoom(req.PlayerName, ws)
				myPlayerIDs[roomID] = playerID
				_ = websocket.JSON.Send(ws, game.RoomCreatedMessage{
					Type: "room_created", RoomID: roomID, PlayerID: playerID, Players: roster,
				})

			case "list_rooms":
				_ = websocket.JSON.Send(ws, game.RoomsListMessage{Type: "rooms_list", Rooms: s.registry.ListRooms()})

			case "join_room":
				var req game.JoinRoomRequest
				if err := json.Unmarshal(raw, &req); err != nil {
					_ = websocket.JSON.Send(ws, game.JoinFailedMessage{Type: "join_failed", Error: "malformed join_room"})
					return
				}
				playerID, roster, err := s.registry.JoinRoom(req.RoomID, req.PlayerName, ws)
				if err != nil {
					_ = websocket.JSON.Send(ws, game.JoinFailedMessage{Type: "join_failed", Error: err.Error()})
					continue
				}
				myPlayerIDs[req.RoomID] = playerID
				_ = websocket.JSON.Send(ws, game.JoinSuccessfulMessage{
					Type: "join_successful", RoomID: req.RoomID, PlayerID: playerID, Players: roster,
				})
				s.broadcastToRoom(req.RoomID, func(string) interface{} {
					return game.PlayersUpdatedMessage{Type: "players_updated", Players: roster}
				})

			case "update_player":
				var req game.UpdatePlayerRequest
				if err := json.Unmarshal(raw, &req); err != nil {
					_ = websocket.JSON.Send(ws, game.JoinFailedMessage{Type: "join_failed", Error: "malformed update_player"})
					return
				}
				roster, err := s.registry.UpdatePlayer(req.RoomID, req.PlayerID, req.Team, req.Role)
				if err != nil {
					_ = websocket.JSON.Send(ws, game.JoinFailedMessage{Type: "update_failed", Error: err.Error()})
					continue
				}
				s.broadcastToRoom(req.RoomID, func(string) interface{} {
					return game.PlayersUpdatedMessage{Type: "players_updated", Players: roster}
				})

			case "start_game":
				var req game.StartGameRequest
				if err := json.Unmarshal(raw, &req); err != nil {
					_ = websocket.JSON.Send(ws, game.JoinFailedMessage{Type: "join_failed", Error: "malformed start_game"})
					return
				}
				senderID := myPlayerIDs[req.RoomID]
				if senderID == "" {
					_ = websocket.JSON.Send(ws, game.JoinFailedMessage{Type: "start_failed", Error: game.ErrUnknownPlayer.Error()})
					continue
				}
				// Every member learns the game started, each with their own
				// player ID for the game socket URL.
				conns := s.registry.LobbyConns(req.RoomID)
				if err := s.registry.StartGame(req.RoomID, senderID); err != nil {
					_ = websocket.JSON.Send(ws, game.JoinFailedMessage{Type: "start_failed", Error: err.Error()})
					continue
				}
				for playerID, conn := range conns {
					if err := websocket.JSON.Send(conn, game.StartSuccessfulMessage{
						Type: "start_successful", RoomID: req.RoomID, PlayerID: playerID,
					}); err != nil && !isClosedErr(err) {
						fmt.Printf("WARN: Lobby: failed to send start_successful to %s: %v\n", playerID, err)
					}
				}

			default:
				_ = websocket.JSON.Send(ws, game.JoinFailedMessage{Type: "join_failed", Error: fmt.Sprintf("unknown message type %q", header.Type)})
			}
		}
	}
}

// broadcastToRoom sends one message to every lobby socket in a room. The
// build callback receives the recipient's player ID.
func (s *Server) broadcastToRoom(roomID string, build func(playerID string) interface{}) {
	for playerID, conn := range s.registry.LobbyConns(roomID) {
		if err := websocket.JSON.Send(conn, build(playerID)); err != nil && !isClosedErr(err) {
			fmt.Printf("WARN: Lobby: broadcast to %s failed: %v\n", playerID, err)
		}
	}
}

func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "closed")
}
