// File: game/registry.go
package game

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lguibr/bollywood"
	"github.com/quadball-arena/quadball/utils"
	"golang.org/x/net/websocket"
)

// Registry errors surfaced to lobby clients as typed failure messages.
var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomStarted   = errors.New("room already started")
	ErrNotCreator    = errors.New("only the room creator can start the game")
	ErrUnknownPlayer = errors.New("player not in room")
	ErrRoomFull      = errors.New("room is full")
)

const roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// Room is one lobby-or-running game room.
type Room struct {
	ID        string
	CreatorID string

	rosterOrder []string
	roster      map[string]*RosterEntry
	lobbyConns  map[string]*websocket.Conn

	started  bool
	actorPID *bollywood.PID
}

// Registry owns all rooms. It is a plain value held by the server and passed
// to handlers; the mutex covers the room map and each room's lobby-phase
// fields. Running rooms are owned by their RoomActor.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	engine *bollywood.Engine
	cfg    utils.Config
}

// NewRegistry creates an empty room registry.
func NewRegistry(engine *bollywood.Engine, cfg utils.Config) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		engine: engine,
		cfg:    cfg,
	}
}

// newRoomID allocates a short random room code.
func newRoomID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in real trouble.
		panic(fmt.Sprintf("room id generation: %v", err))
	}
	for i, b := range buf {
		buf[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
	}
	return string(buf)
}

func validRole(role string) bool {
	switch role {
	case utils.RoleKeeper, utils.RoleChaser, utils.RoleBeater, utils.RoleSeeker:
		return true
	}
	return false
}

// rosterSnapshot copies the roster in join order. Caller holds the lock.
func (room *Room) rosterSnapshot() []RosterEntry {
	out := make([]RosterEntry, 0, len(room.rosterOrder))
	for _, id := range room.rosterOrder {
		out = append(out, *room.roster[id])
	}
	return out
}

// CreateRoom opens a new lobby-phase room with the given player as creator.
func (r *Registry) CreateRoom(playerName string, conn *websocket.Conn) (roomID, playerID string, roster []RosterEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomID = newRoomID()
	for r.rooms[roomID] != nil {
		roomID = newRoomID()
	}
	playerID = uuid.NewString()
	room := &Room{
		ID:          roomID,
		CreatorID:   playerID,
		rosterOrder: []string{playerID},
		roster: map[string]*RosterEntry{
			playerID: {PlayerID: playerID, Name: playerName, Team: 0, Role: utils.RoleChaser},
		},
		lobbyConns: map[string]*websocket.Conn{playerID: conn},
	}
	r.rooms[roomID] = room
	return roomID, playerID, room.rosterSnapshot()
}

// ListRooms returns the rooms still accepting players.
func (r *Registry) ListRooms() []RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []RoomSummary{}
	for _, room := range r.rooms {
		if room.started {
			continue
		}
		creatorName := ""
		if c := room.roster[room.CreatorID]; c != nil {
			creatorName = c.Name
		}
		out = append(out, RoomSummary{
			RoomID:      room.ID,
			CreatorName: creatorName,
			PlayerCount: len(room.rosterOrder),
		})
	}
	return out
}

// JoinRoom adds a player to a lobby-phase room, balancing teams by count and
// defaulting the role to chaser.
func (r *Registry) JoinRoom(roomID, playerName string, conn *websocket.Conn) (playerID string, roster []RosterEntry, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[roomID]
	if room == nil {
		return "", nil, ErrRoomNotFound
	}
	if room.started {
		return "", nil, ErrRoomStarted
	}
	if len(room.rosterOrder) >= r.cfg.MaxRosterSize {
		return "", nil, ErrRoomFull
	}

	teamCounts := [2]int{}
	for _, e := range room.roster {
		teamCounts[e.Team]++
	}
	team := 0
	if teamCounts[1] < teamCounts[0] {
		team = 1
	}

	playerID = uuid.NewString()
	room.roster[playerID] = &RosterEntry{PlayerID: playerID, Name: playerName, Team: team, Role: utils.RoleChaser}
	room.rosterOrder = append(room.rosterOrder, playerID)
	room.lobbyConns[playerID] = conn
	return playerID, room.rosterSnapshot(), nil
}

// UpdatePlayer changes a roster entry's team or role during the lobby phase.
func (r *Registry) UpdatePlayer(roomID, playerID string, team int, role string) ([]RosterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[roomID]
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if room.started {
		return nil, ErrRoomStarted
	}
	entry := room.roster[playerID]
	if entry == nil {
		return nil, ErrUnknownPlayer
	}
	if team != 0 && team != 1 {
		return nil, fmt.Errorf("invalid team %d", team)
	}
	if !validRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	entry.Team = team
	entry.Role = role
	return room.rosterSnapshot(), nil
}

// StartGame transitions a room to running: it builds the kickoff state from
// the roster and spawns the room's tick actor. Creator only.
func (r *Registry) StartGame(roomID, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[roomID]
	if room == nil {
		return ErrRoomNotFound
	}
	if room.started {
		return ErrRoomStarted
	}
	if room.roster[playerID] == nil {
		return ErrUnknownPlayer
	}
	if playerID != room.CreatorID {
		return ErrNotCreator
	}

	state := NewGameState(r.cfg)
	for _, id := range room.rosterOrder {
		e := room.roster[id]
		state.AddPlayer(NewPlayer(r.cfg, e.PlayerID, e.Name, e.Team, e.Role, utils.Vec2{}))
	}
	state.SetupBalls()
	state.ResetForKickoff()

	props := bollywood.NewProps(NewRoomActorProducer(r.engine, roomID, state, r.Remove))
	room.actorPID = r.engine.Spawn(props)
	room.started = true
	return nil
}

// Remove deletes a room, stopping its actor if it is still running. Safe to
// call from the RoomActor's own teardown path.
func (r *Registry) Remove(roomID string) {
	r.mu.Lock()
	room := r.rooms[roomID]
	delete(r.rooms, roomID)
	r.mu.Unlock()

	if room != nil && room.actorPID != nil {
		r.engine.Stop(room.actorPID)
	}
}

// RoomActorPID returns the tick actor for a running room.
func (r *Registry) RoomActorPID(roomID string) (*bollywood.PID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[roomID]
	if room == nil || !room.started || room.actorPID == nil {
		return nil, false
	}
	return room.actorPID, true
}

// HasPlayer reports whether a player ID belongs to a room's roster.
func (r *Registry) HasPlayer(roomID, playerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[roomID]
	return room != nil && room.roster[playerID] != nil
}

// LobbyConns snapshots the lobby sockets of a room's members, keyed by player
// ID, for roster and start broadcasts.
func (r *Registry) LobbyConns(roomID string) map[string]*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[roomID]
	if room == nil {
		return nil
	}
	out := make(map[string]*websocket.Conn, len(room.lobbyConns))
	for id, conn := range room.lobbyConns {
		if conn != nil {
			out[id] = conn
		}
	}
	return out
}

// DropLobbyConn detaches a closed lobby socket from whichever rooms hold it.
// Lobby-phase rooms left with no creator socket stay joinable; teardown of
// abandoned lobbies is the operator's concern, not the protocol's.
func (r *Registry) DropLobbyConn(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		for id, c := range room.lobbyConns {
			if c == conn {
				delete(room.lobbyConns, id)
			}
		}
	}
}
