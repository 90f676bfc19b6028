// File: game/messages.go
package game

import (
	"github.com/quadball-arena/quadball/utils"
	"golang.org/x/net/websocket"
)

// --- Message Header ---
// Used for identifying message types after unmarshalling from JSON.
type MessageHeader struct {
	Type string `json:"type"`
}

// --- Lobby WebSocket Messages (Client -> Server) ---

// CreateRoomRequest asks the server to open a new room with the sender as
// creator.
type CreateRoomRequest struct {
	Type       string `json:"type"` // "create_room"
	PlayerName string `json:"player_name"`
}

// JoinRoomRequest asks to join an existing room in lobby phase.
type JoinRoomRequest struct {
	Type       string `json:"type"` // "join_room"
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

// ListRoomsRequest asks for all rooms currently accepting players.
type ListRoomsRequest struct {
	Type string `json:"type"` // "list_rooms"
}

// UpdatePlayerRequest changes a roster entry's team or role.
type UpdatePlayerRequest struct {
	Type     string `json:"type"` // "update_player"
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
	Team     int    `json:"team"`
	Role     string `json:"role"`
}

// StartGameRequest moves a room from lobby to running. Creator only.
type StartGameRequest struct {
	Type   string `json:"type"` // "start_game"
	RoomID string `json:"room_id"`
}

// --- Lobby WebSocket Messages (Server -> Client) ---

// RosterEntry is one player's lobby-phase record.
type RosterEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Team     int    `json:"team"`
	Role     string `json:"role"`
}

// RoomSummary describes one joinable room in a rooms_list reply.
type RoomSummary struct {
	RoomID      string `json:"room_id"`
	CreatorName string `json:"creator_name"`
	PlayerCount int    `json:"player_count"`
}

// RoomCreatedMessage confirms room creation to the creator.
type RoomCreatedMessage struct {
	Type     string        `json:"type"` // "room_created"
	RoomID   string        `json:"room_id"`
	PlayerID string        `json:"player_id"`
	Players  []RosterEntry `json:"players"`
}

// JoinSuccessfulMessage confirms a join to the joining client.
type JoinSuccessfulMessage struct {
	Type     string        `json:"type"` // "join_successful"
	RoomID   string        `json:"room_id"`
	PlayerID string        `json:"player_id"`
	Players  []RosterEntry `json:"players"`
}

// JoinFailedMessage reports a failed join/update/start with a readable reason.
type JoinFailedMessage struct {
	Type  string `json:"type"` // "join_failed"
	Error string `json:"error"`
}

// RoomsListMessage carries the joinable rooms.
type RoomsListMessage struct {
	Type  string        `json:"type"` // "rooms_list"
	Rooms []RoomSummary `json:"rooms"`
}

// PlayersUpdatedMessage broadcasts the room roster after any change.
type PlayersUpdatedMessage struct {
	Type    string        `json:"type"` // "players_updated"
	Players []RosterEntry `json:"players"`
}

// StartSuccessfulMessage tells each lobby member the game started, carrying
// that member's own player ID for the game socket URL.
type StartSuccessfulMessage struct {
	Type     string `json:"type"` // "start_successful"
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

// --- Game WebSocket Messages ---

// ConfigBlock is the subset of config clients need to render the pitch.
type ConfigBlock struct {
	PitchLength      float64 `json:"pitch_length"`
	PitchWidth       float64 `json:"pitch_width"`
	KeeperZoneX      float64 `json:"keeper_zone_x"`
	HoopRadius       float64 `json:"hoop_radius"`
	HoopThickness    float64 `json:"hoop_thickness"`
	PlayerRadius     float64 `json:"player_radius"`
	VolleyballRadius float64 `json:"volleyball_radius"`
	DodgeballRadius  float64 `json:"dodgeball_radius"`
}

// NewConfigBlock extracts the client-facing fields from a config.
func NewConfigBlock(cfg utils.Config) ConfigBlock {
	return ConfigBlock{
		PitchLength:      cfg.PitchLength,
		PitchWidth:       cfg.PitchWidth,
		KeeperZoneX:      cfg.KeeperZoneX,
		HoopRadius:       cfg.HoopRadius,
		HoopThickness:    cfg.HoopThickness,
		PlayerRadius:     cfg.PlayerRadius,
		VolleyballRadius: cfg.VolleyballRadius,
		DodgeballRadius:  cfg.DodgeballRadius,
	}
}

// InitialStateMessage is the first frame on every game socket. The order
// arrays let clients resolve the anonymous blocks in later binary frames.
type InitialStateMessage struct {
	Type         string      `json:"type"` // "initial_state"
	Players      []*Player   `json:"players"`
	Balls        []*Ball     `json:"balls"`
	Hoops        []Hoop      `json:"hoops"`
	Score        [2]int      `json:"score"`
	GameTime     float64     `json:"game_time"`
	PlayersOrder []string    `json:"players_order"`
	BallsOrder   []string    `json:"balls_order"`
	Config       ConfigBlock `json:"config"`
}

// NewInitialStateMessage snapshots a state for a newly connected client.
func NewInitialStateMessage(s *GameState) InitialStateMessage {
	return InitialStateMessage{
		Type:         "initial_state",
		Players:      s.Players(),
		Balls:        s.Balls(),
		Hoops:        s.Hoops,
		Score:        s.Score,
		GameTime:     s.GameTime,
		PlayersOrder: s.PlayerOrder(),
		BallsOrder:   s.BallOrder(),
		Config:       NewConfigBlock(s.Config()),
	}
}

// StateUpdateMessage announces a discrete rules event between binary frames.
// It also carries delay_bin, which the binary version-3 format leaves out.
type StateUpdateMessage struct {
	Type           string    `json:"type"` // "state_update"
	Event          EventType `json:"event"`
	Team           int       `json:"team"`
	Score          [2]int    `json:"score"`
	GameTime       float64   `json:"game_time"`
	DelayBin       int       `json:"delay_bin"`
	PossessionCode uint8     `json:"possession_code"`
}

// ThrowMessage is the JSON throw intent on the game socket.
type ThrowMessage struct {
	Type string `json:"type"` // "throw"
}

// --- RoomActor Messages ---

// GameTick signals the RoomActor to run one simulation step.
type GameTick struct{}

// GetInitialStateRequest asks the RoomActor for the connect-time snapshot.
// The game socket handler sends it via Ask and writes the reply to the new
// socket itself, so a slow client never stalls the tick loop.
type GetInitialStateRequest struct{}

// PlayerConnect attaches a game socket to its player in a running room.
type PlayerConnect struct {
	PlayerID string
	Conn     *websocket.Conn
}

// PlayerDisconnect tells the RoomActor a player's game socket dropped.
type PlayerDisconnect struct {
	PlayerID string
	Conn     *websocket.Conn
}

// MoveInput carries a movement intent; the latest one per tick wins.
type MoveInput struct {
	PlayerID  string
	Direction utils.Vec2
}

// ThrowInput queues a throw intent, applied in arrival order.
type ThrowInput struct {
	PlayerID string
}

// --- BroadcasterActor Messages ---

// AddClient tells the Broadcaster to start sending frames to a connection.
type AddClient struct {
	PlayerID string
	Conn     *websocket.Conn
}

// RemoveClient tells the Broadcaster to stop sending frames to a connection.
type RemoveClient struct {
	Conn *websocket.Conn
}

// BroadcastFrame fans a binary state packet out to every client.
type BroadcastFrame struct {
	Data []byte
}

// BroadcastJSON fans a JSON message out to every client.
type BroadcastJSON struct {
	Message interface{}
}

// --- Internal Test Messages ---

// internalGetStateRequest asks the RoomActor for a snapshot (used via Ask).
type internalGetStateRequest struct{}

// internalGetStateResponse is the reply with copies of the headline fields.
type internalGetStateResponse struct {
	Score      [2]int
	GameTime   float64
	DelayBin   int
	Events     int // events emitted since start
	KnockedOut int
}
