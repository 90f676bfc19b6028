// File: game/broadcaster_actor.go
package game

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/lguibr/bollywood"
	"golang.org/x/net/websocket"
)

// BroadcasterActor fans state frames out to every game socket in a room so
// slow clients never stall the tick. A failed send drops that frame for that
// peer; the next tick resynchronizes them.
type BroadcasterActor struct {
	clients      map[*websocket.Conn]string // conn -> player ID
	mu           sync.RWMutex               // Protects the clients map
	selfPID      *bollywood.PID
	roomActorPID *bollywood.PID // PID of the RoomActor to notify on disconnect
}

// NewBroadcasterProducer creates a producer for BroadcasterActor.
func NewBroadcasterProducer(roomActorPID *bollywood.PID) bollywood.Producer {
	return func() bollywood.Actor {
		return &BroadcasterActor{
			clients:      make(map[*websocket.Conn]string),
			roomActorPID: roomActorPID,
		}
	}
}

// Receive handles messages for the BroadcasterActor.
func (a *BroadcasterActor) Receive(ctx bollywood.Context) {
	defer func() {
		if r := recover(); r != nil {
			pidStr := "unknown"
			if a.selfPID != nil {
				pidStr = a.selfPID.String()
			}
			fmt.Printf("PANIC recovered in BroadcasterActor %s Receive: %v\nStack trace:\n%s\n", pidStr, r, string(debug.Stack()))
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case bollywood.Started:
		// Actor started

	case AddClient:
		if msg.Conn != nil {
			a.mu.Lock()
			a.clients[msg.Conn] = msg.PlayerID
			a.mu.Unlock()
		}

	case RemoveClient:
		if msg.Conn != nil {
			a.mu.Lock()
			delete(a.clients, msg.Conn)
			a.mu.Unlock()
		}

	case BroadcastFrame:
		a.broadcast(ctx, func(ws *websocket.Conn) error {
			return websocket.Message.Send(ws, msg.Data)
		})

	case BroadcastJSON:
		a.broadcast(ctx, func(ws *websocket.Conn) error {
			return websocket.JSON.Send(ws, msg.Message)
		})

	case bollywood.Stopping:
		fmt.Printf("Broadcaster %s: Stopping. Closing remaining connections.\n", a.selfPID)
		a.closeAllConnections()

	case bollywood.Stopped:
		// Actor stopped

	default:
		fmt.Printf("BroadcasterActor %s: Received unknown message type: %T\n", a.selfPID, msg)
	}
}

// broadcast sends one frame to every registered client, collecting peers
// whose connection turned out to be gone.
func (a *BroadcasterActor) broadcast(ctx bollywood.Context, send func(*websocket.Conn) error) {
	a.mu.RLock()
	clientsToSend := make([]*websocket.Conn, 0, len(a.clients))
	for conn := range a.clients {
		clientsToSend = append(clientsToSend, conn)
	}
	a.mu.RUnlock()

	if len(clientsToSend) == 0 {
		return
	}

	disconnected := []*websocket.Conn{}
	for _, ws := range clientsToSend {
		err := send(ws)
		if err == nil {
			continue
		}
		errStr := err.Error()
		isClosedErr := strings.Contains(errStr, "use of closed network connection") ||
			strings.Contains(errStr, "broken pipe") ||
			strings.Contains(errStr, "connection reset by peer") ||
			strings.Contains(errStr, "EOF") ||
			strings.Contains(errStr, "write: connection timed out")
		if isClosedErr {
			disconnected = append(disconnected, ws)
		} else {
			fmt.Printf("ERROR: BroadcasterActor %s: Failed to write frame to client %s: %v\n", a.selfPID, ws.RemoteAddr(), err)
		}
	}

	if len(disconnected) > 0 {
		a.handleDisconnects(ctx, disconnected)
	}
}

// closeAllConnections closes every managed socket during shutdown.
func (a *BroadcasterActor) closeAllConnections() {
	a.mu.Lock()
	clientsToClose := make([]*websocket.Conn, 0, len(a.clients))
	for conn := range a.clients {
		clientsToClose = append(clientsToClose, conn)
	}
	a.clients = make(map[*websocket.Conn]string)
	a.mu.Unlock()

	for _, ws := range clientsToClose {
		_ = ws.Close()
	}
}

// handleDisconnects removes dead clients and reports them to the RoomActor.
func (a *BroadcasterActor) handleDisconnects(ctx bollywood.Context, disconnected []*websocket.Conn) {
	a.mu.Lock()
	playerIDs := make(map[*websocket.Conn]string, len(disconnected))
	for _, ws := range disconnected {
		playerIDs[ws] = a.clients[ws]
		delete(a.clients, ws)
	}
	a.mu.Unlock()

	if a.roomActorPID != nil && ctx.Engine() != nil {
		for _, ws := range disconnected {
			ctx.Engine().Send(a.roomActorPID, PlayerDisconnect{PlayerID: playerIDs[ws], Conn: ws}, a.selfPID)
		}
	}
}
