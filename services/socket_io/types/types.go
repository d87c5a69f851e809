package socketio_types

import (
	"sync"

	"github.com/zishang520/socket.io/v2/socket"
)

// ConnectionInfo is what the transport remembers per socket: which room and
// which durable player identity the connection is bound to after a
// create/join/reconnect succeeds.
type ConnectionInfo struct {
	RoomID   string
	PlayerID string
}

// SocketServer is a struct that contains the socket.io server and a map of
// socket connections. It is used to handle socket.io connections.
type SocketServer struct {
	Sio_server *socket.Server
	// Map to track socket id -> room/player binding
	Connections map[socket.SocketId]*ConnectionInfo
	mutex       sync.RWMutex
}

func NewSocketServer() *SocketServer {
	return &SocketServer{
		Connections: make(map[socket.SocketId]*ConnectionInfo),
	}
}

// Add methods to manage connections
func (s *SocketServer) Bind(id socket.SocketId, info *ConnectionInfo) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Connections[id] = info
}

func (s *SocketServer) Unbind(id socket.SocketId) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.Connections, id)
}

func (s *SocketServer) Lookup(id socket.SocketId) (*ConnectionInfo, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	info, exists := s.Connections[id]
	return info, exists
}

// ToRoom satisfies the engine's Broadcaster so clock timeouts and janitor
// closures reach every connected member of a room.
func (s *SocketServer) ToRoom(roomID string, event string, payload map[string]interface{}) {
	if s.Sio_server == nil {
		return // not mounted yet
	}
	s.Sio_server.To(socket.Room(roomID)).Emit(event, payload)
}
