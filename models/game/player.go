package game

import "time"

type PlayerStatus string

const (
	StatusConnected    PlayerStatus = "connected"
	StatusDisconnected PlayerStatus = "disconnected"
	StatusReconnecting PlayerStatus = "reconnecting"
)

// Player is a room-scoped membership record. PlayerID is the durable
// identity key surviving reconnects; SocketID changes on every reconnect.
type Player struct {
	PlayerID   string       `json:"playerId"`
	SocketID   string       `json:"socketId"`
	AvatarName string       `json:"avatarName"`
	IsLeader   bool         `json:"isLeader"`
	Status     PlayerStatus `json:"status"`
	JoinedAt   time.Time    `json:"joinedAt"`
	LastSeen   time.Time    `json:"lastSeen"`
}
