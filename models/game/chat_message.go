package game

import "time"

// ChatMessage represents a message in the room chat. Immutable once stored.
type ChatMessage struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"playerId"`
	AvatarName string    `json:"avatarName"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}
