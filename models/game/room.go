package game

import (
	"encoding/json"
	"math/rand"
	"time"
)

type RoomStatus string

const (
	StatusWaiting   RoomStatus = "waiting"
	StatusActive    RoomStatus = "active"
	StatusCompleted RoomStatus = "completed"
	StatusAbandoned RoomStatus = "abandoned"
)

// Winner identifies the player that completed a room.
type Winner struct {
	PlayerID   string `json:"playerId"`
	AvatarName string `json:"avatarName"`
}

// Room is the aggregate root of a game session. All mutation happens under
// the session store's per-room lock; a Room handed to anything outside that
// lock must be a Snapshot.
type Room struct {
	RoomID             string          `json:"roomId"`
	GameType           string          `json:"gameType"`
	Status             RoomStatus      `json:"status"`
	Players            []*Player       `json:"players"`
	GameState          json.RawMessage `json:"gameState"`
	CurrentPlayerIndex int             `json:"currentPlayerIndex"`
	TurnStartTime      time.Time       `json:"turnStartTime,omitzero"`
	TurnTimeLimitSec   int             `json:"turnTimeLimit"`
	TurnSerial         int64           `json:"-"`
	Winner             *Winner         `json:"winner,omitempty"`
	ChatMessages       []ChatMessage   `json:"chatMessages"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// Random room id generation, human-shareable
const roomIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func GenerateRoomID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = roomIDCharset[rand.Intn(len(roomIDCharset))]
	}
	return string(b)
}

func (r *Room) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusAbandoned
}

// PlayerByID returns the player and its index in turn-rotation order.
func (r *Room) PlayerByID(playerID string) (*Player, int, bool) {
	for i, p := range r.Players {
		if p.PlayerID == playerID {
			return p, i, true
		}
	}
	return nil, -1, false
}

// CurrentPlayer is only meaningful while the room is active.
func (r *Room) CurrentPlayer() *Player {
	if r.CurrentPlayerIndex < 0 || r.CurrentPlayerIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentPlayerIndex]
}

func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Status == StatusConnected {
			n++
		}
	}
	return n
}

// Snapshot deep-copies the room so it can be serialized and broadcast after
// the store lock is released.
func (r *Room) Snapshot() *Room {
	cp := *r
	cp.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		pc := *p
		cp.Players[i] = &pc
	}
	cp.ChatMessages = make([]ChatMessage, len(r.ChatMessages))
	copy(cp.ChatMessages, r.ChatMessages)
	if r.GameState != nil {
		cp.GameState = make(json.RawMessage, len(r.GameState))
		copy(cp.GameState, r.GameState)
	}
	if r.Winner != nil {
		w := *r.Winner
		cp.Winner = &w
	}
	return &cp
}

func (r *Room) Touch() {
	r.UpdatedAt = time.Now()
}
