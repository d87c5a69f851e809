package game_constants

import "time"

const RoomIDLength = 8

// Minimum roster size before any game may leave the waiting state.
const MinPlayersToStart = 2

const DefaultTurnTimeLimit = 30 * time.Second

// Chat history retained per room. Older entries are dropped once the cap
// is reached; clients never observe reordering of what remains.
const MaxChatHistory = 200

// Puller game constants
const (
	PullerMaxPlayers = 2
	PullerBoundary   = 10 // rope marker wins at +/- this position
	PullerMinDice    = 1
	PullerMaxDice    = 6
)
