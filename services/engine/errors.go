package engine

import "errors"

// Rejection classes surfaced to the offending client. None of these ever
// mutate room state; they are scoped to the single intent that caused them.
var (
	ErrRoomFull       = errors.New("room is full")
	ErrInvalidState   = errors.New("room is not in a valid state for this action")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrPlayerNotFound = errors.New("player not found in this room")
	ErrCannotStart    = errors.New("cannot start game")
	ErrNotLeader      = errors.New("only the room leader can do this")
)
