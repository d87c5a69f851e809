package games

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrUnknownGameType = errors.New("unknown game type")
	ErrIllegalMove     = errors.New("illegal move")
)

// MoveResult is the three-way outcome the coordination engine needs from a
// game type: accepted-continue, accepted-gameover, or an ErrIllegalMove error
// from ApplyMove. WinnerIndex is only meaningful when GameOver is true.
type MoveResult struct {
	NextState   json.RawMessage
	GameOver    bool
	WinnerIndex int
}

// GameType is the per-game move validator. Implementations are pure: they
// never touch room bookkeeping, only their own opaque state blob.
type GameType interface {
	Name() string
	MinPlayers() int
	MaxPlayers() int
	TurnTimeLimit() time.Duration
	InitialState() (json.RawMessage, error)
	ApplyMove(state json.RawMessage, playerIndex int, move map[string]interface{}) (MoveResult, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]GameType)
)

// Register makes a game type available to the engine. Called from init
// functions of the concrete game packages.
func Register(gt GameType) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[gt.Name()] = gt
}

func Get(name string) (GameType, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	gt, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGameType, name)
	}
	return gt, nil
}
