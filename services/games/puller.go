package games

import (
	"encoding/json"
	"fmt"
	"time"

	game_constants "gamehub/constants/game"
)

// PullerState is the rope-pulling duel state. Two players take turns rolling
// a die; the rope marker moves toward the roller by the rolled amount. The
// first player to drag the marker past their boundary wins.
type PullerState struct {
	Position int `json:"position"` // negative = toward player 0, positive = toward player 1
	Boundary int `json:"boundary"`
	LastRoll int `json:"lastRoll"`
}

type puller struct{}

func init() {
	Register(puller{})
}

func (puller) Name() string { return "puller" }

func (puller) MinPlayers() int { return game_constants.MinPlayersToStart }

func (puller) MaxPlayers() int { return game_constants.PullerMaxPlayers }

func (puller) TurnTimeLimit() time.Duration { return game_constants.DefaultTurnTimeLimit }

func (puller) InitialState() (json.RawMessage, error) {
	return json.Marshal(PullerState{Boundary: game_constants.PullerBoundary})
}

func (puller) ApplyMove(state json.RawMessage, playerIndex int, move map[string]interface{}) (MoveResult, error) {
	var s PullerState
	if err := json.Unmarshal(state, &s); err != nil {
		return MoveResult{}, fmt.Errorf("corrupt puller state: %v", err)
	}

	dice, ok := move["diceValue"].(float64)
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: missing diceValue", ErrIllegalMove)
	}
	roll := int(dice)
	if float64(roll) != dice || roll < game_constants.PullerMinDice || roll > game_constants.PullerMaxDice {
		return MoveResult{}, fmt.Errorf("%w: diceValue %v out of range", ErrIllegalMove, dice)
	}

	// Player 0 pulls negative, player 1 pulls positive.
	if playerIndex == 0 {
		s.Position -= roll
	} else {
		s.Position += roll
	}
	s.LastRoll = roll

	next, err := json.Marshal(s)
	if err != nil {
		return MoveResult{}, err
	}

	res := MoveResult{NextState: next}
	switch {
	case s.Position <= -s.Boundary:
		res.GameOver = true
		res.WinnerIndex = 0
	case s.Position >= s.Boundary:
		res.GameOver = true
		res.WinnerIndex = 1
	}
	return res, nil
}
