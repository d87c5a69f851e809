package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	game_constants "gamehub/constants/game"
	game "gamehub/models/game"
	"gamehub/services/games"
	"gamehub/services/store"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

// Broadcaster delivers engine-initiated events (turn timeouts, janitor
// closures) to every connected member of a room. The socket layer implements
// it; tests plug in a recorder.
type Broadcaster interface {
	ToRoom(roomID string, event string, payload map[string]interface{})
}

// Options tunes the engine. TurnTimeOverride, when non-zero, replaces every
// game type's own turn limit (used by tests and ops knobs).
type Options struct {
	TurnTimeOverride time.Duration
}

// Engine owns the coordination logic on top of the session store: player
// registry, game state machine, turn clock and chat relay. Every operation
// runs as a single serialized step against its room (store.Mutate), so no
// two intents for the same room ever interleave.
type Engine struct {
	store *store.Store
	bc    Broadcaster
	opts  Options

	clockMu sync.Mutex
	clocks  map[string]*time.Timer
}

func New(st *store.Store, bc Broadcaster, opts Options) *Engine {
	return &Engine{
		store:  st,
		bc:     bc,
		opts:   opts,
		clocks: make(map[string]*time.Timer),
	}
}

// ---------------------------------------------------------------
// Session store operations
// ---------------------------------------------------------------

// CreateRoom allocates a room in waiting state with its creator as leader.
// Returns the room snapshot and the creator's durable player id.
func (e *Engine) CreateRoom(gameType, avatarName, socketID string) (*game.Room, string, error) {
	gt, err := games.Get(gameType)
	if err != nil {
		return nil, "", err
	}

	initial, err := gt.InitialState()
	if err != nil {
		return nil, "", fmt.Errorf("initial game state: %w", err)
	}

	playerID := uuid.NewString()
	now := time.Now()

	snap := e.store.Create(func(roomID string) *game.Room {
		return &game.Room{
			RoomID:           roomID,
			GameType:         gameType,
			Status:           game.StatusWaiting,
			GameState:        initial,
			TurnTimeLimitSec: int(e.turnLimit(gt).Seconds()),
			Players: []*game.Player{{
				PlayerID:   playerID,
				SocketID:   socketID,
				AvatarName: avatarName,
				IsLeader:   true,
				Status:     game.StatusConnected,
				JoinedAt:   now,
				LastSeen:   now,
			}},
			ChatMessages: []game.ChatMessage{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	})

	log.Info().Msgf("[ROOM-CREATE] Room %s created, game type %s, leader %s", snap.RoomID, gameType, avatarName)
	return snap, playerID, nil
}

// RoomInfo returns a consistent snapshot of the room.
func (e *Engine) RoomInfo(roomID string) (*game.Room, error) {
	return e.store.Get(roomID)
}

// ---------------------------------------------------------------
// Player registry operations
// ---------------------------------------------------------------

// Join appends a new player to a waiting room. Games are fixed-roster: late
// joins after start are rejected, reconnection is the path back in.
func (e *Engine) Join(roomID, avatarName, socketID string) (*game.Room, string, error) {
	playerID := uuid.NewString()
	var snap *game.Room
	err := e.store.Mutate(roomID, func(room *game.Room) error {
		if room.Status != game.StatusWaiting {
			return fmt.Errorf("%w: game already started", ErrInvalidState)
		}
		gt, err := games.Get(room.GameType)
		if err != nil {
			return err
		}
		if len(room.Players) >= gt.MaxPlayers() {
			return ErrRoomFull
		}
		now := time.Now()
		room.Players = append(room.Players, &game.Player{
			PlayerID:   playerID,
			SocketID:   socketID,
			AvatarName: avatarName,
			Status:     game.StatusConnected,
			JoinedAt:   now,
			LastSeen:   now,
		})
		room.Touch()
		snap = room.Snapshot()
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	log.Info().Msgf("[JOIN] Player %s (%s) joined room %s", avatarName, playerID, roomID)
	return snap, playerID, nil
}

// Reconnect re-binds a known player to a fresh connection. Idempotent:
// reconnecting an already-connected player just refreshes the handle. The
// seat, leader flag and rotation position are untouched.
func (e *Engine) Reconnect(roomID, playerID, socketID string) (*game.Room, error) {
	var snap *game.Room
	err := e.store.Mutate(roomID, func(room *game.Room) error {
		p, _, ok := room.PlayerByID(playerID)
		if !ok {
			return ErrPlayerNotFound
		}
		p.SocketID = socketID
		p.Status = game.StatusConnected
		p.LastSeen = time.Now()
		room.Touch()
		snap = room.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("[RECONNECT] Player %s reconnected to room %s", playerID, roomID)
	return snap, nil
}

// MarkDisconnected flips a player to disconnected without removing the seat.
// socketID guards against a stale disconnect from an old connection arriving
// after the player already reconnected on a new one.
func (e *Engine) MarkDisconnected(roomID, playerID, socketID string) (*game.Room, error) {
	var snap *game.Room
	err := e.store.Mutate(roomID, func(room *game.Room) error {
		p, _, ok := room.PlayerByID(playerID)
		if !ok {
			return ErrPlayerNotFound
		}
		if socketID != "" && p.SocketID != socketID {
			// Stale disconnect, the player is already on a newer socket.
			snap = room.Snapshot()
			return nil
		}
		p.Status = game.StatusDisconnected
		p.LastSeen = time.Now()
		room.Touch()
		snap = room.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	// The turn clock keeps running: timeout is the safety net for a seat
	// abandoned mid-turn.
	log.Info().Msgf("[DISCONNECT] Player %s marked disconnected in room %s", playerID, roomID)
	return snap, nil
}

// Leave removes the player's seat. Leadership transfers to the next
// connected player (join order) when the leader leaves; a room dropping
// below the roster minimum for its state is abandoned.
func (e *Engine) Leave(roomID, playerID string) (*game.Room, *game.Player, error) {
	var snap *game.Room
	var removed *game.Player
	err := e.store.Mutate(roomID, func(room *game.Room) error {
		p, idx, ok := room.PlayerByID(playerID)
		if !ok {
			return ErrPlayerNotFound
		}
		removed = p
		room.Players = append(room.Players[:idx], room.Players[idx+1:]...)

		if p.IsLeader && len(room.Players) > 0 {
			next := room.Players[0]
			for _, cand := range room.Players {
				if cand.Status == game.StatusConnected {
					next = cand
					break
				}
			}
			next.IsLeader = true
		}

		gt, err := games.Get(room.GameType)
		if err != nil {
			return err
		}

		switch {
		case len(room.Players) == 0:
			room.Status = game.StatusAbandoned
			e.stopClockLocked(room)
		case room.Status == game.StatusActive && len(room.Players) < gt.MinPlayers():
			room.Status = game.StatusAbandoned
			e.stopClockLocked(room)
		case room.Status == game.StatusActive:
			// Keep currentPlayerIndex valid and hand the turn over if the
			// leaver held it.
			if idx < room.CurrentPlayerIndex {
				room.CurrentPlayerIndex--
			} else if idx == room.CurrentPlayerIndex {
				room.CurrentPlayerIndex %= len(room.Players)
				room.TurnStartTime = time.Now()
				e.restartClockLocked(room)
			}
		}

		room.Touch()
		snap = room.Snapshot()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info().Msgf("[LEAVE] Player %s left room %s", playerID, roomID)
	return snap, removed, nil
}

// ---------------------------------------------------------------
// Game state machine
// ---------------------------------------------------------------

// StartGame moves a waiting room to active. Leader-only.
func (e *Engine) StartGame(roomID, playerID string) (*game.Room, error) {
	var snap *game.Room
	err := e.store.Mutate(roomID, func(room *game.Room) error {
		p, _, ok := room.PlayerByID(playerID)
		if !ok {
			return ErrPlayerNotFound
		}
		if !p.IsLeader {
			return fmt.Errorf("%w: only the leader can start the game", ErrCannotStart)
		}
		if room.Status != game.StatusWaiting {
			return fmt.Errorf("%w: game already started", ErrCannotStart)
		}
		gt, err := games.Get(room.GameType)
		if err != nil {
			return err
		}
		if len(room.Players) < gt.MinPlayers() {
			return fmt.Errorf("%w: not enough players (%d/%d)", ErrCannotStart, len(room.Players), gt.MinPlayers())
		}

		room.Status = game.StatusActive
		room.CurrentPlayerIndex = 0
		room.TurnStartTime = time.Now()
		room.Touch()
		e.restartClockLocked(room)
		snap = room.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("[START] Game started in room %s", roomID)
	return snap, nil
}

// ApplyMove validates and applies one move for the player currently holding
// the turn. On an illegal move neither game state nor turn order changes.
func (e *Engine) ApplyMove(roomID, playerID string, move map[string]interface{}) (*game.Room, error) {
	var snap *game.Room
	err := e.store.Mutate(roomID, func(room *game.Room) error {
		if room.Status != game.StatusActive {
			return fmt.Errorf("%w: game is not active", ErrInvalidState)
		}
		current := room.CurrentPlayer()
		if current == nil || current.PlayerID != playerID {
			return ErrNotYourTurn
		}
		gt, err := games.Get(room.GameType)
		if err != nil {
			return err
		}

		res, err := gt.ApplyMove(room.GameState, room.CurrentPlayerIndex, move)
		if err != nil {
			return err
		}

		room.GameState = res.NextState
		if res.GameOver {
			winner := room.Players[res.WinnerIndex]
			room.Status = game.StatusCompleted
			room.Winner = &game.Winner{PlayerID: winner.PlayerID, AvatarName: winner.AvatarName}
			room.TurnStartTime = time.Time{}
			e.stopClockLocked(room)
		} else {
			room.CurrentPlayerIndex = (room.CurrentPlayerIndex + 1) % len(room.Players)
			room.TurnStartTime = time.Now()
			e.restartClockLocked(room)
		}
		room.Touch()
		snap = room.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("[MOVE] Move applied in room %s by %s, status now %s", roomID, playerID, snap.Status)
	return snap, nil
}

// Close terminates the room. The leader may close at any time; once a game
// is completed any member may close it.
func (e *Engine) Close(roomID, playerID string) (*game.Room, error) {
	var snap *game.Room
	err := e.store.Mutate(roomID, func(room *game.Room) error {
		p, _, ok := room.PlayerByID(playerID)
		if !ok {
			return ErrPlayerNotFound
		}
		if !p.IsLeader && room.Status != game.StatusCompleted {
			return ErrNotLeader
		}
		if !room.IsTerminal() {
			room.Status = game.StatusAbandoned
		}
		room.TurnStartTime = time.Time{}
		e.stopClockLocked(room)
		room.Touch()
		snap = room.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("[CLOSE] Room %s closed by %s", roomID, playerID)
	return snap, nil
}

// ---------------------------------------------------------------
// Chat relay
// ---------------------------------------------------------------

// PostChat appends a message to the room history. The avatar name is taken
// from the registry record, never trusted from the client.
func (e *Engine) PostChat(roomID, playerID, message string) (*game.ChatMessage, error) {
	var stored game.ChatMessage
	err := e.store.Mutate(roomID, func(room *game.Room) error {
		p, _, ok := room.PlayerByID(playerID)
		if !ok {
			return ErrPlayerNotFound
		}
		stored = game.ChatMessage{
			ID:         ulid.Make().String(),
			PlayerID:   p.PlayerID,
			AvatarName: p.AvatarName,
			Message:    message,
			Timestamp:  time.Now(),
		}
		room.ChatMessages = append(room.ChatMessages, stored)
		if len(room.ChatMessages) > game_constants.MaxChatHistory {
			room.ChatMessages = room.ChatMessages[len(room.ChatMessages)-game_constants.MaxChatHistory:]
		}
		room.Touch()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ---------------------------------------------------------------
// Turn clock
// ---------------------------------------------------------------

func (e *Engine) turnLimit(gt games.GameType) time.Duration {
	if e.opts.TurnTimeOverride > 0 {
		return e.opts.TurnTimeOverride
	}
	return gt.TurnTimeLimit()
}

// clockLimit resolves the timer duration for a room. Kept separate from the
// advisory TurnTimeLimitSec the clients see, which rounds to whole seconds.
func (e *Engine) clockLimit(room *game.Room) time.Duration {
	if e.opts.TurnTimeOverride > 0 {
		return e.opts.TurnTimeOverride
	}
	if gt, err := games.Get(room.GameType); err == nil {
		return gt.TurnTimeLimit()
	}
	return game_constants.DefaultTurnTimeLimit
}

// restartClockLocked arms the turn timer for the room's current turn. Must
// be called with the room's store lock held; it bumps the turn serial so any
// previously scheduled timeout becomes stale.
func (e *Engine) restartClockLocked(room *game.Room) {
	room.TurnSerial++
	serial := room.TurnSerial
	roomID := room.RoomID
	limit := e.clockLimit(room)

	e.clockMu.Lock()
	defer e.clockMu.Unlock()
	if t, ok := e.clocks[roomID]; ok {
		t.Stop()
	}
	e.clocks[roomID] = time.AfterFunc(limit, func() {
		e.handleTurnTimeout(roomID, serial)
	})
}

// stopClockLocked cancels any pending timeout for the room. Must be called
// with the room's store lock held.
func (e *Engine) stopClockLocked(room *game.Room) {
	room.TurnSerial++
	e.clockMu.Lock()
	defer e.clockMu.Unlock()
	if t, ok := e.clocks[room.RoomID]; ok {
		t.Stop()
		delete(e.clocks, room.RoomID)
	}
}

// handleTurnTimeout is the forfeited pass-turn: no game state change, the
// turn just advances to the next seat. The serial check makes it a no-op
// when a move (or anything else) won the race through the room's queue.
func (e *Engine) handleTurnTimeout(roomID string, serial int64) {
	var snap *game.Room
	err := e.store.Mutate(roomID, func(room *game.Room) error {
		if room.Status != game.StatusActive || room.TurnSerial != serial {
			return nil // stale timeout, a move got serialized first
		}
		room.CurrentPlayerIndex = (room.CurrentPlayerIndex + 1) % len(room.Players)
		room.TurnStartTime = time.Now()
		room.Touch()
		e.restartClockLocked(room)
		snap = room.Snapshot()
		return nil
	})
	if err != nil || snap == nil {
		return
	}

	log.Info().Msgf("[TURN-TIMEOUT] Turn expired in room %s, passing to seat %d", roomID, snap.CurrentPlayerIndex)
	e.bc.ToRoom(roomID, "turn_timeout", map[string]interface{}{"room": snap})
	e.bc.ToRoom(roomID, "turn_timer_started", map[string]interface{}{
		"timeLimit": snap.TurnTimeLimitSec,
		"startTime": snap.TurnStartTime,
	})
}

// ---------------------------------------------------------------
// Idle-room janitor
// ---------------------------------------------------------------

// StartJanitor sweeps rooms in the background: rooms whose members are all
// disconnected for longer than ttl are abandoned and announced, terminal
// rooms idle past ttl are deleted. Without it a permanently disconnected
// roster would strand its room forever.
func (e *Engine) StartJanitor(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.sweep(ttl)
			}
		}
	}()
}

func (e *Engine) sweep(ttl time.Duration) {
	now := time.Now()
	for _, roomID := range e.store.RoomIDs() {
		var abandoned *game.Room
		var expired bool
		err := e.store.Mutate(roomID, func(room *game.Room) error {
			idle := now.Sub(room.UpdatedAt)
			switch {
			case room.IsTerminal() && idle > ttl:
				expired = true
			case room.ConnectedCount() == 0 && idle > ttl:
				room.Status = game.StatusAbandoned
				room.TurnStartTime = time.Time{}
				e.stopClockLocked(room)
				room.Touch()
				abandoned = room.Snapshot()
			}
			return nil
		})
		if err != nil {
			continue
		}
		if expired {
			e.store.Delete(roomID)
			log.Info().Msgf("[JANITOR] Deleted expired room %s", roomID)
		}
		if abandoned != nil {
			log.Info().Msgf("[JANITOR] Abandoned idle room %s", roomID)
			e.bc.ToRoom(roomID, "room_closed", map[string]interface{}{
				"room":    abandoned,
				"message": "Room closed due to inactivity",
			})
		}
	}
}
