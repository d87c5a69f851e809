package engine

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	game "gamehub/models/game"
	"gamehub/services/games"
	"gamehub/services/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures engine-initiated broadcasts in place of the socket layer.
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	RoomID  string
	Event   string
	Payload map[string]interface{}
}

func (r *recorder) ToRoom(roomID string, event string, payload map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{RoomID: roomID, Event: event, Payload: payload})
}

func (r *recorder) named(event string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// counter is a minimal game type for roster-size scenarios puller's
// two-player cap cannot cover. Any move increments n; a move carrying
// win=true ends the game in the mover's favor.
type counter struct{}

func (counter) Name() string                 { return "counter" }
func (counter) MinPlayers() int              { return 2 }
func (counter) MaxPlayers() int              { return 4 }
func (counter) TurnTimeLimit() time.Duration { return time.Second }

func (counter) InitialState() (json.RawMessage, error) {
	return json.RawMessage(`{"n":0}`), nil
}

func (counter) ApplyMove(state json.RawMessage, playerIndex int, move map[string]interface{}) (games.MoveResult, error) {
	var s struct {
		N int `json:"n"`
	}
	if err := json.Unmarshal(state, &s); err != nil {
		return games.MoveResult{}, err
	}
	s.N++
	next, _ := json.Marshal(s)
	res := games.MoveResult{NextState: next}
	if win, _ := move["win"].(bool); win {
		res.GameOver = true
		res.WinnerIndex = playerIndex
	}
	return res, nil
}

func init() {
	games.Register(counter{})
}

func newTestEngine(t *testing.T, override time.Duration) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	return New(store.New(), rec, Options{TurnTimeOverride: override}), rec
}

func assertOneLeader(t *testing.T, room *game.Room) {
	t.Helper()
	leaders := 0
	for _, p := range room.Players {
		if p.IsLeader {
			leaders++
		}
	}
	assert.Equal(t, 1, leaders, "exactly one leader expected")
}

// Scenario A: create, second join, leader starts.
func TestCreateJoinStartFlow(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)

	room, aliceID, err := e.CreateRoom("puller", "Alice", "sock-a")
	require.NoError(t, err)
	assert.Equal(t, game.StatusWaiting, room.Status)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsLeader)
	assert.Equal(t, "Alice", room.Players[0].AvatarName)
	assertOneLeader(t, room)

	room, bobID, err := e.Join(room.RoomID, "Bob", "sock-b")
	require.NoError(t, err)
	assert.Equal(t, game.StatusWaiting, room.Status)
	require.Len(t, room.Players, 2)
	assert.False(t, room.Players[1].IsLeader)
	assertOneLeader(t, room)

	// Bob cannot start, he is not the leader.
	_, err = e.StartGame(room.RoomID, bobID)
	assert.ErrorIs(t, err, ErrCannotStart)

	room, err = e.StartGame(room.RoomID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusActive, room.Status)
	assert.Equal(t, 0, room.CurrentPlayerIndex)
	assert.False(t, room.TurnStartTime.IsZero())
}

func TestCreateRoomUnknownGameType(t *testing.T) {
	e, _ := newTestEngine(t, 0)
	_, _, err := e.CreateRoom("solitaire", "Alice", "sock-a")
	assert.ErrorIs(t, err, games.ErrUnknownGameType)
}

func TestStartGameNeedsEnoughPlayers(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, err := e.CreateRoom("puller", "Alice", "sock-a")
	require.NoError(t, err)

	_, err = e.StartGame(room.RoomID, aliceID)
	assert.ErrorIs(t, err, ErrCannotStart)

	snap, err := e.RoomInfo(room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusWaiting, snap.Status)
}

func TestJoinRejections(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, err := e.CreateRoom("puller", "Alice", "sock-a")
	require.NoError(t, err)
	_, _, err = e.Join(room.RoomID, "Bob", "sock-b")
	require.NoError(t, err)

	// Puller seats two; a third join is RoomFull.
	_, _, err = e.Join(room.RoomID, "Carol", "sock-c")
	assert.ErrorIs(t, err, ErrRoomFull)

	// Scenario E: join after start is InvalidState and mutates nothing.
	_, err = e.StartGame(room.RoomID, aliceID)
	require.NoError(t, err)
	_, _, err = e.Join(room.RoomID, "Carol", "sock-c")
	assert.ErrorIs(t, err, ErrInvalidState)

	snap, err := e.RoomInfo(room.RoomID)
	require.NoError(t, err)
	assert.Len(t, snap.Players, 2)

	_, _, err = e.Join("ZZZZZZZZ", "Dave", "sock-d")
	assert.ErrorIs(t, err, store.ErrRoomNotFound)
}

// Scenario B: a legal move advances the turn and restarts the clock.
func TestApplyMoveAdvancesTurn(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("puller", "Alice", "sock-a")
	_, bobID, _ := e.Join(room.RoomID, "Bob", "sock-b")
	_, err := e.StartGame(room.RoomID, aliceID)
	require.NoError(t, err)

	// Bob moving out of turn is rejected without touching anything.
	before, _ := e.RoomInfo(room.RoomID)
	_, err = e.ApplyMove(room.RoomID, bobID, map[string]interface{}{"diceValue": float64(3)})
	assert.ErrorIs(t, err, ErrNotYourTurn)
	after, _ := e.RoomInfo(room.RoomID)
	assert.Equal(t, before.CurrentPlayerIndex, after.CurrentPlayerIndex)
	assert.Equal(t, before.GameState, after.GameState)

	// An illegal move by the right player changes nothing either.
	_, err = e.ApplyMove(room.RoomID, aliceID, map[string]interface{}{"diceValue": float64(9)})
	assert.ErrorIs(t, err, games.ErrIllegalMove)
	after, _ = e.RoomInfo(room.RoomID)
	assert.Equal(t, before.CurrentPlayerIndex, after.CurrentPlayerIndex)
	assert.Equal(t, before.GameState, after.GameState)

	snap, err := e.ApplyMove(room.RoomID, aliceID, map[string]interface{}{"diceValue": float64(4)})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentPlayerIndex)
	assert.True(t, snap.TurnStartTime.After(before.TurnStartTime) || snap.TurnStartTime.Equal(before.TurnStartTime))
	assert.NotEqual(t, before.GameState, snap.GameState)
}

func TestMoveBeforeStartIsInvalidState(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("puller", "Alice", "sock-a")
	_, err := e.ApplyMove(room.RoomID, aliceID, map[string]interface{}{"diceValue": float64(2)})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGameOverSetsWinner(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("counter", "Alice", "sock-a")
	_, bobID, _ := e.Join(room.RoomID, "Bob", "sock-b")
	_, err := e.StartGame(room.RoomID, aliceID)
	require.NoError(t, err)

	snap, err := e.ApplyMove(room.RoomID, aliceID, map[string]interface{}{"win": true})
	require.NoError(t, err)
	assert.Equal(t, game.StatusCompleted, snap.Status)
	require.NotNil(t, snap.Winner)
	assert.Equal(t, aliceID, snap.Winner.PlayerID)
	assert.Equal(t, "Alice", snap.Winner.AvatarName)
	assert.True(t, snap.TurnStartTime.IsZero())

	// Terminal: no further moves.
	_, err = e.ApplyMove(room.RoomID, bobID, map[string]interface{}{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

// Scenario C: turn timeout advances the seat by one and changes nothing else.
func TestTurnTimeoutPassesTurn(t *testing.T) {
	e, rec := newTestEngine(t, 40*time.Millisecond)
	room, aliceID, _ := e.CreateRoom("puller", "Alice", "sock-a")
	_, _, err := e.Join(room.RoomID, "Bob", "sock-b")
	require.NoError(t, err)
	started, err := e.StartGame(room.RoomID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, 0, started.CurrentPlayerIndex)

	time.Sleep(100 * time.Millisecond)

	snap, err := e.RoomInfo(room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusActive, snap.Status)
	assert.Equal(t, started.GameState, snap.GameState, "timeout must not touch game state")
	assert.GreaterOrEqual(t, snap.CurrentPlayerIndex, 0)
	assert.Less(t, snap.CurrentPlayerIndex, len(snap.Players))

	timeouts := rec.named("turn_timeout")
	require.NotEmpty(t, timeouts, "at least one turn timeout should have fired")
	assert.Equal(t, room.RoomID, timeouts[0].RoomID)
	assert.NotEmpty(t, rec.named("turn_timer_started"))
}

func TestMoveCancelsPendingTimeout(t *testing.T) {
	e, rec := newTestEngine(t, 60*time.Millisecond)
	room, aliceID, _ := e.CreateRoom("puller", "Alice", "sock-a")
	_, bobID, _ := e.Join(room.RoomID, "Bob", "sock-b")
	_, err := e.StartGame(room.RoomID, aliceID)
	require.NoError(t, err)

	// Keep moving before the clock fires; no timeout should ever land.
	ids := []string{aliceID, bobID}
	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		_, err := e.ApplyMove(room.RoomID, ids[i%2], map[string]interface{}{"diceValue": float64(1)})
		require.NoError(t, err)
	}

	assert.Empty(t, rec.named("turn_timeout"))
}

// Scenario D: reconnection restores the seat untouched.
func TestDisconnectReconnect(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("puller", "Alice", "sock-a")
	_, bobID, _ := e.Join(room.RoomID, "Bob", "sock-b")
	_, err := e.StartGame(room.RoomID, aliceID)
	require.NoError(t, err)
	before, _ := e.RoomInfo(room.RoomID)

	snap, err := e.MarkDisconnected(room.RoomID, bobID, "sock-b")
	require.NoError(t, err)
	assert.Equal(t, game.StatusDisconnected, snap.Players[1].Status)
	assert.Len(t, snap.Players, 2)

	snap, err = e.Reconnect(room.RoomID, bobID, "sock-b2")
	require.NoError(t, err)
	assert.Equal(t, game.StatusConnected, snap.Players[1].Status)
	assert.Equal(t, "sock-b2", snap.Players[1].SocketID)
	assert.Len(t, snap.Players, 2)
	assert.Equal(t, before.CurrentPlayerIndex, snap.CurrentPlayerIndex)
	assert.Equal(t, before.GameState, snap.GameState)
	assert.Equal(t, before.Players[1].IsLeader, snap.Players[1].IsLeader)

	// Reconnecting while already connected just refreshes the handle.
	snap, err = e.Reconnect(room.RoomID, bobID, "sock-b3")
	require.NoError(t, err)
	assert.Equal(t, "sock-b3", snap.Players[1].SocketID)

	_, err = e.Reconnect(room.RoomID, "stranger", "sock-x")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestStaleDisconnectIsIgnored(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("puller", "Alice", "sock-a1")

	_, err := e.Reconnect(room.RoomID, aliceID, "sock-a2")
	require.NoError(t, err)

	// The old socket's disconnect arrives after the reconnect.
	snap, err := e.MarkDisconnected(room.RoomID, aliceID, "sock-a1")
	require.NoError(t, err)
	assert.Equal(t, game.StatusConnected, snap.Players[0].Status)
}

func TestLeaveTransfersLeadership(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("counter", "Alice", "sock-a")
	_, bobID, _ := e.Join(room.RoomID, "Bob", "sock-b")
	_, _, err := e.Join(room.RoomID, "Carol", "sock-c")
	require.NoError(t, err)

	// Bob is disconnected, so leadership should skip him.
	_, err = e.MarkDisconnected(room.RoomID, bobID, "sock-b")
	require.NoError(t, err)

	snap, removed, err := e.Leave(room.RoomID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", removed.AvatarName)
	require.Len(t, snap.Players, 2)
	assertOneLeader(t, snap)
	assert.Equal(t, "Carol", snap.Players[1].AvatarName)
	assert.True(t, snap.Players[1].IsLeader, "leadership should pass to the next connected player")
}

func TestLeaveBelowMinimumAbandonsRoom(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("puller", "Alice", "sock-a")
	_, bobID, _ := e.Join(room.RoomID, "Bob", "sock-b")
	_, err := e.StartGame(room.RoomID, aliceID)
	require.NoError(t, err)

	snap, _, err := e.Leave(room.RoomID, bobID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusAbandoned, snap.Status)
}

func TestLeaveKeepsTurnIndexValid(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("counter", "Alice", "sock-a")
	_, bobID, _ := e.Join(room.RoomID, "Bob", "sock-b")
	_, carolID, _ := e.Join(room.RoomID, "Carol", "sock-c")
	_, err := e.StartGame(room.RoomID, aliceID)
	require.NoError(t, err)

	// Advance to Carol (index 2), then Carol leaves mid-turn.
	_, err = e.ApplyMove(room.RoomID, aliceID, map[string]interface{}{})
	require.NoError(t, err)
	_, err = e.ApplyMove(room.RoomID, bobID, map[string]interface{}{})
	require.NoError(t, err)

	snap, _, err := e.Leave(room.RoomID, carolID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusActive, snap.Status)
	assert.GreaterOrEqual(t, snap.CurrentPlayerIndex, 0)
	assert.Less(t, snap.CurrentPlayerIndex, len(snap.Players))
	// Turn wrapped back to Alice.
	assert.Equal(t, 0, snap.CurrentPlayerIndex)
}

func TestCloseRoom(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("puller", "Alice", "sock-a")
	_, bobID, _ := e.Join(room.RoomID, "Bob", "sock-b")

	// Only the leader may close a room that is not completed.
	_, err := e.Close(room.RoomID, bobID)
	assert.ErrorIs(t, err, ErrNotLeader)

	snap, err := e.Close(room.RoomID, aliceID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusAbandoned, snap.Status)

	// Terminal states are sinks.
	_, err = e.StartGame(room.RoomID, aliceID)
	assert.ErrorIs(t, err, ErrCannotStart)
}

func TestAnyPlayerMayCloseCompletedRoom(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("counter", "Alice", "sock-a")
	_, bobID, _ := e.Join(room.RoomID, "Bob", "sock-b")
	_, err := e.StartGame(room.RoomID, aliceID)
	require.NoError(t, err)
	_, err = e.ApplyMove(room.RoomID, aliceID, map[string]interface{}{"win": true})
	require.NoError(t, err)

	snap, err := e.Close(room.RoomID, bobID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusCompleted, snap.Status)
}

func TestChatAppendOnly(t *testing.T) {
	e, _ := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("puller", "Alice", "sock-a")
	_, bobID, _ := e.Join(room.RoomID, "Bob", "sock-b")

	msg1, err := e.PostChat(room.RoomID, aliceID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Alice", msg1.AvatarName)
	assert.NotEmpty(t, msg1.ID)

	first, _ := e.RoomInfo(room.RoomID)

	_, err = e.PostChat(room.RoomID, bobID, "hi")
	require.NoError(t, err)

	second, _ := e.RoomInfo(room.RoomID)
	require.Len(t, second.ChatMessages, 2)
	// Prefix-extension: the earlier observation is a prefix of the later.
	assert.Equal(t, first.ChatMessages[0], second.ChatMessages[0])

	_, err = e.PostChat(room.RoomID, "stranger", "sup")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestJanitorAbandonsAndReaps(t *testing.T) {
	e, rec := newTestEngine(t, time.Minute)
	room, aliceID, _ := e.CreateRoom("puller", "Alice", "sock-a")
	active, _, _ := e.CreateRoom("puller", "Eve", "sock-e")

	_, err := e.MarkDisconnected(room.RoomID, aliceID, "sock-a")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	e.sweep(time.Millisecond)

	snap, err := e.RoomInfo(room.RoomID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusAbandoned, snap.Status)

	closed := rec.named("room_closed")
	require.Len(t, closed, 1)
	assert.Equal(t, room.RoomID, closed[0].RoomID)

	// A room with a connected player is untouched.
	live, err := e.RoomInfo(active.RoomID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusWaiting, live.Status)

	// Terminal rooms idle past the TTL are deleted on a later sweep.
	time.Sleep(5 * time.Millisecond)
	e.sweep(time.Millisecond)
	_, err = e.RoomInfo(room.RoomID)
	assert.ErrorIs(t, err, store.ErrRoomNotFound)
}
