package handlers

import (
	"errors"

	"gamehub/services/engine"
	socketio_types "gamehub/services/socket_io/types"
	socketio_utils "gamehub/services/socket_io/utils"

	game "gamehub/models/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/v2/socket"
)

func HandleStartGame(eng *engine.Engine, client *socket.Socket,
	sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, ok := socketio_utils.Payload(args)
		if !ok {
			emitError(client, "error", errors.New("missing start_game payload"))
			return
		}
		roomID := socketio_utils.StringField(payload, "roomId")
		playerID := socketio_utils.StringField(payload, "playerId")

		room, err := eng.StartGame(roomID, playerID)
		if err != nil {
			log.Warn().Msgf("[START-ERROR] Room %s: %v", roomID, err)
			emitError(client, "error", err)
			return
		}

		sio.Sio_server.To(socket.Room(roomID)).Emit("game_started", gin.H{"room": room})
		emitTurnTimerStarted(sio, room)
	}
}

func HandlePlayerMove(eng *engine.Engine, client *socket.Socket,
	sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, ok := socketio_utils.Payload(args)
		if !ok {
			emitError(client, "move_error", errors.New("missing player_move payload"))
			return
		}
		roomID := socketio_utils.StringField(payload, "roomId")
		playerID := socketio_utils.StringField(payload, "playerId")
		moveData := socketio_utils.ObjectField(payload, "moveData")
		if moveData == nil {
			emitError(client, "move_error", errors.New("moveData is required"))
			return
		}

		room, err := eng.ApplyMove(roomID, playerID, moveData)
		if err != nil {
			log.Warn().Msgf("[MOVE-ERROR] Room %s, player %s: %v", roomID, playerID, err)
			emitError(client, "move_error", err)
			return
		}

		sio.Sio_server.To(socket.Room(roomID)).Emit("move_made", gin.H{
			"room":      room,
			"gameState": room.GameState,
			"playerId":  playerID,
		})

		if room.Status == game.StatusCompleted {
			sio.Sio_server.To(socket.Room(roomID)).Emit("game_ended", gin.H{
				"room":   room,
				"winner": room.Winner,
			})
			return
		}
		emitTurnTimerStarted(sio, room)
	}
}

// emitTurnTimerStarted tells every member the authoritative turn window; the
// client countdown is visual feedback only, the server timeout decides.
func emitTurnTimerStarted(sio *socketio_types.SocketServer, room *game.Room) {
	sio.Sio_server.To(socket.Room(room.RoomID)).Emit("turn_timer_started", gin.H{
		"timeLimit": room.TurnTimeLimitSec,
		"startTime": room.TurnStartTime,
	})
}
