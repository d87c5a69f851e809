package handlers

import (
	"errors"

	"gamehub/services/engine"
	socketio_types "gamehub/services/socket_io/types"
	socketio_utils "gamehub/services/socket_io/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleReconnectPlayer restores a dropped player onto a fresh socket. The
// durable playerId cached on the client is untrusted input; the engine
// validates it against the room's own registry. The response carries the
// running turn window so the client can resync its countdown.
func HandleReconnectPlayer(eng *engine.Engine, client *socket.Socket,
	sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, ok := socketio_utils.Payload(args)
		if !ok {
			emitError(client, "reconnect_error", errors.New("missing reconnect_player payload"))
			return
		}
		roomID := socketio_utils.StringField(payload, "roomId")
		playerID := socketio_utils.StringField(payload, "playerId")

		room, err := eng.Reconnect(roomID, playerID, string(client.Id()))
		if err != nil {
			log.Warn().Msgf("[RECONNECT-ERROR] Room %s, player %s: %v", roomID, playerID, err)
			emitError(client, "reconnect_error", err)
			return
		}

		client.Join(socket.Room(roomID))
		sio.Bind(client.Id(), &socketio_types.ConnectionInfo{RoomID: roomID, PlayerID: playerID})

		response := gin.H{"room": room, "playerId": playerID}
		if !room.TurnStartTime.IsZero() {
			response["timeLimit"] = room.TurnTimeLimitSec
			response["startTime"] = room.TurnStartTime
		}
		client.Emit("player_reconnected", response)
		sio.Sio_server.To(socket.Room(roomID)).Emit("player_reconnected", gin.H{
			"room":     room,
			"playerId": playerID,
		})
	}
}
