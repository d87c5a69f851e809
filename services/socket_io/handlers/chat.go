package handlers

import (
	"errors"

	"gamehub/services/engine"
	socketio_types "gamehub/services/socket_io/types"
	socketio_utils "gamehub/services/socket_io/utils"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleChatMessage relays a room-scoped chat message. Best effort: the
// entry is stored in room history, delivery to members is at-most-once per
// connected transport. The avatarName in the payload is ignored, the
// registry record wins.
func HandleChatMessage(eng *engine.Engine, client *socket.Socket,
	sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, ok := socketio_utils.Payload(args)
		if !ok {
			emitError(client, "error", errors.New("missing chat_message payload"))
			return
		}
		roomID := socketio_utils.StringField(payload, "roomId")
		playerID := socketio_utils.StringField(payload, "playerId")
		message := socketio_utils.StringField(payload, "message")
		if message == "" {
			emitError(client, "error", errors.New("message is required"))
			return
		}

		msg, err := eng.PostChat(roomID, playerID, message)
		if err != nil {
			emitError(client, "error", err)
			return
		}

		sio.Sio_server.To(socket.Room(roomID)).Emit("chat_message", gin.H{
			"id":         msg.ID,
			"playerId":   msg.PlayerID,
			"avatarName": msg.AvatarName,
			"message":    msg.Message,
			"timestamp":  msg.Timestamp,
		})
	}
}
