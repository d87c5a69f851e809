package handlers

import (
	"gamehub/services/engine"
	socketio_types "gamehub/services/socket_io/types"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleDisconnecting marks the bound player as disconnected. The seat is
// not removed and the turn clock keeps running; reconnection is the designed
// recovery path, a transport drop is not an error.
func HandleDisconnecting(eng *engine.Engine, client *socket.Socket,
	sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		info, exists := sio.Lookup(client.Id())
		if !exists {
			return
		}
		log.Info().Msgf("[DISCONNECT] Socket %s dropping, player %s in room %s",
			client.Id(), info.PlayerID, info.RoomID)

		room, err := eng.MarkDisconnected(info.RoomID, info.PlayerID, string(client.Id()))
		if err != nil {
			log.Warn().Msgf("[DISCONNECT-ERROR] Room %s: %v", info.RoomID, err)
		} else {
			sio.Sio_server.To(socket.Room(info.RoomID)).Emit("player_disconnected", gin.H{
				"room":     room,
				"playerId": info.PlayerID,
			})
		}

		sio.Unbind(client.Id())
	}
}
