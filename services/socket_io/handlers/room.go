package handlers

import (
	"errors"
	"fmt"

	"gamehub/config"
	"gamehub/services/engine"
	socketio_types "gamehub/services/socket_io/types"
	socketio_utils "gamehub/services/socket_io/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/v2/socket"
)

func HandleCreateRoom(eng *engine.Engine, client *socket.Socket,
	sio *socketio_types.SocketServer, cfg *config.Config) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, ok := socketio_utils.Payload(args)
		if !ok {
			emitError(client, "error", errors.New("missing create_room payload"))
			return
		}
		gameType := socketio_utils.StringField(payload, "gameType")
		avatarName := socketio_utils.StringField(payload, "avatarName")
		if gameType == "" || avatarName == "" {
			emitError(client, "error", errors.New("gameType and avatarName are required"))
			return
		}

		room, playerID, err := eng.CreateRoom(gameType, avatarName, string(client.Id()))
		if err != nil {
			log.Warn().Msgf("[CREATE-ERROR] %v (socket %s)", err, client.Id())
			emitError(client, "error", err)
			return
		}

		client.Join(socket.Room(room.RoomID))
		sio.Bind(client.Id(), &socketio_types.ConnectionInfo{RoomID: room.RoomID, PlayerID: playerID})

		client.Emit("room_created", gin.H{
			"room":     room,
			"playerId": playerID,
			"roomLink": fmt.Sprintf("%s/games/room/%s", cfg.ClientBaseURL, room.RoomID),
		})
	}
}

func HandleJoinRoom(eng *engine.Engine, client *socket.Socket,
	sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, ok := socketio_utils.Payload(args)
		if !ok {
			emitError(client, "join_error", errors.New("missing join_room payload"))
			return
		}
		roomID := socketio_utils.StringField(payload, "roomId")
		avatarName := socketio_utils.StringField(payload, "avatarName")
		if roomID == "" || avatarName == "" {
			emitError(client, "join_error", errors.New("roomId and avatarName are required"))
			return
		}

		room, playerID, err := eng.Join(roomID, avatarName, string(client.Id()))
		if err != nil {
			log.Warn().Msgf("[JOIN-ERROR] Room %s: %v", roomID, err)
			emitError(client, "join_error", err)
			return
		}

		client.Join(socket.Room(roomID))
		sio.Bind(client.Id(), &socketio_types.ConnectionInfo{RoomID: roomID, PlayerID: playerID})

		client.Emit("room_joined", gin.H{"room": room, "playerId": playerID})
		sio.Sio_server.To(socket.Room(roomID)).Emit("player_joined", gin.H{
			"room":       room,
			"playerId":   playerID,
			"avatarName": avatarName,
		})
	}
}

// HandleGetRoomInfo serves the shareable-link flow: the client resolves a
// room id (and its cached playerId hint, if any) into a current snapshot.
func HandleGetRoomInfo(eng *engine.Engine, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, ok := socketio_utils.Payload(args)
		if !ok {
			emitError(client, "error", errors.New("missing get_room_info payload"))
			return
		}
		roomID := socketio_utils.StringField(payload, "roomId")

		room, err := eng.RoomInfo(roomID)
		if err != nil {
			emitError(client, "error", err)
			return
		}

		response := gin.H{"room": room}
		// The client-side playerId is a hint; echo it back only if the
		// registry actually knows that seat.
		if hint := socketio_utils.StringField(payload, "playerId"); hint != "" {
			if _, _, found := room.PlayerByID(hint); found {
				response["playerId"] = hint
			}
		}
		client.Emit("room_info", response)
	}
}

func HandleLeaveRoom(eng *engine.Engine, client *socket.Socket,
	sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, ok := socketio_utils.Payload(args)
		if !ok {
			emitError(client, "error", errors.New("missing leave_room payload"))
			return
		}
		roomID := socketio_utils.StringField(payload, "roomId")
		playerID := socketio_utils.StringField(payload, "playerId")

		room, removed, err := eng.Leave(roomID, playerID)
		if err != nil {
			emitError(client, "error", err)
			return
		}

		client.Leave(socket.Room(roomID))
		sio.Unbind(client.Id())

		client.Emit("room_left", gin.H{"room": room})
		sio.Sio_server.To(socket.Room(roomID)).Emit("player_left", gin.H{
			"room":       room,
			"playerId":   removed.PlayerID,
			"avatarName": removed.AvatarName,
			"reason":     "left",
		})
	}
}

func HandleCloseRoom(eng *engine.Engine, client *socket.Socket,
	sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		payload, ok := socketio_utils.Payload(args)
		if !ok {
			emitError(client, "error", errors.New("missing close_room payload"))
			return
		}
		roomID := socketio_utils.StringField(payload, "roomId")
		playerID := socketio_utils.StringField(payload, "playerId")

		room, err := eng.Close(roomID, playerID)
		if err != nil {
			log.Warn().Msgf("[CLOSE-ERROR] Room %s: %v", roomID, err)
			emitError(client, "error", err)
			return
		}

		sio.Sio_server.To(socket.Room(roomID)).Emit("room_closed", gin.H{
			"room":    room,
			"message": "The room has been closed",
		})
		client.Emit("room_closed_success", gin.H{"room": room})
	}
}
