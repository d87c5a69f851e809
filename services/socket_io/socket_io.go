package socket_io

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamehub/config"
	"gamehub/services/engine"
	"gamehub/services/socket_io/handlers"
	socketio_types "gamehub/services/socket_io/types"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

// Start mounts the socket.io server on the gin router and wires every wire
// protocol intent to its handler. The engine stays transport-agnostic; this
// adapter is the only piece tied to socket.io.
func (sio *MySocketServer) Start(router *gin.Engine, cfg *config.Config, eng *engine.Engine) {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	// KEY: inicializar el map, sino panikea
	sio.Connections = make(map[socket.SocketId]*socketio_types.ConnectionInfo)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)
		self := (*socketio_types.SocketServer)(sio)

		log.Info().Msgf("[CONNECT] Socket connected: %s", client.Id())

		// Room lifecycle
		client.On("create_room", handlers.HandleCreateRoom(eng, client, self, cfg))
		client.On("join_room", handlers.HandleJoinRoom(eng, client, self))
		client.On("get_room_info", handlers.HandleGetRoomInfo(eng, client))
		client.On("leave_room", handlers.HandleLeaveRoom(eng, client, self))
		client.On("close_room", handlers.HandleCloseRoom(eng, client, self))

		// Game flow
		client.On("start_game", handlers.HandleStartGame(eng, client, self))
		client.On("player_move", handlers.HandlePlayerMove(eng, client, self))

		// Reconnection protocol
		client.On("reconnect_player", handlers.HandleReconnectPlayer(eng, client, self))

		// Chat side channel
		client.On("chat_message", handlers.HandleChatMessage(eng, client, self))

		// NOTE: flips the bound player to disconnected, seat stays reserved
		client.On("disconnecting", handlers.HandleDisconnecting(eng, client, self))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				sio.Sio_server.Close(nil)
				os.Exit(0)
			}
		}
	}()

	log.Info().Msg("Socket server started")
}
