package main

import (
	"context"

	"gamehub/api/routes"
	"gamehub/config"
	_ "gamehub/config/swagger"
	"gamehub/middleware"
	"gamehub/services/engine"
	"gamehub/services/socket_io"
	socketio_types "gamehub/services/socket_io/types"
	"gamehub/services/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// @title Gamehub API
// @version 1.0
// @description Gin-Gonic server for the multiplayer game room coordinator
// @BasePath /
func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	config.SetupLogger(cfg)
	log.Info().Msg("Setting up server...")

	if cfg.Prod {
		gin.SetMode(gin.ReleaseMode)
	}

	sessionStore := store.New()
	sio := socketio_types.NewSocketServer()
	eng := engine.New(sessionStore, sio, engine.Options{
		TurnTimeOverride: cfg.TurnTimeLimit,
	})
	eng.StartJanitor(context.Background(), cfg.JanitorInterval, cfg.IdleRoomTTL)

	r := gin.Default()

	middleware.SetUpMiddleware(r)

	routes.SetupRoutes(r, eng)

	(*socket_io.MySocketServer)(sio).Start(r, cfg, eng)

	log.Info().Msgf("Server listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Error starting server")
	}
}
