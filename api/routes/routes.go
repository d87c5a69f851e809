package routes

import (
	"gamehub/api/controllers"
	"gamehub/services/engine"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, eng *engine.Engine) {
	roomController := &controllers.RoomController{Engine: eng}

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", roomController.Health)

	// API routes group
	api := router.Group("/api/v1")

	rooms := api.Group("/rooms")
	{
		rooms.GET("/:room_id", roomController.GetRoomInfo)
	}
}
