package controllers

import (
	"errors"
	"net/http"

	"gamehub/services/engine"
	"gamehub/services/games"
	"gamehub/services/store"

	"github.com/gin-gonic/gin"
)

// RoomController exposes the read-only room surface backing the shareable
// /games/room/{roomId} link. Everything stateful goes through the socket
// protocol; the roomId itself is the capability, no auth token involved.
type RoomController struct {
	Engine *engine.Engine
}

// @Summary Health check
// @Description Returns ok if the server is up
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string}
// @Router /health [get]
func (rc *RoomController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Public room info
// @Description Given a room id, returns the information a client needs before joining
// @Tags rooms
// @Produce json
// @Param room_id path string true "Id of the room"
// @Success 200 {object} object{roomId=string,gameType=string,status=string,playerCount=integer,maxPlayers=integer}
// @Failure 404 {object} object{error=string}
// @Router /api/v1/rooms/{room_id} [get]
func (rc *RoomController) GetRoomInfo(c *gin.Context) {
	roomID := c.Param("room_id")

	room, err := rc.Engine.RoomInfo(roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving room"})
		return
	}

	maxPlayers := 0
	if gt, err := games.Get(room.GameType); err == nil {
		maxPlayers = gt.MaxPlayers()
	}

	c.JSON(http.StatusOK, gin.H{
		"roomId":      room.RoomID,
		"gameType":    room.GameType,
		"status":      room.Status,
		"playerCount": len(room.Players),
		"maxPlayers":  maxPlayers,
		"createdAt":   room.CreatedAt,
	})
}
