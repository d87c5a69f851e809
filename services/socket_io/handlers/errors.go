package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// emitError reports a rejection to the offending connection only. Which
// event carries it depends on the intent (join_error, move_error,
// reconnect_error or the generic error).
func emitError(client *socket.Socket, event string, err error) {
	client.Emit(event, gin.H{"message": err.Error()})
}
