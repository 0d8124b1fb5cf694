package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs registers the connection, sends the initial frames, then blocks
// until the peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn, userId uuid.UUID, initial ...[]byte) {
	client := &Client{Hub: hub, Conn: c, UserId: userId, Send: make(chan []byte, 256)}
	for _, frame := range initial {
		client.Send <- frame
	}
	if !hub.join(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
