package ws

import (
	"context"
	"net/http"
	"time"

	"loyaltytree/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TokenVerifier resolves a token to an account, or nil when it is unusable.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) *service.Account
}

// UpgradeEventsWS streams balance events to the account named by the token query parameter.
func UpgradeEventsWS(v TokenVerifier, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required", "code": "unauthenticated"})
			return
		}
		acc := v.VerifyToken(c.Request.Context(), token)
		if acc == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "unauthenticated"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := NewClient(acc.ID)
		hub.Register(client)
		defer client.Close()
		welcome := gin.H{"type": "welcome", "accountId": acc.ID, "accountType": acc.Type}
		if acc.Customer != nil {
			welcome["points"] = acc.Customer.Points
		}
		if data, ok := encode(welcome); ok {
			client.trySend(data)
		}
		go writePump(client, conn)
		readPump(conn)
	}
}

// UpgradeTreeMapWS streams tree markers to anyone; the first message lists recent markers.
func UpgradeTreeMapWS(hub *TreeMapHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := NewClient("")
		hub.Register(client)
		defer client.Close()
		if data, ok := encode(hub.initial(c.Request.Context())); ok {
			client.trySend(data)
		}
		go writePump(client, conn)
		readPump(conn)
	}
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and returns when the connection drops.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
