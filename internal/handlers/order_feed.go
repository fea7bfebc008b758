package handlers

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"storefront/internal/models"
)

var feedUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// OrderFeed pushes order creations and status changes to connected admin
// panels over websockets.
type OrderFeed struct {
	mu      sync.Mutex
	clients map[string]*websocket.Conn
}

func NewOrderFeed() *OrderFeed {
	return &OrderFeed{
		clients: make(map[string]*websocket.Conn),
	}
}

// Handler upgrades the connection and keeps it registered until the client
// disconnects.
func (f *OrderFeed) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := feedUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("[FEED] [ERROR] websocket upgrade failed:", err)
			return
		}
		defer conn.Close()

		clientID := uuid.NewString()
		f.mu.Lock()
		f.clients[clientID] = conn
		f.mu.Unlock()

		log.Println("[FEED] [INFO] admin client connected:", clientID)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.mu.Lock()
				delete(f.clients, clientID)
				f.mu.Unlock()
				log.Println("[FEED] [INFO] admin client disconnected:", clientID)
				break
			}
		}
	}
}

// Broadcast sends the order to every connected client. Write failures drop
// the client.
func (f *OrderFeed) Broadcast(order models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for clientID, conn := range f.clients {
		if err := conn.WriteJSON(order); err != nil {
			conn.Close()
			delete(f.clients, clientID)
		}
	}
}
