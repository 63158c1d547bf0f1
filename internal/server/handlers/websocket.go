// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are handled by the CORS middleware upstream
		return true
	},
}

// feedClient forwards ingest events for one policy to one WebSocket peer.
// The feed is one-way: the peer receives post events and sends nothing
// but control frames.
type feedClient struct {
	conn     *websocket.Conn
	send     chan []byte
	policyID string
	sub      *nats.Subscription

	closeOnce sync.Once
}

// PolicyFeedHandler streams newly ingested posts for a policy over a
// WebSocket, bridged from the event bus.
func PolicyFeedHandler(natsConn *nats.Conn, topicPrefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		policyID := chi.URLParam(r, "id")
		if policyID == "" {
			http.Error(w, "Missing policy ID", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade to WebSocket: %v", err)
			return
		}

		client := &feedClient{
			conn:     conn,
			send:     make(chan []byte, 256),
			policyID: policyID,
		}

		subject := fmt.Sprintf("%s.%s.posts", topicPrefix, policyID)
		sub, err := natsConn.Subscribe(subject, func(msg *nats.Msg) {
			select {
			case client.send <- msg.Data:
			default:
				// Slow consumer; drop rather than block the bus callback
			}
		})
		if err != nil {
			log.Printf("Failed to subscribe to %s: %v", subject, err)
			conn.Close()
			return
		}
		client.sub = sub

		go client.writePump()
		go client.readPump()

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":      "welcome",
			"policy_id": policyID,
			"time":      time.Now(),
		})
		client.send <- welcome

		log.Printf("New feed connection for policy %s", policyID)
	}
}

// readPump drains the connection so control frames are processed and
// detects the peer going away.
func (c *feedClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump forwards queued events to the peer and keeps it alive with
// pings.
func (c *feedClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close tears down the subscription and connection exactly once
func (c *feedClient) close() {
	c.closeOnce.Do(func() {
		if c.sub != nil {
			c.sub.Unsubscribe()
		}
		c.conn.Close()
		log.Printf("Feed connection closed for policy %s", c.policyID)
	})
}
