package hub

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 개발용 - 모든 origin 허용
		return true
	},
}

// Client - 연결된 클라이언트
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub - 파이프라인 이벤트를 모든 구독 클라이언트에게 중계하는 브로드캐스트 허브
type Hub struct {
	clients map[*Client]bool
	mutex   sync.RWMutex
}

func New() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

// HandleWS - 웹소켓 업그레이드 및 클라이언트 등록
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
	}

	h.mutex.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mutex.Unlock()

	log.Printf("📡 Event subscriber connected (total: %d)", total)

	go client.writePump()
	go h.readPump(client)
}

// readPump - 클라이언트가 끊어질 때까지 읽기만 수행 (인바운드 메시지는 무시)
func (h *Hub) readPump(c *Client) {
	defer func() {
		h.mutex.Lock()
		delete(h.clients, c)
		h.mutex.Unlock()
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump - 클라이언트로 메시지 쓰기
func (c *Client) writePump() {
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Broadcast - 모든 클라이언트에게 전송. 버퍼가 가득 찬 클라이언트는 건너뛴다.
func (h *Hub) Broadcast(message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
		}
	}
}

// SubscribeRedis - Redis 이벤트 채널을 구독해 수신 페이로드를 그대로 중계한다.
// 연결이 끊기면 잠시 대기 후 재구독.
func (h *Hub) SubscribeRedis(ctx context.Context, rdb *redis.Client, channel string) {
	for {
		pubsub := rdb.Subscribe(ctx, channel)
		ch := pubsub.Channel()

		log.Printf("👀 Subscribed to event channel: %s", channel)
		for msg := range ch {
			h.Broadcast([]byte(msg.Payload))
		}

		pubsub.Close()
		if ctx.Err() != nil {
			return
		}
		log.Printf("⚠️  Event channel closed, resubscribing in 5s...")
		time.Sleep(5 * time.Second)
	}
}
