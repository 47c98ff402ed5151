package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// session is one user's set of open sockets plus the Redis
// subscription feeding them. The subscription lives exactly as long as
// the user has at least one socket open.
type session struct {
	conns  []*websocket.Conn
	cancel context.CancelFunc
}

// Hub relays per-user Redis pub/sub messages (change events, job
// progress) to that user's websocket connections.
type Hub struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*session
	pubsub    *redis.Client
	jwtSecret []byte
}

func NewHub(pubsub *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		sessions:  make(map[uuid.UUID]*session),
		pubsub:    pubsub,
		jwtSecret: []byte(jwtSecret),
	}
}

// HandleWebSocket upgrades /ws. Browsers cannot set an Authorization
// header on the websocket handshake, so the access token rides in the
// token query parameter instead.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed for user %s: %v", userID, err)
		return
	}

	h.attach(userID, conn)

	// The client never sends application messages. Reading here just
	// notices the disconnect.
	go func() {
		defer h.detach(userID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) authenticate(r *http.Request) (uuid.UUID, bool) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return uuid.Nil, false
	}
	token, err := jwt.Parse(tokenStr, func(*jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, false
	}
	idStr, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func (h *Hub) attach(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.sessions[userID]
	if s == nil {
		ctx, cancel := context.WithCancel(context.Background())
		s = &session{cancel: cancel}
		h.sessions[userID] = s
		go h.relay(ctx, userID)
	}
	s.conns = append(s.conns, conn)

	log.Printf("websocket connected: user %s (%d open)", userID, len(s.conns))
}

func (h *Hub) detach(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	s := h.sessions[userID]
	if s == nil {
		return
	}
	for i, c := range s.conns {
		if c == conn {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			break
		}
	}
	if len(s.conns) == 0 {
		s.cancel()
		delete(h.sessions, userID)
	}

	log.Printf("websocket disconnected: user %s", userID)
}

// relay forwards everything published on the user's update channel to
// their open sockets, payloads passed through verbatim.
func (h *Hub) relay(ctx context.Context, userID uuid.UUID) {
	sub := h.pubsub.Subscribe(ctx, "user_updates:"+userID.String())
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			h.fanOut(userID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) fanOut(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := h.sessions[userID]
	if s == nil {
		return
	}
	for _, conn := range s.conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("websocket write failed for user %s: %v", userID, err)
		}
	}
}
