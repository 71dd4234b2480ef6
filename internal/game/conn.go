package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	// Drawing payloads are large; anything beyond this is hostile.
	maxMessageBytes = 4 << 20

	// sendBuffer bounds the outbox; a client that cannot drain snapshots
	// this far behind is cut off and expected to reconnect.
	sendBuffer = 256
)

// Conn adapts one gorilla websocket into the room engine's client interface.
// Send never blocks the room goroutine: messages are queued for the write
// pump and an overflowing queue closes the connection.
type Conn struct {
	ws        *websocket.Conn
	out       chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	limiter   *rate.Limiter
}

func NewConn(ws *websocket.Conn) *Conn {
	ws.SetReadLimit(maxMessageBytes)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &Conn{
		ws:      ws,
		out:     make(chan []byte, sendBuffer),
		closed:  make(chan struct{}),
		limiter: rate.NewLimiter(25, 50),
	}
}

func (c *Conn) Send(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("marshal outbound message")
		return
	}
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.out <- data:
	default:
		c.Close("send queue overflow")
	}
}

func (c *Conn) Close(reason string) {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
		c.ws.Close()
	})
}

// Serve runs both pumps and blocks until the connection dies, then reports
// the disconnect into the room's serialized queue.
func (c *Conn) Serve(room *Room, playerID string, fromHost bool) {
	go c.writePump()
	c.readPump(room, playerID, fromHost)
	room.NotifyDisconnect(playerID, fromHost, c)
}

func (c *Conn) readPump(room *Room, playerID string, fromHost bool) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.Send(errorNotice(errValidation("malformed message envelope")))
			continue
		}
		if !c.limiter.Allow() {
			// Board strokes flood under a laggy canvas; drop quietly. Anything
			// else over the limit gets told.
			if msg.Type == EvBoardUpdate {
				continue
			}
			c.Send(errorNotice(errValidation("too many events, slow down")))
			continue
		}
		room.Post(msg, playerID, fromHost)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case <-c.closed:
			return
		case data := <-c.out:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
