package handlers

import (
	"net/http"
	"strconv"

	"schoolquiz-backend/internal/game"
	"schoolquiz-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RoomHandler owns room creation over HTTP and both websocket entry points.
// Everything after the socket is attached flows through the room's own
// serialized event queue.
type RoomHandler struct {
	registry    *game.Registry
	authService *services.AuthService
}

func NewRoomHandler(registry *game.Registry, authService *services.AuthService) *RoomHandler {
	return &RoomHandler{registry: registry, authService: authService}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	hostID := c.GetUint("host_id")
	room := h.registry.CreateRoom(strconv.FormatUint(uint64(hostID), 10))
	c.JSON(http.StatusCreated, gin.H{"code": room.Code()})
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	hostID := c.GetUint("host_id")
	rooms := h.registry.ListByHost(strconv.FormatUint(uint64(hostID), 10))
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// HandleHostSocket binds the host's websocket. Browsers cannot set headers on
// a websocket dial, so the JWT rides in the query string.
func (h *RoomHandler) HandleHostSocket(c *gin.Context) {
	code := c.Param("code")
	room, ok := h.registry.Get(code)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	hostID, err := h.authService.ValidateToken(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := game.NewConn(ws)
	if err := room.AttachHost(strconv.FormatUint(uint64(hostID), 10), conn); err != nil {
		conn.Close(err.Error())
		return
	}
	conn.Serve(room, "", true)
}

// HandlePlaySocket binds a participant's websocket. A fresh join carries a
// display name; a rejoin carries the persistent id minted at first join.
func (h *RoomHandler) HandlePlaySocket(c *gin.Context) {
	code := c.Param("code")
	room, ok := h.registry.Get(code)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	name := c.Query("name")
	playerID := c.Query("player_id")
	if name == "" && playerID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name or player_id required"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn := game.NewConn(ws)

	var pid string
	if playerID != "" {
		pid, err = room.Rejoin(playerID, conn)
	} else {
		pid, err = room.Join(name, conn)
	}
	if err != nil {
		conn.Close(err.Error())
		return
	}
	conn.Serve(room, pid, false)
}
