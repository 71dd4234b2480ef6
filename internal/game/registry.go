package game

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry is the table of active rooms. Its lock guards only membership
// (insert on create, remove on teardown); gameplay mutation never touches it.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	settings Settings
	source   QuestionSource
}

func NewRegistry(settings Settings, source QuestionSource) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		settings: settings,
		source:   source,
	}
}

// CreateRoom mints a collision-checked code, inserts the room and starts its
// event loop. hostID is the host's stable identity; only it may attach the
// host connection, including after a reconnect.
func (g *Registry) CreateRoom(hostID string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := g.generateCode()
	room := NewRoom(code, hostID, g.settings, g.source, g.remove)
	g.rooms[code] = room
	go room.Run()
	log.Info().Str("room", code).Msg("room created")
	return room
}

func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[code]
	return room, ok
}

// ListByHost returns summaries of the given host's active rooms.
func (g *Registry) ListByHost(hostID string) []RoomInfo {
	g.mu.Lock()
	var rooms []*Room
	for _, room := range g.rooms {
		if room.hostID == hostID {
			rooms = append(rooms, room)
		}
	}
	g.mu.Unlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		if info, ok := room.Info(); ok {
			out = append(out, info)
		}
	}
	return out
}

func (g *Registry) remove(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, code)
}

// generateCode rolls 6-digit codes until one is free among active rooms.
// Caller holds the lock.
func (g *Registry) generateCode() string {
	for {
		code := fmt.Sprintf("%06d", rand.Intn(1000000))
		if _, taken := g.rooms[code]; !taken {
			return code
		}
	}
}
