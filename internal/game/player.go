package game

import "time"

type Role string

const (
	RoleActive     Role = "active"
	RoleSpectator  Role = "spectator"
	RoleEliminated Role = "eliminated"
)

// client is the outbound half of one connected device. Production code uses
// *Conn; tests substitute a capture mock.
type client interface {
	Send(msg ServerMessage)
	Close(reason string)
}

// Player is a room member identified by a persistent id that survives
// reconnects. conn is nil while the player is disconnected; everything else is
// retained so a rejoin restores exact state.
type Player struct {
	ID       string
	Name     string
	Lives    int
	Score    int
	Streak   int
	Role     Role
	JoinedAt time.Time

	conn client
}

func (p *Player) connected() bool { return p.conn != nil }

func (p *Player) send(msg ServerMessage) {
	if p.conn != nil {
		p.conn.Send(msg)
	}
}
