package game

import (
	"encoding/json"
	"fmt"
)

// ClientMessage is the wire envelope for every inbound gameplay event.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is the wire envelope for every outbound event.
type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Inbound event types.
const (
	EvStartGame     = "startGame"
	EvSubmitAnswer  = "submitAnswer"
	EvBoardUpdate   = "boardUpdate"
	EvEvaluate      = "evaluate"
	EvVote          = "vote"
	EvNextQuestion  = "nextQuestion"
	EvForceEndRound = "forceEndRound"
	EvEndEvaluation = "endEvaluation"
	EvRestartGame   = "restartGame"
	EvShowRecap     = "showRecap"
	EvRecapNavigate = "recapNavigate"
)

// Outbound event types.
const (
	EvStateSnapshot = "stateSnapshot"
	EvRoundStarted  = "roundStarted"
	EvRoundOver     = "roundOver"
	EvTimeUp        = "timeUp"
	EvGameConcluded = "gameConcluded"
	EvRecap         = "recap"
	EvBoardRelay    = "boardUpdate"
	EvErrorNotice   = "errorNotice"
	EvRoomClosed    = "roomClosed"
)

type StartGamePayload struct {
	QuestionIDs      []uint `json:"question_ids"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
	EvaluationMode   string `json:"evaluation_mode"`
	PointsEnabled    bool   `json:"points_enabled"`
}

type SubmitAnswerPayload struct {
	Text       string `json:"text"`
	HasDrawing bool   `json:"has_drawing"`
	Drawing    string `json:"drawing,omitempty"`
}

type BoardUpdatePayload struct {
	Drawing string `json:"drawing"`
}

type EvaluatePayload struct {
	PlayerID string `json:"player_id"`
	Correct  bool   `json:"correct"`
}

type VotePayload struct {
	OwnerID string `json:"owner_id"`
	Correct bool   `json:"correct"`
}

type RecapNavigatePayload struct {
	RoundIndex int `json:"round_index"`
}

// command is one serialized unit of room mutation. Commands are drained by the
// room goroutine one at a time; apply runs with exclusive access to the room.
type command interface {
	apply(r *Room)
}

// clientCommand is a parsed gameplay event attributed to its sender. fromHost
// marks events arriving on the host socket; playerID is empty in that case.
type clientCommand struct {
	msg      ClientMessage
	playerID string
	fromHost bool
}

func (c clientCommand) apply(r *Room) { r.dispatch(c) }

// timerExpired is posted by the round deadline. generation detects a stale
// timer that outlived its round.
type timerExpired struct {
	generation int
}

func (c timerExpired) apply(r *Room) { r.handleTimerExpired(c.generation) }

// hostGraceExpired fires when a disconnected host did not reclaim the room in
// time.
type hostGraceExpired struct {
	generation int
}

func (c hostGraceExpired) apply(r *Room) { r.handleHostGraceExpired(c.generation) }

type joinRequest struct {
	name  string
	conn  client
	reply chan joinResult
}

type joinResult struct {
	playerID string
	err      error
}

func (c joinRequest) apply(r *Room) { r.handleJoin(c) }

type rejoinRequest struct {
	playerID string
	conn     client
	reply    chan joinResult
}

func (c rejoinRequest) apply(r *Room) { r.handleRejoin(c) }

type hostAttachRequest struct {
	hostID string
	conn   client
	reply  chan error
}

func (c hostAttachRequest) apply(r *Room) { r.handleHostAttach(c) }

// disconnected is posted by a read pump when its connection dies. conn
// identifies which binding dropped so a stale notice cannot unbind a newer
// connection.
type disconnected struct {
	playerID string
	fromHost bool
	conn     client
}

func (c disconnected) apply(r *Room) { r.handleDisconnect(c) }

type teardownRequest struct {
	reason string
}

func (c teardownRequest) apply(r *Room) { r.teardown(c.reason) }

func errorNotice(err error) ServerMessage {
	if ge, ok := err.(*GameError); ok {
		return ServerMessage{Type: EvErrorNotice, Data: ge}
	}
	return ServerMessage{Type: EvErrorNotice, Data: &GameError{
		Code:    CodeValidation,
		Message: err.Error(),
	}}
}

func decodePayload(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return errValidation("missing event payload")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errValidation(fmt.Sprintf("malformed event payload: %v", err))
	}
	return nil
}
