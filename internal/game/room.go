package game

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Lifecycle string

const (
	StateLobby           Lifecycle = "lobby"
	StateRoundActive     Lifecycle = "round_active"
	StateRoundEvaluating Lifecycle = "round_evaluating"
	StateRoundOver       Lifecycle = "round_over"
	StateConcluded       Lifecycle = "concluded"
	StateRecapShown      Lifecycle = "recap_shown"
)

type EvaluationMode string

const (
	ModeHostEvaluates EvaluationMode = "host"
	ModeCommunityVote EvaluationMode = "vote"
)

// Settings are per-process gameplay knobs, loaded once from config.
type Settings struct {
	StartingLives int
	HostGrace     time.Duration
	MaxTimeLimit  time.Duration
	FetchTimeout  time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		StartingLives: 3,
		HostGrace:     60 * time.Second,
		MaxTimeLimit:  10 * time.Minute,
		FetchTimeout:  10 * time.Second,
	}
}

// Answer is one player's submission for the current round.
type Answer struct {
	PlayerID      string           `json:"player_id"`
	Text          string           `json:"text"`
	HasDrawing    bool             `json:"has_drawing"`
	Drawing       string           `json:"drawing,omitempty"`
	Order         int              `json:"order"`
	SubmittedAtMs int64            `json:"submitted_at_ms"`
	Evaluation    *bool            `json:"evaluation,omitempty"`
	Points        int              `json:"points"`
	Breakdown     *PointsBreakdown `json:"breakdown,omitempty"`

	// Bookkeeping for exact reversal of a host correction.
	prevStreak int
	tookLife   bool
	eliminated bool
}

// Room owns the authoritative state of one game session. Every field below is
// touched only by the room goroutine, which drains inbox one command at a
// time; there is no locking inside a room because there is no concurrency
// inside a room.
type Room struct {
	code     string
	settings Settings
	source   QuestionSource
	onClose  func(code string)
	log      zerolog.Logger

	hostID   string
	hostConn client

	state          Lifecycle
	evaluationMode EvaluationMode
	pointsEnabled  bool

	questions     []Question
	roundIndex    int
	timeLimit     time.Duration
	roundStarted  time.Time
	roundDeadline time.Time

	players map[string]*Player
	joinSeq []string

	answers   map[string]*Answer
	boards    map[string]string
	votes     map[string]map[string]bool
	submitSeq int

	recap      []RecapEntry
	recapRound int

	roundGen   int
	roundTimer *time.Timer
	graceGen   int
	graceTimer *time.Timer

	inbox  chan command
	done   chan struct{}
	closed bool
}

func NewRoom(code, hostID string, settings Settings, source QuestionSource, onClose func(code string)) *Room {
	r := &Room{
		code:     code,
		settings: settings,
		source:   source,
		onClose:  onClose,
		log:      log.With().Str("room", code).Logger(),
		hostID:   hostID,
		state:    StateLobby,
		players:  make(map[string]*Player),
		answers:  make(map[string]*Answer),
		boards:   make(map[string]string),
		votes:    make(map[string]map[string]bool),
		inbox:    make(chan command, 256),
		done:     make(chan struct{}),
	}
	// A freshly created room has no host connection yet, which is the exact
	// condition the grace window covers: if the host never attaches, the room
	// expires instead of accumulating forever.
	r.startGraceTimer()
	return r
}

// Run drains the inbox until teardown. One command at a time: this is the
// single-writer guarantee everything else relies on. A panic in a command means
// the room's state can no longer be trusted, so the room closes rather than
// limping on.
func (r *Room) Run() {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("room state corrupted")
			r.teardown("internal error")
		}
	}()
	for {
		select {
		case cmd := <-r.inbox:
			cmd.apply(r)
			if r.closed {
				return
			}
		case <-r.done:
			return
		}
	}
}

func (r *Room) post(cmd command) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- cmd:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) Code() string { return r.code }

// Join adds a new player. Safe to call from any goroutine; blocks until the
// room goroutine has processed the request.
func (r *Room) Join(name string, c client) (string, error) {
	req := joinRequest{name: name, conn: c, reply: make(chan joinResult, 1)}
	if !r.post(req) {
		return "", ErrRoomClosed
	}
	return r.awaitJoin(req.reply)
}

// awaitJoin waits for the room goroutine's answer, bailing out if the room
// shuts down before the request is drained.
func (r *Room) awaitJoin(reply chan joinResult) (string, error) {
	select {
	case res := <-reply:
		return res.playerID, res.err
	case <-r.done:
		// The room may have answered just before closing.
		select {
		case res := <-reply:
			return res.playerID, res.err
		default:
			return "", ErrRoomClosed
		}
	}
}

// Rejoin rebinds an existing persistent identity to a new connection.
func (r *Room) Rejoin(playerID string, c client) (string, error) {
	req := rejoinRequest{playerID: playerID, conn: c, reply: make(chan joinResult, 1)}
	if !r.post(req) {
		return "", ErrRoomClosed
	}
	return r.awaitJoin(req.reply)
}

// AttachHost binds (or re-binds after a disconnect) the host connection.
func (r *Room) AttachHost(hostID string, c client) error {
	req := hostAttachRequest{hostID: hostID, conn: c, reply: make(chan error, 1)}
	if !r.post(req) {
		return ErrRoomClosed
	}
	select {
	case err := <-req.reply:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

// Post forwards a parsed gameplay event into the room's serialized queue.
func (r *Room) Post(msg ClientMessage, playerID string, fromHost bool) {
	r.post(clientCommand{msg: msg, playerID: playerID, fromHost: fromHost})
}

// NotifyDisconnect reports that a connection's read pump died.
func (r *Room) NotifyDisconnect(playerID string, fromHost bool, c client) {
	r.post(disconnected{playerID: playerID, fromHost: fromHost, conn: c})
}

// RoomInfo is a point-in-time summary for host dashboards.
type RoomInfo struct {
	Code        string    `json:"code"`
	State       Lifecycle `json:"state"`
	PlayerCount int       `json:"player_count"`
	RoundIndex  int       `json:"round_index"`
}

type infoRequest struct {
	reply chan RoomInfo
}

func (c infoRequest) apply(r *Room) {
	c.reply <- RoomInfo{
		Code:        r.code,
		State:       r.state,
		PlayerCount: len(r.players),
		RoundIndex:  r.roundIndex,
	}
}

func (r *Room) Info() (RoomInfo, bool) {
	req := infoRequest{reply: make(chan RoomInfo, 1)}
	if !r.post(req) {
		return RoomInfo{}, false
	}
	select {
	case info := <-req.reply:
		return info, true
	case <-r.done:
		return RoomInfo{}, false
	}
}

// --- membership ---

func (r *Room) handleJoin(req joinRequest) {
	if len(req.name) == 0 || len(req.name) > 100 {
		req.reply <- joinResult{err: ErrNameInvalid}
		return
	}
	for _, p := range r.players {
		if strings.EqualFold(p.Name, req.name) {
			req.reply <- joinResult{err: ErrNameTaken}
			return
		}
	}

	p := &Player{
		ID:       uuid.NewString(),
		Name:     req.name,
		Lives:    r.settings.StartingLives,
		Role:     RoleActive,
		JoinedAt: time.Now(),
		conn:     req.conn,
	}
	// Joining mid-game means watching until the next restart.
	if r.state != StateLobby {
		p.Role = RoleSpectator
	}
	r.players[p.ID] = p
	r.joinSeq = append(r.joinSeq, p.ID)
	r.log.Info().Str("player", p.Name).Msg("player joined")

	req.reply <- joinResult{playerID: p.ID}
	r.broadcast()
}

func (r *Room) handleRejoin(req rejoinRequest) {
	p, ok := r.players[req.playerID]
	if !ok {
		req.reply <- joinResult{err: ErrPlayerNotFound}
		return
	}
	if p.conn != nil {
		p.conn.Close("replaced by a newer connection")
	}
	p.conn = req.conn
	r.log.Info().Str("player", p.Name).Msg("player reconnected")

	req.reply <- joinResult{playerID: p.ID}
	// The rejoining client must not trust any cached state; push everything.
	r.broadcast()
}

func (r *Room) handleHostAttach(req hostAttachRequest) {
	if req.hostID != r.hostID {
		req.reply <- ErrNotHost
		return
	}
	if r.hostConn != nil {
		r.hostConn.Close("replaced by a newer connection")
	}
	r.hostConn = req.conn
	r.cancelGraceTimer()
	r.log.Info().Msg("host attached")

	req.reply <- nil
	r.broadcast()
}

func (r *Room) handleDisconnect(c disconnected) {
	if c.fromHost {
		if r.hostConn != c.conn {
			return // a newer host connection already took over
		}
		r.hostConn = nil
		r.startGraceTimer()
		r.log.Warn().Dur("grace", r.settings.HostGrace).Msg("host disconnected")
		r.broadcast()
		return
	}
	p, ok := r.players[c.playerID]
	if !ok || p.conn != c.conn {
		return
	}
	p.conn = nil
	r.log.Info().Str("player", p.Name).Msg("player disconnected")
	// A mid-round disconnect must not stall the round for everyone else:
	// the leaver may have been the last pending answer or the last pending vote.
	if r.state == StateRoundActive && r.allAnswered() {
		r.endRound(false)
		return
	}
	if r.state == StateRoundEvaluating && r.evaluationMode == ModeCommunityVote && r.allVotesIn() {
		r.finalizeVoting()
		return
	}
	r.broadcast()
}

// --- host grace window ---

func (r *Room) startGraceTimer() {
	r.cancelGraceTimer()
	r.graceGen++
	gen := r.graceGen
	r.graceTimer = time.AfterFunc(r.settings.HostGrace, func() {
		r.post(hostGraceExpired{generation: gen})
	})
}

func (r *Room) cancelGraceTimer() {
	r.graceGen++
	if r.graceTimer != nil {
		r.graceTimer.Stop()
		r.graceTimer = nil
	}
}

// handleHostGraceExpired terminates the room when the host never came back.
// Policy choice: a classroom game without its moderator cannot make progress,
// so the room closes rather than handing control to a participant.
func (r *Room) handleHostGraceExpired(gen int) {
	if gen != r.graceGen || r.hostConn != nil {
		return
	}
	r.teardown("the host left and did not return")
}

// --- round flow ---

func (r *Room) currentQuestion() *Question {
	if r.state != StateRoundActive && r.state != StateRoundEvaluating && r.state != StateRoundOver {
		return nil
	}
	if r.roundIndex < 0 || r.roundIndex >= len(r.questions) {
		return nil
	}
	return &r.questions[r.roundIndex]
}

func (r *Room) startRound() {
	r.answers = make(map[string]*Answer)
	r.boards = make(map[string]string)
	r.votes = make(map[string]map[string]bool)
	r.submitSeq = 0
	r.state = StateRoundActive
	r.roundStarted = time.Now()
	r.scheduleRoundTimer()

	payload := map[string]any{
		"round_index":     r.roundIndex,
		"total_questions": len(r.questions),
	}
	if r.timeLimit > 0 {
		payload["deadline_ms"] = r.roundDeadline.UnixMilli()
		payload["time_limit_seconds"] = int(r.timeLimit / time.Second)
	}
	r.broadcastEvent(ServerMessage{Type: EvRoundStarted, Data: payload})
	r.broadcast()
}

// endRound moves RoundActive into evaluation. expired marks a timer-driven
// close, which additionally signals timeUp so clients can stop their inputs.
func (r *Room) endRound(expired bool) {
	r.cancelRoundTimer()
	if expired {
		r.broadcastEvent(ServerMessage{Type: EvTimeUp})
	}
	if len(r.answers) == 0 {
		// Nothing to evaluate; the round is over as soon as it closed.
		r.state = StateRoundOver
		r.broadcastEvent(ServerMessage{Type: EvRoundOver, Data: map[string]any{"round_index": r.roundIndex}})
		r.broadcast()
		return
	}
	r.state = StateRoundEvaluating
	r.broadcast()
}

func (r *Room) finishEvaluation() {
	r.state = StateRoundOver
	r.broadcastEvent(ServerMessage{Type: EvRoundOver, Data: map[string]any{"round_index": r.roundIndex}})
	r.broadcast()
}

func (r *Room) conclude(winner *Player) {
	r.cancelRoundTimer()
	r.captureRound()
	r.state = StateConcluded

	payload := map[string]any{}
	if winner != nil {
		payload["winner_id"] = winner.ID
		payload["winner_name"] = winner.Name
	}
	r.log.Info().Int("rounds", len(r.recap)).Msg("game concluded")
	r.broadcastEvent(ServerMessage{Type: EvGameConcluded, Data: payload})
	r.broadcast()
}

// allAnswered reports whether every active player that can still answer has.
// Disconnected players are not waited on; the timer or the host covers them.
func (r *Room) allAnswered() bool {
	if len(r.answers) == 0 {
		return false
	}
	for _, p := range r.players {
		if p.Role != RoleActive || !p.connected() {
			continue
		}
		if _, ok := r.answers[p.ID]; !ok {
			return false
		}
	}
	return true
}

func (r *Room) activePlayers() []*Player {
	var out []*Player
	for _, id := range r.joinSeq {
		if p := r.players[id]; p != nil && p.Role == RoleActive {
			out = append(out, p)
		}
	}
	return out
}

// checkAttrition concludes the game the moment a single active player is
// left standing, regardless of remaining questions.
func (r *Room) checkAttrition() bool {
	switch r.state {
	case StateRoundActive, StateRoundEvaluating, StateRoundOver:
	default:
		return false
	}
	active := r.activePlayers()
	if len(active) != 1 {
		return false
	}
	r.conclude(active[0])
	return true
}

// --- round timer ---

// scheduleRoundTimer arms the deadline for the freshly started round. The
// generation stamp lets a stale timer from an earlier round be detected even
// if its cancellation was missed.
func (r *Room) scheduleRoundTimer() {
	r.cancelRoundTimer()
	r.roundGen++
	if r.timeLimit <= 0 {
		r.roundDeadline = time.Time{}
		return
	}
	r.roundDeadline = r.roundStarted.Add(r.timeLimit)
	gen := r.roundGen
	r.roundTimer = time.AfterFunc(r.timeLimit, func() {
		r.post(timerExpired{generation: gen})
	})
}

func (r *Room) cancelRoundTimer() {
	r.roundGen++
	if r.roundTimer != nil {
		r.roundTimer.Stop()
		r.roundTimer = nil
	}
}

func (r *Room) handleTimerExpired(gen int) {
	if gen != r.roundGen || r.state != StateRoundActive {
		return
	}
	r.log.Info().Int("round", r.roundIndex).Msg("round deadline expired")
	r.endRound(true)
}

// --- teardown ---

func (r *Room) teardown(reason string) {
	if r.closed {
		return
	}
	r.closed = true
	r.log.Info().Str("reason", reason).Msg("room closing")

	msg := ServerMessage{Type: EvRoomClosed, Data: map[string]any{"reason": reason}}
	if r.hostConn != nil {
		r.hostConn.Send(msg)
		r.hostConn.Close(reason)
	}
	for _, p := range r.players {
		if p.conn != nil {
			p.conn.Send(msg)
			p.conn.Close(reason)
		}
	}
	r.cancelRoundTimer()
	r.cancelGraceTimer()
	close(r.done)
	if r.onClose != nil {
		r.onClose(r.code)
	}
}

// Close requests an orderly teardown from outside the room goroutine.
func (r *Room) Close(reason string) {
	r.post(teardownRequest{reason: reason})
}

func (r *Room) fetchQuestions(ids []uint) ([]Question, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.settings.FetchTimeout)
	defer cancel()
	return r.source.FetchByIDs(ctx, ids)
}
