package game

import "time"

// dispatch routes one inbound gameplay event. Host-only events are rejected
// for participants before any payload is even decoded; the server never
// trusts client-side gating.
func (r *Room) dispatch(c clientCommand) {
	reply := r.replyFunc(c)
	if reply == nil {
		return // sender no longer in the room
	}

	var err error
	switch c.msg.Type {
	case EvStartGame, EvEvaluate, EvNextQuestion, EvForceEndRound,
		EvEndEvaluation, EvRestartGame, EvShowRecap, EvRecapNavigate:
		if !c.fromHost {
			err = errAuthorization("only the host may do that")
			break
		}
		err = r.dispatchHost(c)
	case EvSubmitAnswer, EvBoardUpdate, EvVote:
		if c.fromHost {
			err = errAuthorization("the host does not play")
			break
		}
		err = r.dispatchPlayer(c)
	default:
		err = errValidation("unknown event type: " + c.msg.Type)
	}
	if err != nil {
		reply(errorNotice(err))
	}
}

func (r *Room) dispatchHost(c clientCommand) error {
	switch c.msg.Type {
	case EvStartGame:
		return r.handleStartGame(c)
	case EvEvaluate:
		return r.handleEvaluate(c)
	case EvNextQuestion:
		return r.handleNextQuestion()
	case EvForceEndRound:
		return r.handleForceEndRound()
	case EvEndEvaluation:
		return r.handleEndEvaluation()
	case EvRestartGame:
		return r.handleRestartGame()
	case EvShowRecap:
		return r.handleShowRecap()
	case EvRecapNavigate:
		return r.handleRecapNavigate(c)
	}
	return nil
}

func (r *Room) dispatchPlayer(c clientCommand) error {
	switch c.msg.Type {
	case EvSubmitAnswer:
		return r.handleSubmitAnswer(c)
	case EvBoardUpdate:
		return r.handleBoardUpdate(c)
	case EvVote:
		return r.handleVote(c)
	}
	return nil
}

// replyFunc resolves where error notices for this event go. Errors are always
// reported to the originating client only.
func (r *Room) replyFunc(c clientCommand) func(ServerMessage) {
	if c.fromHost {
		return func(msg ServerMessage) {
			if r.hostConn != nil {
				r.hostConn.Send(msg)
			}
		}
	}
	p, ok := r.players[c.playerID]
	if !ok {
		return nil
	}
	return p.send
}

func (r *Room) handleStartGame(c clientCommand) error {
	if r.state != StateLobby {
		return errStateConflict("game already started")
	}
	var payload StartGamePayload
	if err := decodePayload(c.msg.Data, &payload); err != nil {
		return err
	}
	if len(r.activePlayers()) < 2 {
		return errValidation(ErrNotEnoughPlayers.Error())
	}
	if len(payload.QuestionIDs) == 0 {
		return errValidation(ErrNoQuestions.Error())
	}
	mode := EvaluationMode(payload.EvaluationMode)
	if mode != ModeHostEvaluates && mode != ModeCommunityVote {
		return errValidation("evaluation_mode must be 'host' or 'vote'")
	}
	limit := time.Duration(payload.TimeLimitSeconds) * time.Second
	if limit < 0 || limit > r.settings.MaxTimeLimit {
		return errValidation("time limit out of range")
	}

	// The only external read in the room's lifetime, done while still in the
	// lobby so the round hot path never blocks on I/O.
	questions, err := r.fetchQuestions(payload.QuestionIDs)
	if err != nil {
		r.log.Error().Err(err).Msg("question fetch failed")
		return errValidation("could not load questions")
	}
	if len(questions) == 0 {
		return errValidation(ErrNoQuestions.Error())
	}

	r.questions = questions
	r.evaluationMode = mode
	r.pointsEnabled = payload.PointsEnabled
	r.timeLimit = limit
	r.roundIndex = 0
	r.recap = nil
	r.recapRound = 0
	r.log.Info().
		Int("questions", len(questions)).
		Str("mode", string(mode)).
		Dur("time_limit", limit).
		Msg("game started")
	r.startRound()
	return nil
}

func (r *Room) handleSubmitAnswer(c clientCommand) error {
	if r.state != StateRoundActive {
		return errStateConflict("no round is accepting answers")
	}
	p := r.players[c.playerID]
	if p.Role != RoleActive {
		return errAuthorization("only active players may answer")
	}
	var payload SubmitAnswerPayload
	if err := decodePayload(c.msg.Data, &payload); err != nil {
		return err
	}

	elapsed := time.Since(r.roundStarted).Milliseconds()
	if a, ok := r.answers[p.ID]; ok {
		// Resubmission overwrites the earlier answer but keeps its slot in
		// the submission order.
		a.Text = payload.Text
		a.HasDrawing = payload.HasDrawing
		a.Drawing = payload.Drawing
		a.SubmittedAtMs = elapsed
	} else {
		r.answers[p.ID] = &Answer{
			PlayerID:      p.ID,
			Text:          payload.Text,
			HasDrawing:    payload.HasDrawing,
			Drawing:       payload.Drawing,
			Order:         r.submitSeq,
			SubmittedAtMs: elapsed,
		}
		r.submitSeq++
	}
	if payload.HasDrawing && payload.Drawing != "" {
		r.boards[p.ID] = payload.Drawing
	}

	if r.allAnswered() {
		r.endRound(false)
		return nil
	}
	r.broadcast()
	return nil
}

func (r *Room) handleBoardUpdate(c clientCommand) error {
	if r.state != StateRoundActive {
		return errStateConflict("no round in progress")
	}
	p := r.players[c.playerID]
	if p.Role != RoleActive {
		return errAuthorization("only active players may draw")
	}
	var payload BoardUpdatePayload
	if err := decodePayload(c.msg.Data, &payload); err != nil {
		return err
	}
	r.boards[p.ID] = payload.Drawing

	// Live preview goes to the host only; a full snapshot per stroke would
	// swamp every participant with everyone else's drawings.
	if r.hostConn != nil {
		r.hostConn.Send(ServerMessage{Type: EvBoardRelay, Data: map[string]any{
			"player_id":   p.ID,
			"player_name": p.Name,
			"drawing":     payload.Drawing,
		}})
	}
	return nil
}

func (r *Room) handleNextQuestion() error {
	if r.state != StateRoundOver {
		return errStateConflict("current round is not over")
	}
	r.captureRound()
	if r.roundIndex+1 >= len(r.questions) {
		r.conclude(nil)
		return nil
	}
	r.roundIndex++
	r.startRound()
	return nil
}

func (r *Room) handleForceEndRound() error {
	if r.state != StateRoundActive {
		return errStateConflict("no round in progress")
	}
	r.endRound(false)
	return nil
}

func (r *Room) handleEndEvaluation() error {
	if r.state != StateRoundEvaluating {
		return errStateConflict("no evaluation in progress")
	}
	if r.evaluationMode == ModeCommunityVote {
		r.finalizeVoting()
		return nil
	}
	// Host mode: close out on whatever has been graded so far.
	r.finishEvaluation()
	return nil
}

func (r *Room) handleRestartGame() error {
	if r.state != StateConcluded && r.state != StateRecapShown {
		return errStateConflict("game is still in progress")
	}
	for _, p := range r.players {
		p.Lives = r.settings.StartingLives
		p.Score = 0
		p.Streak = 0
		p.Role = RoleActive
	}
	r.questions = nil
	r.answers = make(map[string]*Answer)
	r.boards = make(map[string]string)
	r.votes = make(map[string]map[string]bool)
	r.recap = nil
	r.recapRound = 0
	r.roundIndex = 0
	r.cancelRoundTimer()
	r.state = StateLobby
	r.log.Info().Msg("game restarted")
	r.broadcast()
	return nil
}

func (r *Room) handleShowRecap() error {
	if r.state != StateConcluded {
		return errStateConflict("no concluded game to recap")
	}
	r.state = StateRecapShown
	r.recapRound = 0
	r.broadcastEvent(ServerMessage{Type: EvRecap, Data: map[string]any{
		"entries": r.recap,
	}})
	r.broadcast()
	return nil
}

// handleRecapNavigate moves the shared recap selection. Navigation is room
// state, not a display concern: every viewer follows the host's projector.
func (r *Room) handleRecapNavigate(c clientCommand) error {
	if r.state != StateRecapShown {
		return errStateConflict("recap is not being shown")
	}
	var payload RecapNavigatePayload
	if err := decodePayload(c.msg.Data, &payload); err != nil {
		return err
	}
	if payload.RoundIndex < 0 || payload.RoundIndex >= len(r.recap) {
		return errValidation("recap round out of range")
	}
	r.recapRound = payload.RoundIndex
	r.broadcast()
	return nil
}
