package game

// PointsBreakdown records how an answer's points were assembled so the recap
// can show where every point came from.
type PointsBreakdown struct {
	Base             int     `json:"base"`
	TimeBonus        int     `json:"time_bonus"`
	OrderBonus       int     `json:"order_bonus"`
	StreakMultiplier float64 `json:"streak_multiplier"`
	Total            int     `json:"total"`
}

const (
	basePoints    = 100
	maxTimeBonus  = 50
	maxOrderBonus = 25
	orderStep     = 5
	streakStep    = 0.1
	streakCap     = 5
)

// computePoints scores a correct answer: a base value, a bonus decaying with
// how much of the time limit was used, a bonus for answering early, and a
// multiplier that grows with the player's streak.
func (r *Room) computePoints(a *Answer, streak int) *PointsBreakdown {
	b := &PointsBreakdown{Base: basePoints, StreakMultiplier: 1}

	if r.timeLimit > 0 {
		limitMs := r.timeLimit.Milliseconds()
		used := a.SubmittedAtMs
		if used < 0 {
			used = 0
		}
		if used > limitMs {
			used = limitMs
		}
		b.TimeBonus = int(maxTimeBonus * (limitMs - used) / limitMs)
	}

	b.OrderBonus = maxOrderBonus - orderStep*a.Order
	if b.OrderBonus < 0 {
		b.OrderBonus = 0
	}

	capped := streak
	if capped > streakCap {
		capped = streakCap
	}
	if capped > 1 {
		b.StreakMultiplier = 1 + streakStep*float64(capped-1)
	}

	b.Total = int(float64(b.Base+b.TimeBonus+b.OrderBonus) * b.StreakMultiplier)
	return b
}

func (r *Room) handleEvaluate(c clientCommand) error {
	if r.evaluationMode != ModeHostEvaluates {
		return errStateConflict("answers are evaluated by community vote")
	}
	if r.state != StateRoundEvaluating && r.state != StateRoundOver {
		return errStateConflict("no answers to evaluate right now")
	}
	var payload EvaluatePayload
	if err := decodePayload(c.msg.Data, &payload); err != nil {
		return err
	}
	p, ok := r.players[payload.PlayerID]
	if !ok {
		return errNotFound("player not found in room")
	}
	a, ok := r.answers[p.ID]
	if !ok {
		return errNotFound("that player has no answer this round")
	}

	r.applyEvaluation(p, a, payload.Correct)
	if r.checkAttrition() {
		return nil
	}
	if r.state == StateRoundEvaluating && r.allEvaluated() {
		r.finishEvaluation()
		return nil
	}
	r.broadcast()
	return nil
}

// applyEvaluation sets (or corrects) an answer's verdict. A correction first
// reverses the prior score, streak and life effects exactly, then applies the
// new verdict as if it were the first; the two never interleave partially.
func (r *Room) applyEvaluation(p *Player, a *Answer, correct bool) {
	if a.Evaluation != nil {
		r.reverseEvaluation(p, a)
	}

	a.prevStreak = p.Streak
	v := correct
	a.Evaluation = &v

	if correct {
		p.Streak++
		if r.pointsEnabled {
			a.Breakdown = r.computePoints(a, p.Streak)
			a.Points = a.Breakdown.Total
			p.Score += a.Points
		}
		return
	}

	p.Streak = 0
	p.Lives--
	a.tookLife = true
	if p.Lives <= 0 && p.Role == RoleActive {
		p.Role = RoleEliminated
		a.eliminated = true
		r.log.Info().Str("player", p.Name).Msg("player eliminated")
	}
}

func (r *Room) reverseEvaluation(p *Player, a *Answer) {
	p.Score -= a.Points
	p.Streak = a.prevStreak
	if a.tookLife {
		p.Lives++
		if a.eliminated && p.Role == RoleEliminated {
			p.Role = RoleActive
		}
	}
	a.Points = 0
	a.Breakdown = nil
	a.Evaluation = nil
	a.tookLife = false
	a.eliminated = false
}

func (r *Room) allEvaluated() bool {
	for _, a := range r.answers {
		if a.Evaluation == nil {
			return false
		}
	}
	return len(r.answers) > 0
}
