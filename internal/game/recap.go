package game

// RecapEntry is the immutable record of one played round: the question, every
// answer with its verdict and points, and the per-player point deltas.
type RecapEntry struct {
	RoundIndex int            `json:"round_index"`
	Question   Question       `json:"question"`
	Answers    []AnswerView   `json:"answers"`
	Deltas     map[string]int `json:"deltas"`
}

// captureRound freezes the current round into the recap. Called exactly once
// per round, when the room leaves RoundOver; len(recap) tracking makes a
// double capture (e.g. conclude right after next) a no-op.
func (r *Room) captureRound() {
	if len(r.recap) != r.roundIndex {
		return
	}
	q := r.currentQuestion()
	if q == nil {
		return
	}

	entry := RecapEntry{
		RoundIndex: r.roundIndex,
		Question:   *q,
		Answers:    r.answerViews(func(a *Answer) AnswerView { return r.fullAnswerView(a) }),
		Deltas:     make(map[string]int, len(r.answers)),
	}
	for id, a := range r.answers {
		entry.Deltas[id] = a.Points
	}
	r.recap = append(r.recap, entry)
}
