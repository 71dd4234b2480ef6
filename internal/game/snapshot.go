package game

import "sort"

// Snapshot is a complete, role-scoped rendering of room state. Clients treat
// it as the sole source of truth: every state-affecting event is followed by
// a fresh snapshot, and a reconnecting client gets one immediately so no
// cached state has to survive the gap.
type Snapshot struct {
	Code           string           `json:"code"`
	State          Lifecycle        `json:"state"`
	EvaluationMode EvaluationMode   `json:"evaluation_mode,omitempty"`
	PointsEnabled  bool             `json:"points_enabled"`
	HostConnected  bool             `json:"host_connected"`
	RoundIndex     int              `json:"round_index"`
	TotalQuestions int              `json:"total_questions"`
	Question       *QuestionView    `json:"question,omitempty"`
	DeadlineMs     int64            `json:"deadline_ms,omitempty"`
	Players        []PlayerView     `json:"players"`
	You            string           `json:"you,omitempty"`
	Answers        []AnswerView     `json:"answers,omitempty"`
	Boards         map[string]string `json:"boards,omitempty"`
	Votes          map[string]Tally `json:"votes,omitempty"`
	Recap          []RecapEntry     `json:"recap,omitempty"`
	RecapRound     int              `json:"recap_round"`
}

type QuestionView struct {
	Text     string `json:"text"`
	Subject  string `json:"subject,omitempty"`
	Grade    int    `json:"grade,omitempty"`
	Language string `json:"language,omitempty"`
	// Answer is filled on the host view only.
	Answer string `json:"answer,omitempty"`
}

type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Lives     int    `json:"lives"`
	Score     int    `json:"score"`
	Streak    int    `json:"streak"`
	Role      Role   `json:"role"`
	Connected bool   `json:"connected"`
	Answered  bool   `json:"answered"`
}

type AnswerView struct {
	PlayerID      string           `json:"player_id"`
	PlayerName    string           `json:"player_name"`
	Text          string           `json:"text"`
	HasDrawing    bool             `json:"has_drawing"`
	Drawing       string           `json:"drawing,omitempty"`
	Order         int              `json:"order"`
	SubmittedAtMs int64            `json:"submitted_at_ms"`
	Evaluation    *bool            `json:"evaluation,omitempty"`
	Points        int              `json:"points"`
	Breakdown     *PointsBreakdown `json:"breakdown,omitempty"`
}

type Tally struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// broadcast rebuilds snapshots from authoritative state and pushes them to
// every connected member, each in its own role's shape.
func (r *Room) broadcast() {
	if r.hostConn != nil {
		r.hostConn.Send(ServerMessage{Type: EvStateSnapshot, Data: r.hostSnapshot()})
	}
	for _, p := range r.players {
		if p.conn != nil {
			p.conn.Send(ServerMessage{Type: EvStateSnapshot, Data: r.playerSnapshot(p)})
		}
	}
}

// broadcastEvent sends the same signal event to everyone in the room.
func (r *Room) broadcastEvent(msg ServerMessage) {
	if r.hostConn != nil {
		r.hostConn.Send(msg)
	}
	for _, p := range r.players {
		p.send(msg)
	}
}

func (r *Room) baseSnapshot() Snapshot {
	s := Snapshot{
		Code:           r.code,
		State:          r.state,
		EvaluationMode: r.evaluationMode,
		PointsEnabled:  r.pointsEnabled,
		HostConnected:  r.hostConn != nil,
		RoundIndex:     r.roundIndex,
		TotalQuestions: len(r.questions),
		Players:        r.playerViews(),
		RecapRound:     r.recapRound,
	}
	if q := r.currentQuestion(); q != nil {
		s.Question = &QuestionView{
			Text:     q.Text,
			Subject:  q.Subject,
			Grade:    q.Grade,
			Language: q.Language,
		}
	}
	if r.state == StateRoundActive && !r.roundDeadline.IsZero() {
		s.DeadlineMs = r.roundDeadline.UnixMilli()
	}
	if r.state == StateConcluded || r.state == StateRecapShown {
		s.Recap = r.recap
	}
	return s
}

// hostSnapshot sees everything: canonical answer, all boards, all answers
// with evaluations, live vote tallies.
func (r *Room) hostSnapshot() Snapshot {
	s := r.baseSnapshot()
	if q := r.currentQuestion(); q != nil {
		s.Question.Answer = q.Answer
	}
	s.Answers = r.answerViews(func(a *Answer) AnswerView { return r.fullAnswerView(a) })
	if len(r.boards) > 0 {
		s.Boards = r.boards
	}
	if len(r.votes) > 0 {
		s.Votes = make(map[string]Tally, len(r.votes))
		for owner := range r.votes {
			c, i := r.tally(owner)
			s.Votes[owner] = Tally{Correct: c, Incorrect: i}
		}
	}
	return s
}

// playerSnapshot sees its own answer and board in full, plus public round
// facts. Other players' answers appear, without verdicts or points, only
// while a community vote needs them on every screen.
func (r *Room) playerSnapshot(p *Player) Snapshot {
	s := r.baseSnapshot()
	s.You = p.ID

	showAll := r.evaluationMode == ModeCommunityVote &&
		(r.state == StateRoundEvaluating || r.state == StateRoundOver)

	s.Answers = r.answerViews(func(a *Answer) AnswerView {
		switch {
		case a.PlayerID == p.ID:
			return r.fullAnswerView(a)
		case showAll:
			return AnswerView{
				PlayerID:   a.PlayerID,
				PlayerName: r.playerName(a.PlayerID),
				Text:       a.Text,
				HasDrawing: a.HasDrawing,
				Drawing:    a.Drawing,
				Order:      a.Order,
			}
		default:
			return AnswerView{}
		}
	})
	if board, ok := r.boards[p.ID]; ok {
		s.Boards = map[string]string{p.ID: board}
	}
	return s
}

func (r *Room) fullAnswerView(a *Answer) AnswerView {
	return AnswerView{
		PlayerID:      a.PlayerID,
		PlayerName:    r.playerName(a.PlayerID),
		Text:          a.Text,
		HasDrawing:    a.HasDrawing,
		Drawing:       a.Drawing,
		Order:         a.Order,
		SubmittedAtMs: a.SubmittedAtMs,
		Evaluation:    a.Evaluation,
		Points:        a.Points,
		Breakdown:     a.Breakdown,
	}
}

// answerViews renders the current round's answers in submission order,
// skipping entries the view function redacted entirely.
func (r *Room) answerViews(view func(*Answer) AnswerView) []AnswerView {
	ordered := make([]*Answer, 0, len(r.answers))
	for _, a := range r.answers {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	out := make([]AnswerView, 0, len(ordered))
	for _, a := range ordered {
		v := view(a)
		if v.PlayerID == "" {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (r *Room) playerViews() []PlayerView {
	out := make([]PlayerView, 0, len(r.joinSeq))
	for _, id := range r.joinSeq {
		p, ok := r.players[id]
		if !ok {
			continue
		}
		_, answered := r.answers[id]
		out = append(out, PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Lives:     p.Lives,
			Score:     p.Score,
			Streak:    p.Streak,
			Role:      p.Role,
			Connected: p.connected(),
			Answered:  answered,
		})
	}
	return out
}

func (r *Room) playerName(id string) string {
	if p, ok := r.players[id]; ok {
		return p.Name
	}
	return ""
}
