package game

import "context"

// Question is the game-side view of a bank question. The room only ever reads
// questions; authoring lives elsewhere.
type Question struct {
	ID       uint   `json:"id"`
	Text     string `json:"text"`
	Answer   string `json:"answer"`
	Subject  string `json:"subject"`
	Grade    int    `json:"grade"`
	Language string `json:"language"`
}

// QuestionSource is the read-only question bank. It is consumed once per game,
// while the room is still in the lobby, never on the round hot path.
type QuestionSource interface {
	FetchByIDs(ctx context.Context, ids []uint) ([]Question, error)
}
