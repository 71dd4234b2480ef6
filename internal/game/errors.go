package game

import "errors"

// Error codes carried on errorNotice messages. Every gameplay failure maps to
// one of these; transport failures are handled by reconnection instead.
const (
	CodeAuthorization = "authorization"
	CodeValidation    = "validation"
	CodeNotFound      = "not_found"
	CodeStateConflict = "state_conflict"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomClosed       = errors.New("room is closed")
	ErrPlayerNotFound   = errors.New("player not found in room")
	ErrNameTaken        = errors.New("display name already taken")
	ErrNameInvalid      = errors.New("display name must be 1-100 characters")
	ErrNotHost          = errors.New("only the host may do that")
	ErrNotEnoughPlayers = errors.New("need at least 2 active players to start")
	ErrNoQuestions      = errors.New("cannot start without questions")
)

// GameError pairs a wire code with a human-readable message so handlers can
// report failures to the originating client only.
type GameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *GameError) Error() string { return e.Message }

func errAuthorization(msg string) *GameError {
	return &GameError{Code: CodeAuthorization, Message: msg}
}

func errValidation(msg string) *GameError {
	return &GameError{Code: CodeValidation, Message: msg}
}

func errNotFound(msg string) *GameError {
	return &GameError{Code: CodeNotFound, Message: msg}
}

func errStateConflict(msg string) *GameError {
	return &GameError{Code: CodeStateConflict, Message: msg}
}
