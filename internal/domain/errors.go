package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrDuplicateName      = errors.New("display name already taken in this room")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrNotHost            = errors.New("only the host can perform this action")
	ErrNotCurrentDrawer   = errors.New("only the current drawer can perform this action")
	ErrInvalidRoomState   = errors.New("invalid action for current room status")
	ErrEmptyMessage       = errors.New("message cannot be empty")
	ErrSessionNotFound    = errors.New("session is not bound to a room")
)
