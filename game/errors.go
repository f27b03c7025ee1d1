package game

import "errors"

var (
	ErrRoomNotFound    = errors.New("room-not-found")
	ErrRoomFull        = errors.New("room-full")
	ErrGameModeUnknown = errors.New("unknown-game-mode")
	ErrMalformedGuess  = errors.New("malformed-guess")
)
