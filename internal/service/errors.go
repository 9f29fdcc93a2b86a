package service

import "errors"

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameExists      = errors.New("game already exists")
	ErrNotGameOwner    = errors.New("player does not own this game")
	ErrComputerTurn    = errors.New("it is the computer's turn")
	ErrInvalidGameMode = errors.New("invalid game mode")
	ErrInvalidPlayers  = errors.New("invalid players")
	ErrInvalidSquare   = errors.New("invalid square")
)
