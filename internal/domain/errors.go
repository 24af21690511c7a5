package domain

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrRoomNotFound      = errors.New("room not found")
	ErrPassengerNotFound = errors.New("passenger not found")
	ErrNotInRoom         = errors.New("passenger not in the room")

	ErrPollNotFound   = errors.New("poll not found")
	ErrPollActive     = errors.New("room already has an active poll")
	ErrPollNotActive  = errors.New("poll is not active")
	ErrOptionNotFound = errors.New("poll option not found")
	ErrAlreadyVoted   = errors.New("passenger already voted on this poll")
)
