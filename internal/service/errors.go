package service

import "errors"

var (
	ErrRateLimited     = errors.New("too many requests")
	ErrDayUnavailable  = errors.New("selected day is not available")
	ErrSlotUnavailable = errors.New("selected time is not available")
	ErrSuperseded      = errors.New("slot fetch superseded by a newer request")
	ErrUpstream        = errors.New("salon service unavailable")
	ErrInvalidActor    = errors.New("invalid actor")
)
