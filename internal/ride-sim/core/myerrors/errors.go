package myerrors

import "errors"

var (
	ErrPermissionDenied      = errors.New("location permission denied")
	ErrRoutingFailed         = errors.New("routing failed")
	ErrNoRoute               = errors.New("no route returned")
	ErrPreconditionViolation = errors.New("precondition violation")
	ErrControllerStopped     = errors.New("session controller stopped")
	ErrInvalidPermission     = errors.New("invalid permission status")
	ErrInvalidCoordinate     = errors.New("invalid coordinate")
	ErrUnknownCommand        = errors.New("unknown command")
)
