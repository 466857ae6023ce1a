package service

import "errors"

var (
	ErrInvalidLogin  = errors.New("invalid login: expected 8 lowercase latin letters")
	ErrInvalidName   = errors.New("invalid name")
	ErrNotRegistered = errors.New("user is not registered")
	ErrPeerNotFound  = errors.New("peer is not registered")
	ErrLoginTaken    = errors.New("login already registered by another user")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidOTP    = errors.New("invalid one-time code")
)
