package models

import "errors"

// Custom errors
var (
	ErrNotFound       = errors.New("record not found")
	ErrUnauthorized   = errors.New("missing or invalid bearer credential")
	ErrInvalidRequest = errors.New("request is missing sport or market selection")
	ErrUnknownMarket  = errors.New("unknown market selection")
)
