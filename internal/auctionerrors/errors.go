package auctionerrors

import "errors"

// Registry-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrUnknownAuction  = errors.New("unknown auction reference")
)

// Validation errors, returned to the caller and never broadcast
var (
	ErrValidation          = errors.New("validation failed")
	ErrRejectedBid         = errors.New("bid rejected")
	ErrInvalidBid          = errors.New("invalid bid")
	ErrBidTooLow           = errors.New("bid amount too low")
	ErrAuctionNotActive    = errors.New("auction is not active")
	ErrMissingTitle        = errors.New("title is required")
	ErrMissingInitialPrice = errors.New("initial price is required")
)

// Wire errors, logged and dropped by the receiving client
var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event type")
)

// Runtime errors
var (
	ErrTransportUnavailable = errors.New("transport unavailable")
	ErrNodeStopped          = errors.New("node is not running")
)
