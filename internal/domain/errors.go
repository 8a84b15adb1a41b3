package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Expedition errors
	ErrExpeditionActive   = errors.New("explorer already has an active expedition")
	ErrExpeditionNotFound = errors.New("expedition not found")
	ErrInvalidDuration    = errors.New("duration must be greater than zero")

	// Catalog errors
	ErrUnknownCategory = errors.New("unknown expedition category")
	ErrEmptyCatalog    = errors.New("catalog has no categories")

	// Party errors
	ErrPartyNotFound     = errors.New("party not found")
	ErrPartyStarted      = errors.New("party has already departed")
	ErrPartyWindowClosed = errors.New("party join window has closed")
	ErrPartyFull         = errors.New("party is at maximum capacity")
	ErrAlreadyMember     = errors.New("explorer already joined this party")
)
