package model

import "time"

// Reasons recorded on point events written by the server itself. Manual
// awards carry the client-supplied reason instead.
const (
	PointReasonManual   = "manual"
	PointReasonSolve    = "solve"
	PointReasonPurchase = "purchase"
)

// PointEvent is an append-only record of one balance change. A user's
// balance always equals the sum of the deltas of their events.
type PointEvent struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	Delta       int       `json:"delta"`
	Reason      string    `json:"reason"`
	ReferenceID string    `json:"referenceId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
