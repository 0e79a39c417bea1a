package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordAction identifies what happened to a record.
type RecordAction string

const (
	ActionCreate RecordAction = "create"
	ActionUpdate RecordAction = "update"
	ActionDelete RecordAction = "delete"
)

// RecordEvent is emitted after a successful commit of any record mutation.
// Consumers (activity logs, push notifications) are fire-and-forget; a
// consumer failure never affects the originating transaction.
type RecordEvent struct {
	EventID    string             `json:"eventId"`
	OwnerID    primitive.ObjectID `json:"ownerId"`
	RecordID   primitive.ObjectID `json:"recordId"`
	Action     RecordAction       `json:"action"`
	Date       string             `json:"date"` // YYYY-MM-DD
	OccurredAt time.Time          `json:"occurredAt"`
}
