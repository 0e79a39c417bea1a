package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutType is one entry of the workout type catalog. The catalog is
// maintained elsewhere; this core only reads it to resolve a record's kind.
type WorkoutType struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Kind      RecordKind         `bson:"kind" json:"kind"` // "time" or "set"
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
