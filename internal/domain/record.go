package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordKind is the behavioral category of a workout record. It decides
// how completion is computed for the record.
type RecordKind string

const (
	// KindTimeBased: a structured record whose completion is its own flag.
	KindTimeBased RecordKind = "time"
	// KindSetBased: a structured record whose completion derives from its sets.
	KindSetBased RecordKind = "set"
	// KindFreeText: an unstructured record (text and/or subjective levels).
	KindFreeText RecordKind = "text"
)

// EffortLevel is a subjective tag for condition/intensity/fatigue.
type EffortLevel string

const (
	LevelHigh   EffortLevel = "high"
	LevelMedium EffortLevel = "medium"
	LevelLow    EffortLevel = "low"
)

// Valid reports whether l is one of the three allowed values.
func (l EffortLevel) Valid() bool {
	return l == LevelHigh || l == LevelMedium || l == LevelLow
}

// WorkoutRecord is one workout-log entry for a user on a calendar date.
// A record is either structured (TypeID set, free text empty) or free-text
// (IsTextRecord true, TypeID nil); never both. Date is always a normalized
// "YYYY-MM-DD" string, which together with OwnerID forms the ordering
// partition for DisplayOrder.
type WorkoutRecord struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OwnerID         primitive.ObjectID  `bson:"ownerId" json:"ownerId"`
	Date            string              `bson:"date" json:"date"` // YYYY-MM-DD
	TypeID          *primitive.ObjectID `bson:"typeId,omitempty" json:"typeId,omitempty"`
	IsTextRecord    bool                `bson:"isTextRecord" json:"isTextRecord"`
	TextContent     string              `bson:"textContent,omitempty" json:"textContent,omitempty"`
	DurationMinutes *int                `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Notes           string              `bson:"notes,omitempty" json:"notes,omitempty"`
	ConditionLevel  *EffortLevel        `bson:"conditionLevel,omitempty" json:"conditionLevel,omitempty"`
	IntensityLevel  *EffortLevel        `bson:"intensityLevel,omitempty" json:"intensityLevel,omitempty"`
	FatigueLevel    *EffortLevel        `bson:"fatigueLevel,omitempty" json:"fatigueLevel,omitempty"`
	IsCompleted     bool                `bson:"isCompleted" json:"isCompleted"`
	DisplayOrder    int                 `bson:"displayOrder" json:"displayOrder"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutSet is one weight/rep entry belonging to a set-based record.
// SetNumber is unique within the owning record.
type WorkoutSet struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RecordID    primitive.ObjectID `bson:"recordId" json:"recordId"`
	SetNumber   int                `bson:"setNumber" json:"setNumber"`
	Weight      *float64           `bson:"weight,omitempty" json:"weight,omitempty"`
	Reps        *int               `bson:"reps,omitempty" json:"reps,omitempty"`
	IsCompleted bool               `bson:"isCompleted" json:"isCompleted"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RecordDetail is a record hydrated with its sets and resolved type info,
// the shape every read path returns.
type RecordDetail struct {
	Record   WorkoutRecord `json:"record"`
	Sets     []WorkoutSet  `json:"sets"`
	Kind     RecordKind    `json:"kind"`
	TypeName string        `json:"typeName,omitempty"`
}

// AllSetsCompleted reports whether the record counts as completed under
// the set-based rule: at least one set, and none incomplete. A set-based
// record with zero sets is never completed.
func (d *RecordDetail) AllSetsCompleted() bool {
	if len(d.Sets) == 0 {
		return false
	}
	for _, s := range d.Sets {
		if !s.IsCompleted {
			return false
		}
	}
	return true
}

// Completed applies the kind-specific completion rule.
func (d *RecordDetail) Completed() bool {
	if d.Kind == KindSetBased {
		return d.AllSetsCompleted()
	}
	return d.Record.IsCompleted
}

// NormalizeDate reduces an ISO date string to "YYYY-MM-DD", stripping any
// trailing time component ("2025-01-02T10:00:00Z" -> "2025-01-02").
// Returns an error for anything that does not parse as a calendar date.
func NormalizeDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return t.Format("2006-01-02"), nil
}
