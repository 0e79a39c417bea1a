package repository

import (
	"context"

	"github.com/albertelmo/goodlift-sub001/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// RecordUpdate is a typed partial update for a workout record. Each non-nil
// field is applied; nil fields are left untouched. Clearing conventions:
// TypeID set to the nil ObjectID clears the type, a level set to "" clears
// that level, TextContent set to "" clears the text.
type RecordUpdate struct {
	Date            *string
	TypeID          *primitive.ObjectID
	IsTextRecord    *bool
	TextContent     *string
	DurationMinutes *int
	Notes           *string
	ConditionLevel  *domain.EffortLevel
	IntensityLevel  *domain.EffortLevel
	FatigueLevel    *domain.EffortLevel
	IsCompleted     *bool
	DisplayOrder    *int
}

// WorkoutRecordRepository defines the interface for workout record rows.
// Every method that takes an ownerID filters on it, so a record belonging
// to another owner behaves exactly like a missing record.
type WorkoutRecordRepository interface {
	Insert(ctx context.Context, record *domain.WorkoutRecord) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id, ownerID primitive.ObjectID) (*domain.WorkoutRecord, error)
	// ListByDateRange returns records ordered by date DESC, displayOrder ASC,
	// createdAt ASC. Empty startDate/endDate leave that bound open.
	ListByDateRange(ctx context.Context, ownerID primitive.ObjectID, startDate, endDate string) ([]domain.WorkoutRecord, error)
	// MaxDisplayOrder returns the highest displayOrder in the (owner, date)
	// partition, or 0 when the partition is empty.
	MaxDisplayOrder(ctx context.Context, ownerID primitive.ObjectID, date string) (int, error)
	ApplyUpdate(ctx context.Context, id, ownerID primitive.ObjectID, upd *RecordUpdate) error
	// UpdateDisplayOrder sets the order of one record matched by
	// (id, ownerID, date) and reports how many rows matched.
	UpdateDisplayOrder(ctx context.Context, id, ownerID primitive.ObjectID, date string, order int) (int64, error)
	// GetByIDsForDate fetches the given ids constrained to one partition;
	// used by the reorder verification pass.
	GetByIDsForDate(ctx context.Context, ownerID primitive.ObjectID, date string, ids []primitive.ObjectID) ([]domain.WorkoutRecord, error)
	Delete(ctx context.Context, id, ownerID primitive.ObjectID) error
	SetCompleted(ctx context.Context, id, ownerID primitive.ObjectID, completed bool) error
}

// WorkoutSetRepository defines the interface for set rows owned by records.
type WorkoutSetRepository interface {
	InsertMany(ctx context.Context, sets []domain.WorkoutSet) ([]domain.WorkoutSet, error)
	ListByRecordID(ctx context.Context, recordID primitive.ObjectID) ([]domain.WorkoutSet, error)
	// ListByRecordIDs batches the set lookup for a page of records into one
	// query, keyed by record id.
	ListByRecordIDs(ctx context.Context, recordIDs []primitive.ObjectID) (map[primitive.ObjectID][]domain.WorkoutSet, error)
	DeleteByRecordID(ctx context.Context, recordID primitive.ObjectID) error
	SetCompleted(ctx context.Context, setID, recordID primitive.ObjectID, completed bool) error
}

// WorkoutTypeRepository reads the workout type catalog. The catalog is
// owned by another subsystem; this core never writes it.
type WorkoutTypeRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutType, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.WorkoutType, error)
	List(ctx context.Context) ([]domain.WorkoutType, error)
}

// TxRunner executes fn inside one storage transaction. Repository calls
// made with the context passed to fn join that transaction; fn returning
// an error rolls the whole transaction back.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
