package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/albertelmo/goodlift-sub001/internal/domain"
	"github.com/albertelmo/goodlift-sub001/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const recordCollectionName = "workout_records"

// mongoRecordRepository implements repository.WorkoutRecordRepository
type mongoRecordRepository struct {
	collection *mongo.Collection
}

// NewMongoRecordRepository creates a new workout record repository.
func NewMongoRecordRepository(db *mongo.Database) repository.WorkoutRecordRepository {
	return &mongoRecordRepository{
		collection: db.Collection(recordCollectionName),
	}
}

// Insert inserts a new record row. The caller is responsible for having
// computed DisplayOrder inside the surrounding transaction.
func (r *mongoRecordRepository) Insert(ctx context.Context, record *domain.WorkoutRecord) (primitive.ObjectID, error) {
	if record.OwnerID == primitive.NilObjectID || record.Date == "" {
		return primitive.NilObjectID, errors.New("record requires ownerId and date")
	}
	record.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted record ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single record scoped to its owner. A record owned by
// someone else is indistinguishable from a missing one.
func (r *mongoRecordRepository) GetByID(ctx context.Context, id, ownerID primitive.ObjectID) (*domain.WorkoutRecord, error) {
	var record domain.WorkoutRecord
	filter := bson.M{"_id": id, "ownerId": ownerID}
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByDateRange retrieves all records for an owner within the inclusive
// date bounds, newest date first, then by display order, then creation.
func (r *mongoRecordRepository) ListByDateRange(ctx context.Context, ownerID primitive.ObjectID, startDate, endDate string) ([]domain.WorkoutRecord, error) {
	filter := bson.M{"ownerId": ownerID}
	dateFilter := bson.M{}
	if startDate != "" {
		dateFilter["$gte"] = startDate
	}
	if endDate != "" {
		dateFilter["$lte"] = endDate
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}
	findOptions := options.Find().SetSort(bson.D{
		{Key: "date", Value: -1},
		{Key: "displayOrder", Value: 1},
		{Key: "createdAt", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.WorkoutRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.WorkoutRecord{}
	}
	return records, nil
}

// MaxDisplayOrder returns the highest displayOrder within one (owner, date)
// partition, or 0 when the partition is empty. Must be called with a
// transaction context when the result seeds an insert.
func (r *mongoRecordRepository) MaxDisplayOrder(ctx context.Context, ownerID primitive.ObjectID, date string) (int, error) {
	filter := bson.M{"ownerId": ownerID, "date": date}
	findOptions := options.FindOne().
		SetSort(bson.D{{Key: "displayOrder", Value: -1}}).
		SetProjection(bson.M{"displayOrder": 1})

	var row struct {
		DisplayOrder int `bson:"displayOrder"`
	}
	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return row.DisplayOrder, nil
}

// ApplyUpdate applies a partial update. Only non-nil fields are touched;
// empty-string text/levels and the nil-ObjectID type translate to unsets so
// omitempty fields disappear rather than persist as zero values.
func (r *mongoRecordRepository) ApplyUpdate(ctx context.Context, id, ownerID primitive.ObjectID, upd *repository.RecordUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	unset := bson.M{}

	if upd.Date != nil {
		set["date"] = *upd.Date
	}
	if upd.TypeID != nil {
		if *upd.TypeID == primitive.NilObjectID {
			unset["typeId"] = ""
		} else {
			set["typeId"] = *upd.TypeID
		}
	}
	if upd.IsTextRecord != nil {
		set["isTextRecord"] = *upd.IsTextRecord
	}
	if upd.TextContent != nil {
		if *upd.TextContent == "" {
			unset["textContent"] = ""
		} else {
			set["textContent"] = *upd.TextContent
		}
	}
	if upd.DurationMinutes != nil {
		set["durationMinutes"] = *upd.DurationMinutes
	}
	if upd.Notes != nil {
		if *upd.Notes == "" {
			unset["notes"] = ""
		} else {
			set["notes"] = *upd.Notes
		}
	}
	applyLevel := func(key string, level *domain.EffortLevel) {
		if level == nil {
			return
		}
		if *level == "" {
			unset[key] = ""
		} else {
			set[key] = *level
		}
	}
	applyLevel("conditionLevel", upd.ConditionLevel)
	applyLevel("intensityLevel", upd.IntensityLevel)
	applyLevel("fatigueLevel", upd.FatigueLevel)
	if upd.IsCompleted != nil {
		set["isCompleted"] = *upd.IsCompleted
	}
	if upd.DisplayOrder != nil {
		set["displayOrder"] = *upd.DisplayOrder
	}

	updateDoc := bson.M{"$set": set}
	if len(unset) > 0 {
		updateDoc["$unset"] = unset
	}

	filter := bson.M{"_id": id, "ownerId": ownerID}
	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateKey
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateDisplayOrder sets one record's displayOrder, matching the record by
// id, owner AND date so a concurrently-moved record no longer matches. The
// matched count is returned for the caller's verification pass.
func (r *mongoRecordRepository) UpdateDisplayOrder(ctx context.Context, id, ownerID primitive.ObjectID, date string, order int) (int64, error) {
	filter := bson.M{"_id": id, "ownerId": ownerID, "date": date}
	updateDoc := bson.M{"$set": bson.M{
		"displayOrder": order,
		"updatedAt":    time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, repository.ErrDuplicateKey
		}
		return 0, err
	}
	return result.MatchedCount, nil
}

// GetByIDsForDate fetches the given records constrained to one partition.
func (r *mongoRecordRepository) GetByIDsForDate(ctx context.Context, ownerID primitive.ObjectID, date string, ids []primitive.ObjectID) ([]domain.WorkoutRecord, error) {
	filter := bson.M{
		"_id":     bson.M{"$in": ids},
		"ownerId": ownerID,
		"date":    date,
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.WorkoutRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes one record scoped to its owner. Child sets are removed by
// the service inside the same transaction.
func (r *mongoRecordRepository) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "ownerId": ownerID}
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetCompleted toggles only the isCompleted flag.
func (r *mongoRecordRepository) SetCompleted(ctx context.Context, id, ownerID primitive.ObjectID, completed bool) error {
	filter := bson.M{"_id": id, "ownerId": ownerID}
	updateDoc := bson.M{"$set": bson.M{
		"isCompleted": completed,
		"updatedAt":   time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureRecordIndexes creates necessary indexes. Call during startup.
// The unique (ownerId, date, displayOrder) index is the storage-level
// backstop for order uniqueness within a partition.
func EnsureRecordIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "ownerId", Value: 1},
				{Key: "date", Value: 1},
				{Key: "displayOrder", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			// Range scans for list/calendar queries.
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Without the unique index, concurrent writers can race to the same
		// display order, so a failure here must not pass silently.
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
