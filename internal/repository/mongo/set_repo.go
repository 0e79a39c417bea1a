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

const setCollectionName = "workout_sets"

// mongoSetRepository implements repository.WorkoutSetRepository
type mongoSetRepository struct {
	collection *mongo.Collection
}

// NewMongoSetRepository creates a new workout set repository.
func NewMongoSetRepository(db *mongo.Database) repository.WorkoutSetRepository {
	return &mongoSetRepository{
		collection: db.Collection(setCollectionName),
	}
}

// InsertMany inserts all given set rows and returns them with ids and
// timestamps filled in. Callers replace a record's sets wholesale, so this
// always runs after DeleteByRecordID in the same transaction.
func (r *mongoSetRepository) InsertMany(ctx context.Context, sets []domain.WorkoutSet) ([]domain.WorkoutSet, error) {
	if len(sets) == 0 {
		return []domain.WorkoutSet{}, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(sets))
	for i := range sets {
		if sets[i].RecordID == primitive.NilObjectID {
			return nil, errors.New("set requires recordId")
		}
		sets[i].ID = primitive.NewObjectID()
		sets[i].CreatedAt = now
		sets[i].UpdatedAt = now
		docs = append(docs, sets[i])
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicateKey
		}
		return nil, err
	}
	return sets, nil
}

// ListByRecordID retrieves all sets of one record ordered by set number.
func (r *mongoSetRepository) ListByRecordID(ctx context.Context, recordID primitive.ObjectID) ([]domain.WorkoutSet, error) {
	filter := bson.M{"recordId": recordID}
	findOptions := options.Find().SetSort(bson.D{{Key: "setNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sets []domain.WorkoutSet
	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []domain.WorkoutSet{}
	}
	return sets, nil
}

// ListByRecordIDs fetches the sets of a whole page of records in one query
// and groups them by owning record, ordered by set number within each group.
func (r *mongoSetRepository) ListByRecordIDs(ctx context.Context, recordIDs []primitive.ObjectID) (map[primitive.ObjectID][]domain.WorkoutSet, error) {
	grouped := make(map[primitive.ObjectID][]domain.WorkoutSet, len(recordIDs))
	if len(recordIDs) == 0 {
		return grouped, nil
	}
	filter := bson.M{"recordId": bson.M{"$in": recordIDs}}
	findOptions := options.Find().SetSort(bson.D{
		{Key: "recordId", Value: 1},
		{Key: "setNumber", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sets []domain.WorkoutSet
	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	for _, s := range sets {
		grouped[s.RecordID] = append(grouped[s.RecordID], s)
	}
	return grouped, nil
}

// DeleteByRecordID removes every set belonging to a record. Deleting zero
// rows is fine (record had no sets).
func (r *mongoSetRepository) DeleteByRecordID(ctx context.Context, recordID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"recordId": recordID})
	return err
}

// SetCompleted toggles one set's isCompleted. The filter includes the
// record id so a set under a different record is simply not found; the
// service has already verified the record belongs to the caller.
func (r *mongoSetRepository) SetCompleted(ctx context.Context, setID, recordID primitive.ObjectID, completed bool) error {
	filter := bson.M{"_id": setID, "recordId": recordID}
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

// EnsureSetIndexes creates necessary indexes. Call during startup.
func EnsureSetIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "recordId", Value: 1},
				{Key: "setNumber", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
