package mongo

import (
	"context"
	"errors"

	"github.com/albertelmo/goodlift-sub001/internal/domain"
	"github.com/albertelmo/goodlift-sub001/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutTypeCollectionName = "workout_types"

// mongoWorkoutTypeRepository implements repository.WorkoutTypeRepository.
// The catalog is maintained by the back-office; this repository is read-only.
type mongoWorkoutTypeRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutTypeRepository creates a new workout type repository.
func NewMongoWorkoutTypeRepository(db *mongo.Database) repository.WorkoutTypeRepository {
	return &mongoWorkoutTypeRepository{
		collection: db.Collection(workoutTypeCollectionName),
	}
}

// GetByID resolves a single catalog entry.
func (r *mongoWorkoutTypeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutType, error) {
	var wt domain.WorkoutType
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&wt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &wt, nil
}

// GetByIDs resolves a batch of catalog entries in one query, keyed by id.
// Unknown ids are simply absent from the result map.
func (r *mongoWorkoutTypeRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.WorkoutType, error) {
	resolved := make(map[primitive.ObjectID]domain.WorkoutType, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var types []domain.WorkoutType
	if err = cursor.All(ctx, &types); err != nil {
		return nil, err
	}
	for _, wt := range types {
		resolved[wt.ID] = wt
	}
	return resolved, nil
}

// List returns the whole catalog ordered by name.
func (r *mongoWorkoutTypeRepository) List(ctx context.Context) ([]domain.WorkoutType, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var types []domain.WorkoutType
	if err = cursor.All(ctx, &types); err != nil {
		return nil, err
	}
	if types == nil {
		types = []domain.WorkoutType{}
	}
	return types, nil
}
