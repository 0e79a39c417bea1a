package service

import (
	"context"
	"errors"

	"github.com/albertelmo/goodlift-sub001/internal/domain"
	"github.com/albertelmo/goodlift-sub001/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTypeNotFound = errors.New("workout type not found")
)

// TypeCatalog resolves workout type ids to their name and kind. The catalog
// itself is maintained by the back-office; this core only reads it.
type TypeCatalog interface {
	ResolveType(ctx context.Context, typeID primitive.ObjectID) (*domain.WorkoutType, error)
	ResolveTypes(ctx context.Context, typeIDs []primitive.ObjectID) (map[primitive.ObjectID]domain.WorkoutType, error)
	ListTypes(ctx context.Context) ([]domain.WorkoutType, error)
}

type typeCatalog struct {
	typeRepo repository.WorkoutTypeRepository
}

// NewTypeCatalog creates a catalog facade over the type repository.
func NewTypeCatalog(typeRepo repository.WorkoutTypeRepository) TypeCatalog {
	return &typeCatalog{typeRepo: typeRepo}
}

func (c *typeCatalog) ResolveType(ctx context.Context, typeID primitive.ObjectID) (*domain.WorkoutType, error) {
	wt, err := c.typeRepo.GetByID(ctx, typeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTypeNotFound
		}
		return nil, err
	}
	return wt, nil
}

func (c *typeCatalog) ResolveTypes(ctx context.Context, typeIDs []primitive.ObjectID) (map[primitive.ObjectID]domain.WorkoutType, error) {
	return c.typeRepo.GetByIDs(ctx, typeIDs)
}

func (c *typeCatalog) ListTypes(ctx context.Context) ([]domain.WorkoutType, error) {
	return c.typeRepo.List(ctx)
}
