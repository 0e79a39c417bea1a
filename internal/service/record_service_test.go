package service

import (
	"context"
	"sync"
	"testing"

	"github.com/albertelmo/goodlift-sub001/internal/domain"
	"github.com/albertelmo/goodlift-sub001/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store    *memory.Store
	records  RecordService
	summary  SummaryService
	owner    primitive.ObjectID
	setType  domain.WorkoutType
	timeType domain.WorkoutType
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	setType := store.SeedType(domain.WorkoutType{Name: "Strength", Kind: domain.KindSetBased})
	timeType := store.SeedType(domain.WorkoutType{Name: "Running", Kind: domain.KindTimeBased})

	catalog := NewTypeCatalog(store.Types())
	events := NewAsyncEventPublisher()
	t.Cleanup(events.Close)

	return &fixture{
		store:    store,
		records:  NewRecordService(store.Records(), store.Sets(), catalog, store, events),
		summary:  NewSummaryService(store.Records(), store.Sets(), catalog),
		owner:    primitive.NewObjectID(),
		setType:  setType,
		timeType: timeType,
	}
}

func (f *fixture) setBasedInput(date string, sets ...SetInput) CreateRecordInput {
	return CreateRecordInput{Date: date, TypeID: &f.setType.ID, Sets: sets}
}

func (f *fixture) timeBasedInput(date string) CreateRecordInput {
	return CreateRecordInput{Date: date, TypeID: &f.timeType.ID}
}

func TestCreateRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := f.setBasedInput("2025-01-01",
		SetInput{Weight: ptr(60.0), Reps: ptr(10)},
		SetInput{Weight: ptr(60.0), Reps: ptr(8), IsCompleted: ptr(true)},
	)
	input.Notes = "bench day"
	input.DurationMinutes = ptr(45)
	input.IntensityLevel = ptr(domain.LevelHigh)

	created, err := f.records.Create(ctx, f.owner, input)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Record.DisplayOrder)
	assert.Equal(t, domain.KindSetBased, created.Kind)
	assert.Equal(t, "Strength", created.TypeName)

	got, err := f.records.GetByID(ctx, f.owner, created.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", got.Record.Date)
	assert.Equal(t, "bench day", got.Record.Notes)
	assert.Equal(t, 45, *got.Record.DurationMinutes)
	assert.Equal(t, domain.LevelHigh, *got.Record.IntensityLevel)
	require.Len(t, got.Sets, 2)
	assert.Equal(t, 1, got.Sets[0].SetNumber)
	assert.Equal(t, 60.0, *got.Sets[0].Weight)
	assert.Equal(t, 10, *got.Sets[0].Reps)
	assert.False(t, got.Sets[0].IsCompleted)
	assert.Equal(t, 2, got.Sets[1].SetNumber)
	assert.True(t, got.Sets[1].IsCompleted)
}

func TestCreateAssignsSequentialOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-03-10"))
	require.NoError(t, err)
	second, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-03-10"))
	require.NoError(t, err)
	other, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-03-11"))
	require.NoError(t, err)

	assert.Equal(t, 1, first.Record.DisplayOrder)
	assert.Equal(t, 2, second.Record.DisplayOrder)
	assert.Equal(t, 1, other.Record.DisplayOrder, "each date partition counts independently")
}

func TestCreateNormalizesDateTimeComponent(t *testing.T) {
	f := newFixture(t)

	created, err := f.records.Create(context.Background(), f.owner, f.timeBasedInput("2025-01-02T10:30:00Z"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", created.Record.Date)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.records.Create(ctx, f.owner, CreateRecordInput{Date: "2025-01-01"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.records.Create(ctx, f.owner, CreateRecordInput{Date: "2025-01-01", IsTextRecord: true})
	assert.ErrorIs(t, err, ErrValidation)

	unknown := primitive.NewObjectID()
	_, err = f.records.Create(ctx, f.owner, CreateRecordInput{Date: "2025-01-01", TypeID: &unknown})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.records.Create(ctx, f.owner, CreateRecordInput{Date: "01/02/2025", TypeID: &f.timeType.ID})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateIgnoresSetsOnTimeBasedRecord(t *testing.T) {
	f := newFixture(t)

	input := f.timeBasedInput("2025-01-01")
	input.Sets = []SetInput{{Weight: ptr(50.0)}}
	created, err := f.records.Create(context.Background(), f.owner, input)
	require.NoError(t, err)
	assert.Empty(t, created.Sets)
}

func TestGetByIDForeignOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)

	stranger := primitive.NewObjectID()
	_, err = f.records.GetByID(ctx, stranger, created.Record.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestConcurrentCreatesYieldDistinctOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.records.Create(ctx, f.owner, f.timeBasedInput("2025-06-01"))
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}

	details, err := f.records.List(ctx, f.owner, "2025-06-01", "2025-06-01")
	require.NoError(t, err)
	require.Len(t, details, n)
	seen := make(map[int]bool, n)
	for _, d := range details {
		assert.False(t, seen[d.Record.DisplayOrder], "duplicate display order %d", d.Record.DisplayOrder)
		seen[d.Record.DisplayOrder] = true
	}
}

func TestListOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)
	newerA, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-02"))
	require.NoError(t, err)
	newerB, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-02"))
	require.NoError(t, err)

	details, err := f.records.List(ctx, f.owner, "", "")
	require.NoError(t, err)
	require.Len(t, details, 3)
	// Newest date first, then ascending display order within the day.
	assert.Equal(t, newerA.Record.ID, details[0].Record.ID)
	assert.Equal(t, newerB.Record.ID, details[1].Record.ID)
	assert.Equal(t, older.Record.ID, details[2].Record.ID)
}

func TestUpdatePartialFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)

	updated, err := f.records.Update(ctx, f.owner, created.Record.ID, UpdateRecordInput{
		Notes:        ptr("tempo run"),
		FatigueLevel: levelPtr(domain.LevelLow),
	})
	require.NoError(t, err)
	assert.Equal(t, "tempo run", updated.Record.Notes)
	assert.Equal(t, domain.LevelLow, *updated.Record.FatigueLevel)
	// Untouched fields survive.
	assert.Equal(t, "2025-01-01", updated.Record.Date)
	assert.Equal(t, created.Record.DisplayOrder, updated.Record.DisplayOrder)
	assert.Equal(t, f.timeType.ID, *updated.Record.TypeID)
}

func TestUpdateMergedValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)

	// Adding free text to a structured record violates exclusivity.
	_, err = f.records.Update(ctx, f.owner, created.Record.ID, UpdateRecordInput{
		TextContent: ptr("some text"),
	})
	assert.ErrorIs(t, err, ErrValidation)

	// Clearing the type without switching to a text record is invalid too.
	_, err = f.records.Update(ctx, f.owner, created.Record.ID, UpdateRecordInput{
		TypeID: ptr(primitive.NilObjectID),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateRejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)

	_, err = f.records.Update(ctx, f.owner, created.Record.ID, UpdateRecordInput{
		TypeID: ptr(primitive.NewObjectID()),
	})
	assert.ErrorIs(t, err, ErrValidation)

	// The record keeps its original type and kind.
	got, err := f.records.GetByID(ctx, f.owner, created.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, f.timeType.ID, *got.Record.TypeID)
	assert.Equal(t, domain.KindTimeBased, got.Kind)

	// Switching between known types still works.
	updated, err := f.records.Update(ctx, f.owner, created.Record.ID, UpdateRecordInput{
		TypeID: ptr(f.setType.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindSetBased, updated.Kind)
}

func TestUpdateDateMovePlacesRecordLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	moved, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)
	_, err = f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-05"))
	require.NoError(t, err)
	_, err = f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-05"))
	require.NoError(t, err)

	updated, err := f.records.Update(ctx, f.owner, moved.Record.ID, UpdateRecordInput{
		Date: ptr("2025-01-05"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", updated.Record.Date)
	assert.Equal(t, 3, updated.Record.DisplayOrder, "moved record goes to the end of the destination partition")
}

func TestUpdateSameDateKeepsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)
	second, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)

	// Same date (normalized) with no explicit order: order untouched.
	updated, err := f.records.Update(ctx, f.owner, second.Record.ID, UpdateRecordInput{
		Date: ptr("2025-01-01T22:00:00Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Record.DisplayOrder)

	// Explicit displayOrder in the payload wins even alongside a same date.
	updated, err = f.records.Update(ctx, f.owner, second.Record.ID, UpdateRecordInput{
		Date:         ptr("2025-01-01"),
		DisplayOrder: ptr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Record.DisplayOrder)
}

func TestUpdateDateMoveOverridesExplicitOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	moved, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)

	updated, err := f.records.Update(ctx, f.owner, moved.Record.ID, UpdateRecordInput{
		Date:         ptr("2025-02-01"),
		DisplayOrder: ptr(42),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Record.DisplayOrder, "a date move always re-sequences at the destination")
}

func TestUpdateReplacesSets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.records.Create(ctx, f.owner, f.setBasedInput("2025-01-01",
		SetInput{Weight: ptr(60.0), Reps: ptr(10)},
		SetInput{Weight: ptr(60.0), Reps: ptr(8)},
		SetInput{Weight: ptr(55.0), Reps: ptr(8)},
	))
	require.NoError(t, err)
	require.Len(t, created.Sets, 3)

	updated, err := f.records.Update(ctx, f.owner, created.Record.ID, UpdateRecordInput{
		Sets: ptr([]SetInput{
			{Weight: ptr(62.5), Reps: ptr(10), IsCompleted: ptr(true)},
			{Weight: ptr(62.5), Reps: ptr(8)},
		}),
	})
	require.NoError(t, err)
	require.Len(t, updated.Sets, 2, "sets are replaced wholesale")
	assert.Equal(t, 62.5, *updated.Sets[0].Weight)
	assert.True(t, updated.Sets[0].IsCompleted, "supplied isCompleted carries over")
	assert.False(t, updated.Sets[1].IsCompleted, "omitted isCompleted defaults to false")
	assert.Equal(t, 1, updated.Sets[0].SetNumber)
	assert.Equal(t, 2, updated.Sets[1].SetNumber)
}

func TestUpdateNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.records.Update(context.Background(), f.owner, primitive.NewObjectID(), UpdateRecordInput{
		Notes: ptr("x"),
	})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteCascadesSets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.records.Create(ctx, f.owner, f.setBasedInput("2025-01-01",
		SetInput{Weight: ptr(80.0), Reps: ptr(5)},
	))
	require.NoError(t, err)

	require.NoError(t, f.records.Delete(ctx, f.owner, created.Record.ID))

	_, err = f.records.GetByID(ctx, f.owner, created.Record.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	sets, err := f.store.Sets().ListByRecordID(ctx, created.Record.ID)
	require.NoError(t, err)
	assert.Empty(t, sets, "child sets are removed with the record")

	assert.ErrorIs(t, f.records.Delete(ctx, f.owner, created.Record.ID), ErrRecordNotFound)
}

func TestSetCompletionToggles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.records.Create(ctx, f.owner, f.setBasedInput("2025-01-01",
		SetInput{Weight: ptr(60.0), Reps: ptr(10)},
	))
	require.NoError(t, err)
	setID := created.Sets[0].ID

	require.NoError(t, f.records.SetSetCompleted(ctx, f.owner, created.Record.ID, setID, true))
	got, err := f.records.GetByID(ctx, f.owner, created.Record.ID)
	require.NoError(t, err)
	assert.True(t, got.Sets[0].IsCompleted)

	// Foreign owner sees NotFound, not Forbidden.
	stranger := primitive.NewObjectID()
	assert.ErrorIs(t, f.records.SetSetCompleted(ctx, stranger, created.Record.ID, setID, true), ErrRecordNotFound)

	// Set under a different record of the same owner is NotFound.
	other, err := f.records.Create(ctx, f.owner, f.setBasedInput("2025-01-02", SetInput{Weight: ptr(40.0)}))
	require.NoError(t, err)
	assert.ErrorIs(t, f.records.SetSetCompleted(ctx, f.owner, other.Record.ID, setID, true), ErrSetNotFound)
}

func TestSetRecordCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)

	require.NoError(t, f.records.SetRecordCompleted(ctx, f.owner, created.Record.ID, true))
	got, err := f.records.GetByID(ctx, f.owner, created.Record.ID)
	require.NoError(t, err)
	assert.True(t, got.Record.IsCompleted)

	assert.ErrorIs(t, f.records.SetRecordCompleted(ctx, f.owner, primitive.NewObjectID(), true), ErrRecordNotFound)
}
