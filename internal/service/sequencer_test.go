package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestReorderAppliesAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)
	b, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)
	c, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)

	// Full rotation, including a swap of the first two.
	err = f.records.Reorder(ctx, f.owner, "2025-01-01", []OrderAssignment{
		{RecordID: a.Record.ID, Order: 2},
		{RecordID: b.Record.ID, Order: 1},
		{RecordID: c.Record.ID, Order: 3},
	})
	require.NoError(t, err)

	details, err := f.records.List(ctx, f.owner, "2025-01-01", "2025-01-01")
	require.NoError(t, err)
	require.Len(t, details, 3)
	assert.Equal(t, b.Record.ID, details[0].Record.ID)
	assert.Equal(t, a.Record.ID, details[1].Record.ID)
	assert.Equal(t, c.Record.ID, details[2].Record.ID)
}

func TestReorderIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)
	b, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)

	missing := primitive.NewObjectID()
	err = f.records.Reorder(ctx, f.owner, "2025-01-01", []OrderAssignment{
		{RecordID: a.Record.ID, Order: 2},
		{RecordID: b.Record.ID, Order: 3},
		{RecordID: missing, Order: 1},
	})
	require.Error(t, err)

	var verr *ReorderVerificationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Mismatches, 1)
	assert.Equal(t, missing, verr.Mismatches[0].RecordID)
	assert.Equal(t, 1, verr.Mismatches[0].Requested)
	assert.Nil(t, verr.Mismatches[0].Persisted)

	// Every surviving record kept its pre-call order.
	gotA, err := f.records.GetByID(ctx, f.owner, a.Record.ID)
	require.NoError(t, err)
	gotB, err := f.records.GetByID(ctx, f.owner, b.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotA.Record.DisplayOrder)
	assert.Equal(t, 2, gotB.Record.DisplayOrder)
}

func TestReorderRecordOnOtherDateIsAMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-01"))
	require.NoError(t, err)
	elsewhere, err := f.records.Create(ctx, f.owner, f.timeBasedInput("2025-01-02"))
	require.NoError(t, err)

	// A record that moved to another date no longer matches its partition.
	err = f.records.Reorder(ctx, f.owner, "2025-01-01", []OrderAssignment{
		{RecordID: a.Record.ID, Order: 1},
		{RecordID: elsewhere.Record.ID, Order: 2},
	})
	var verr *ReorderVerificationError
	require.ErrorAs(t, err, &verr)

	got, err := f.records.GetByID(ctx, f.owner, elsewhere.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", got.Record.Date)
	assert.Equal(t, 1, got.Record.DisplayOrder)
}

func TestReorderInputValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := primitive.NewObjectID()

	err := f.records.Reorder(ctx, f.owner, "2025-01-01", nil)
	assert.ErrorIs(t, err, ErrValidation)

	err = f.records.Reorder(ctx, f.owner, "2025-01-01", []OrderAssignment{{RecordID: id, Order: 0}})
	assert.ErrorIs(t, err, ErrValidation)

	err = f.records.Reorder(ctx, f.owner, "2025-01-01", []OrderAssignment{
		{RecordID: id, Order: 1},
		{RecordID: id, Order: 2},
	})
	assert.ErrorIs(t, err, ErrValidation)

	err = f.records.Reorder(ctx, f.owner, "2025-01-01", []OrderAssignment{
		{RecordID: id, Order: 1},
		{RecordID: primitive.NewObjectID(), Order: 1},
	})
	assert.ErrorIs(t, err, ErrValidation)

	err = f.records.Reorder(ctx, f.owner, "bogus", []OrderAssignment{{RecordID: id, Order: 1}})
	assert.ErrorIs(t, err, ErrValidation)
}
