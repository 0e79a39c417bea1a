package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/albertelmo/goodlift-sub001/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderAssignment maps one record to its requested display order.
type OrderAssignment struct {
	RecordID primitive.ObjectID
	Order    int
}

// OrderMismatch describes one discrepancy the reorder verification pass
// found. Persisted is nil when the record was not found in the partition.
type OrderMismatch struct {
	RecordID  primitive.ObjectID
	Requested int
	Persisted *int
}

// ReorderVerificationError reports that the persisted state after a reorder
// diverged from what was requested. The surrounding transaction has been
// rolled back; no partial reorder remains.
type ReorderVerificationError struct {
	Mismatches []OrderMismatch
}

func (e *ReorderVerificationError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		if m.Persisted == nil {
			parts = append(parts, fmt.Sprintf("%s: wanted %d, record not found", m.RecordID.Hex(), m.Requested))
		} else {
			parts = append(parts, fmt.Sprintf("%s: wanted %d, persisted %d", m.RecordID.Hex(), m.Requested, *m.Persisted))
		}
	}
	return fmt.Sprintf("reorder verification failed: %s", strings.Join(parts, "; "))
}

// orderSequencer owns display-order assignment within one (owner, date)
// partition. Every method must be called with a transaction context; the
// read-max-then-write pattern is only safe inside one transaction.
type orderSequencer struct {
	recordRepo repository.WorkoutRecordRepository
}

// nextOrder returns max(displayOrder)+1 for the partition, 1 when empty.
func (s *orderSequencer) nextOrder(ctx context.Context, ownerID primitive.ObjectID, date string) (int, error) {
	max, err := s.recordRepo.MaxDisplayOrder(ctx, ownerID, date)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// reorder applies every assignment to the partition and verifies the
// persisted state matches the request exactly. Orders are first parked on
// temporary negative values so swaps never collide with the unique
// (owner, date, displayOrder) index mid-flight.
func (s *orderSequencer) reorder(ctx context.Context, ownerID primitive.ObjectID, date string, assignments []OrderAssignment) error {
	var matched int64
	for i, a := range assignments {
		n, err := s.recordRepo.UpdateDisplayOrder(ctx, a.RecordID, ownerID, date, -(i + 1))
		if err != nil {
			return err
		}
		matched += n
	}
	for _, a := range assignments {
		if _, err := s.recordRepo.UpdateDisplayOrder(ctx, a.RecordID, ownerID, date, a.Order); err != nil {
			return err
		}
	}

	// Verification pass: re-read inside the same transaction and demand an
	// exact match of both row count and every (id -> order) pair.
	ids := make([]primitive.ObjectID, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.RecordID)
	}
	rows, err := s.recordRepo.GetByIDsForDate(ctx, ownerID, date, ids)
	if err != nil {
		return err
	}
	persisted := make(map[primitive.ObjectID]int, len(rows))
	for _, row := range rows {
		persisted[row.ID] = row.DisplayOrder
	}

	var mismatches []OrderMismatch
	for _, a := range assignments {
		order, ok := persisted[a.RecordID]
		if !ok {
			mismatches = append(mismatches, OrderMismatch{RecordID: a.RecordID, Requested: a.Order})
			continue
		}
		if order != a.Order {
			o := order
			mismatches = append(mismatches, OrderMismatch{RecordID: a.RecordID, Requested: a.Order, Persisted: &o})
		}
	}
	if len(mismatches) > 0 || matched != int64(len(assignments)) || len(rows) != len(assignments) {
		return &ReorderVerificationError{Mismatches: mismatches}
	}
	return nil
}
