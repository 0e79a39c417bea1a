package service

import (
	"context"

	"github.com/albertelmo/goodlift-sub001/internal/domain"
	"github.com/albertelmo/goodlift-sub001/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayStatus is the per-day completion summary the calendar renders from.
type DayStatus struct {
	HasWorkout   bool `json:"hasWorkout"`
	AllCompleted bool `json:"allCompleted"`
}

// SummaryService derives day-level completion from record- and set-level
// state. It only ever reads.
type SummaryService interface {
	// CalendarSummary returns a status per date that has at least one
	// record; dates without records are absent from the map.
	CalendarSummary(ctx context.Context, ownerID primitive.ObjectID, startDate, endDate string) (map[string]DayStatus, error)
	DailyStatus(ctx context.Context, ownerID primitive.ObjectID, date string) (DayStatus, error)
}

type summaryService struct {
	recordRepo repository.WorkoutRecordRepository
	setRepo    repository.WorkoutSetRepository
	catalog    TypeCatalog
}

// NewSummaryService creates a new instance of summaryService.
func NewSummaryService(
	recordRepo repository.WorkoutRecordRepository,
	setRepo repository.WorkoutSetRepository,
	catalog TypeCatalog,
) SummaryService {
	return &summaryService{
		recordRepo: recordRepo,
		setRepo:    setRepo,
		catalog:    catalog,
	}
}

// CalendarSummary folds the range in memory from three batched reads: all
// records in range, the sets of every set-based record, and the referenced
// types. A day is allCompleted only when every one of its records is
// completed under its kind's rule; a set-based record with zero sets is
// never completed (vacuous truth rejected).
func (s *summaryService) CalendarSummary(ctx context.Context, ownerID primitive.ObjectID, startDate, endDate string) (map[string]DayStatus, error) {
	start, end, err := normalizeRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	records, err := s.recordRepo.ListByDateRange(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	summary := make(map[string]DayStatus)
	if len(records) == 0 {
		return summary, nil
	}

	typeIDSet := make(map[primitive.ObjectID]bool)
	for _, r := range records {
		if r.TypeID != nil && *r.TypeID != primitive.NilObjectID {
			typeIDSet[*r.TypeID] = true
		}
	}
	typeIDs := make([]primitive.ObjectID, 0, len(typeIDSet))
	for id := range typeIDSet {
		typeIDs = append(typeIDs, id)
	}
	types, err := s.catalog.ResolveTypes(ctx, typeIDs)
	if err != nil {
		return nil, err
	}

	kindOf := func(r *domain.WorkoutRecord) domain.RecordKind {
		if r.IsTextRecord || r.TypeID == nil {
			return domain.KindFreeText
		}
		if wt, ok := types[*r.TypeID]; ok {
			return wt.Kind
		}
		return domain.KindFreeText
	}

	setBasedIDs := make([]primitive.ObjectID, 0, len(records))
	for i := range records {
		if kindOf(&records[i]) == domain.KindSetBased {
			setBasedIDs = append(setBasedIDs, records[i].ID)
		}
	}
	setsByRecord, err := s.setRepo.ListByRecordIDs(ctx, setBasedIDs)
	if err != nil {
		return nil, err
	}

	for i := range records {
		record := records[i]
		completed := record.IsCompleted
		if kindOf(&record) == domain.KindSetBased {
			completed = allSetsCompleted(setsByRecord[record.ID])
		}
		day, seen := summary[record.Date]
		if !seen {
			day = DayStatus{HasWorkout: true, AllCompleted: true}
		}
		day.AllCompleted = day.AllCompleted && completed
		summary[record.Date] = day
	}
	return summary, nil
}

// DailyStatus is the single-date form; a date with no records reports
// {hasWorkout: false, allCompleted: false}.
func (s *summaryService) DailyStatus(ctx context.Context, ownerID primitive.ObjectID, date string) (DayStatus, error) {
	normalized, err := normalizeDate(date)
	if err != nil {
		return DayStatus{}, err
	}
	summary, err := s.CalendarSummary(ctx, ownerID, normalized, normalized)
	if err != nil {
		return DayStatus{}, err
	}
	return summary[normalized], nil
}

func allSetsCompleted(sets []domain.WorkoutSet) bool {
	if len(sets) == 0 {
		return false
	}
	for _, s := range sets {
		if !s.IsCompleted {
			return false
		}
	}
	return true
}
