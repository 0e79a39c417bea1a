package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/albertelmo/goodlift-sub001/internal/domain"
	"github.com/albertelmo/goodlift-sub001/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrRecordNotFound = errors.New("workout record not found")
	ErrSetNotFound    = errors.New("workout set not found")
)

// SetInput is one incoming set row. IsCompleted defaults to false when the
// caller omits it; set numbers are assigned positionally.
type SetInput struct {
	Weight      *float64
	Reps        *int
	IsCompleted *bool
}

// CreateRecordInput carries everything a caller may supply on create.
// DisplayOrder is always server-assigned.
type CreateRecordInput struct {
	Date            string
	TypeID          *primitive.ObjectID
	IsTextRecord    bool
	TextContent     string
	DurationMinutes *int
	Notes           string
	ConditionLevel  *domain.EffortLevel
	IntensityLevel  *domain.EffortLevel
	FatigueLevel    *domain.EffortLevel
	IsCompleted     bool
	Sets            []SetInput
}

// UpdateRecordInput is a partial update; nil fields are left untouched.
// TypeID set to the nil ObjectID clears the type, a level set to "" clears
// that level, Sets non-nil replaces the record's sets wholesale.
type UpdateRecordInput struct {
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
	Sets            *[]SetInput
}

// --- Service Interface ---

// RecordService is the workout record store: creation (single and batch),
// reads hydrated with sets and type info, partial updates, deletion,
// completion toggles and partition reordering.
type RecordService interface {
	Create(ctx context.Context, ownerID primitive.ObjectID, input CreateRecordInput) (*domain.RecordDetail, error)
	CreateMany(ctx context.Context, ownerID primitive.ObjectID, inputs []CreateRecordInput) ([]domain.RecordDetail, error)
	GetByID(ctx context.Context, ownerID, recordID primitive.ObjectID) (*domain.RecordDetail, error)
	List(ctx context.Context, ownerID primitive.ObjectID, startDate, endDate string) ([]domain.RecordDetail, error)
	Update(ctx context.Context, ownerID, recordID primitive.ObjectID, input UpdateRecordInput) (*domain.RecordDetail, error)
	Delete(ctx context.Context, ownerID, recordID primitive.ObjectID) error
	SetRecordCompleted(ctx context.Context, ownerID, recordID primitive.ObjectID, completed bool) error
	SetSetCompleted(ctx context.Context, ownerID, recordID, setID primitive.ObjectID, completed bool) error
	Reorder(ctx context.Context, ownerID primitive.ObjectID, date string, assignments []OrderAssignment) error
}

// --- Service Implementation ---

type recordService struct {
	recordRepo repository.WorkoutRecordRepository
	setRepo    repository.WorkoutSetRepository
	catalog    TypeCatalog
	tx         repository.TxRunner
	sequencer  orderSequencer
	events     EventPublisher
}

// NewRecordService creates a new instance of recordService.
func NewRecordService(
	recordRepo repository.WorkoutRecordRepository,
	setRepo repository.WorkoutSetRepository,
	catalog TypeCatalog,
	tx repository.TxRunner,
	events EventPublisher,
) RecordService {
	return &recordService{
		recordRepo: recordRepo,
		setRepo:    setRepo,
		catalog:    catalog,
		tx:         tx,
		sequencer:  orderSequencer{recordRepo: recordRepo},
		events:     events,
	}
}

// Create validates the input, assigns the next display order for the
// (owner, date) partition inside one transaction, inserts the record and
// its sets, and returns the hydrated result.
func (s *recordService) Create(ctx context.Context, ownerID primitive.ObjectID, input CreateRecordInput) (*domain.RecordDetail, error) {
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID is required")
	}
	record, wt, err := s.buildRecord(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}

	var detail *domain.RecordDetail
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		order, err := s.sequencer.nextOrder(txCtx, ownerID, record.Date)
		if err != nil {
			return err
		}
		record.DisplayOrder = order
		if _, err := s.recordRepo.Insert(txCtx, record); err != nil {
			return err
		}
		sets, err := s.insertSets(txCtx, record, wt, input.Sets)
		if err != nil {
			return err
		}
		detail = hydrate(record, sets, wt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(newRecordEvent(ownerID, record.ID, domain.ActionCreate, record.Date))
	return detail, nil
}

// CreateMany creates a whole batch atomically. Records are grouped by date
// and each group's order counter is seeded once from the partition maximum,
// then advanced in input order. The first validation failure aborts the
// entire batch.
func (s *recordService) CreateMany(ctx context.Context, ownerID primitive.ObjectID, inputs []CreateRecordInput) ([]domain.RecordDetail, error) {
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID is required")
	}
	if len(inputs) == 0 {
		return []domain.RecordDetail{}, nil
	}

	var details []domain.RecordDetail
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		details = details[:0]
		counters := make(map[string]int)
		for _, input := range inputs {
			record, wt, err := s.buildRecord(txCtx, ownerID, input)
			if err != nil {
				return err
			}
			next, ok := counters[record.Date]
			if !ok {
				max, err := s.recordRepo.MaxDisplayOrder(txCtx, ownerID, record.Date)
				if err != nil {
					return err
				}
				next = max
			}
			next++
			counters[record.Date] = next
			record.DisplayOrder = next

			if _, err := s.recordRepo.Insert(txCtx, record); err != nil {
				return err
			}
			sets, err := s.insertSets(txCtx, record, wt, input.Sets)
			if err != nil {
				return err
			}
			details = append(details, *hydrate(record, sets, wt))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, d := range details {
		s.events.Publish(newRecordEvent(ownerID, d.Record.ID, domain.ActionCreate, d.Record.Date))
	}
	return details, nil
}

// GetByID returns one hydrated record. A record belonging to another owner
// is indistinguishable from a missing one.
func (s *recordService) GetByID(ctx context.Context, ownerID, recordID primitive.ObjectID) (*domain.RecordDetail, error) {
	record, err := s.recordRepo.GetByID(ctx, recordID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return s.hydrateOne(ctx, record)
}

// List returns all records in the inclusive date range, newest date first,
// hydrated with one batched set query and one batched type query.
func (s *recordService) List(ctx context.Context, ownerID primitive.ObjectID, startDate, endDate string) ([]domain.RecordDetail, error) {
	start, end, err := normalizeRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	records, err := s.recordRepo.ListByDateRange(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	return s.hydrateMany(ctx, records)
}

// Update applies the supplied fields and returns the re-read record.
// A changed date moves the record to the end of the destination partition;
// a same-date update leaves the order alone unless the caller explicitly
// supplied displayOrder. A sets payload replaces the children wholesale.
func (s *recordService) Update(ctx context.Context, ownerID, recordID primitive.ObjectID, input UpdateRecordInput) (*domain.RecordDetail, error) {
	var normalizedDate *string
	if input.Date != nil {
		d, err := normalizeDate(*input.Date)
		if err != nil {
			return nil, err
		}
		normalizedDate = &d
	}

	var detail *domain.RecordDetail
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.recordRepo.GetByID(txCtx, recordID, ownerID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		merged := s.mergedView(existing, input)
		if err := validateRecordView(merged); err != nil {
			return err
		}
		// A newly supplied type must exist, same as on create; otherwise
		// reads would misreport the record's kind from then on.
		if input.TypeID != nil && *input.TypeID != primitive.NilObjectID {
			if _, err := s.catalog.ResolveType(txCtx, *input.TypeID); err != nil {
				if errors.Is(err, ErrTypeNotFound) {
					return fmt.Errorf("%w: unknown workout type", ErrValidation)
				}
				return err
			}
		}

		upd := &repository.RecordUpdate{
			TypeID:          input.TypeID,
			IsTextRecord:    input.IsTextRecord,
			TextContent:     input.TextContent,
			DurationMinutes: input.DurationMinutes,
			Notes:           input.Notes,
			ConditionLevel:  input.ConditionLevel,
			IntensityLevel:  input.IntensityLevel,
			FatigueLevel:    input.FatigueLevel,
			IsCompleted:     input.IsCompleted,
			DisplayOrder:    input.DisplayOrder,
		}
		if normalizedDate != nil {
			if *normalizedDate != existing.Date {
				// Date move: the record goes to the end of the destination
				// partition, overriding any caller-supplied order.
				order, err := s.sequencer.nextOrder(txCtx, ownerID, *normalizedDate)
				if err != nil {
					return err
				}
				upd.Date = normalizedDate
				upd.DisplayOrder = &order
			}
			// Same normalized date: not a move; the explicit DisplayOrder
			// above still applies when the caller sent one.
		}

		if err := s.recordRepo.ApplyUpdate(txCtx, recordID, ownerID, upd); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		if input.Sets != nil {
			if err := s.setRepo.DeleteByRecordID(txCtx, recordID); err != nil {
				return err
			}
			if _, err := s.insertSetRows(txCtx, recordID, *input.Sets); err != nil {
				return err
			}
		}

		updated, err := s.recordRepo.GetByID(txCtx, recordID, ownerID)
		if err != nil {
			return err
		}
		detail, err = s.hydrateOne(txCtx, updated)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(newRecordEvent(ownerID, recordID, domain.ActionUpdate, detail.Record.Date))
	return detail, nil
}

// Delete removes the record and its sets in one transaction.
func (s *recordService) Delete(ctx context.Context, ownerID, recordID primitive.ObjectID) error {
	var date string
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.recordRepo.GetByID(txCtx, recordID, ownerID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRecordNotFound
			}
			return err
		}
		date = existing.Date
		if err := s.recordRepo.Delete(txCtx, recordID, ownerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRecordNotFound
			}
			return err
		}
		return s.setRepo.DeleteByRecordID(txCtx, recordID)
	})
	if err != nil {
		return err
	}

	s.events.Publish(newRecordEvent(ownerID, recordID, domain.ActionDelete, date))
	return nil
}

// SetRecordCompleted toggles only the record-level completion flag.
func (s *recordService) SetRecordCompleted(ctx context.Context, ownerID, recordID primitive.ObjectID, completed bool) error {
	if err := s.recordRepo.SetCompleted(ctx, recordID, ownerID, completed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	record, err := s.recordRepo.GetByID(ctx, recordID, ownerID)
	if err == nil {
		s.events.Publish(newRecordEvent(ownerID, recordID, domain.ActionUpdate, record.Date))
	}
	return nil
}

// SetSetCompleted toggles one set's completion. The parent record is
// checked for ownership first; a mismatch is NotFound, never Forbidden, so
// foreign records do not leak their existence.
func (s *recordService) SetSetCompleted(ctx context.Context, ownerID, recordID, setID primitive.ObjectID, completed bool) error {
	record, err := s.recordRepo.GetByID(ctx, recordID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	if err := s.setRepo.SetCompleted(ctx, setID, recordID, completed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSetNotFound
		}
		return err
	}
	s.events.Publish(newRecordEvent(ownerID, recordID, domain.ActionUpdate, record.Date))
	return nil
}

// Reorder applies a full set of (id, order) assignments to one partition in
// a single transaction and verifies every assignment persisted exactly.
// Any discrepancy rolls the whole operation back.
func (s *recordService) Reorder(ctx context.Context, ownerID primitive.ObjectID, date string, assignments []OrderAssignment) error {
	normalized, err := normalizeDate(date)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		return fmt.Errorf("%w: no order assignments supplied", ErrValidation)
	}
	seenIDs := make(map[primitive.ObjectID]bool, len(assignments))
	seenOrders := make(map[int]bool, len(assignments))
	for _, a := range assignments {
		if a.Order < 1 {
			return fmt.Errorf("%w: display order must be positive", ErrValidation)
		}
		if seenIDs[a.RecordID] {
			return fmt.Errorf("%w: record %s assigned twice", ErrValidation, a.RecordID.Hex())
		}
		if seenOrders[a.Order] {
			return fmt.Errorf("%w: order %d assigned twice", ErrValidation, a.Order)
		}
		seenIDs[a.RecordID] = true
		seenOrders[a.Order] = true
	}

	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.sequencer.reorder(txCtx, ownerID, normalized, assignments)
	})
}

// --- helpers ---

// buildRecord validates a create input and materializes the record row plus
// its resolved type (nil for free-text records).
func (s *recordService) buildRecord(ctx context.Context, ownerID primitive.ObjectID, input CreateRecordInput) (*domain.WorkoutRecord, *domain.WorkoutType, error) {
	date, err := normalizeDate(input.Date)
	if err != nil {
		return nil, nil, err
	}
	view := recordView{
		IsTextRecord:   input.IsTextRecord,
		HasType:        input.TypeID != nil && *input.TypeID != primitive.NilObjectID,
		TextContent:    input.TextContent,
		ConditionLevel: input.ConditionLevel,
		IntensityLevel: input.IntensityLevel,
		FatigueLevel:   input.FatigueLevel,
	}
	if err := validateRecordView(view); err != nil {
		return nil, nil, err
	}

	var wt *domain.WorkoutType
	if view.HasType {
		wt, err = s.catalog.ResolveType(ctx, *input.TypeID)
		if err != nil {
			if errors.Is(err, ErrTypeNotFound) {
				return nil, nil, fmt.Errorf("%w: unknown workout type", ErrValidation)
			}
			return nil, nil, err
		}
	}

	typeID := input.TypeID
	if !view.HasType {
		typeID = nil
	}
	record := &domain.WorkoutRecord{
		OwnerID:         ownerID,
		Date:            date,
		TypeID:          typeID,
		IsTextRecord:    input.IsTextRecord,
		TextContent:     input.TextContent,
		DurationMinutes: input.DurationMinutes,
		Notes:           input.Notes,
		ConditionLevel:  input.ConditionLevel,
		IntensityLevel:  input.IntensityLevel,
		FatigueLevel:    input.FatigueLevel,
		IsCompleted:     input.IsCompleted,
	}
	return record, wt, nil
}

// insertSets inserts the set rows of a freshly created record. Sets are
// only persisted for set-based records, matching the create contract.
func (s *recordService) insertSets(ctx context.Context, record *domain.WorkoutRecord, wt *domain.WorkoutType, inputs []SetInput) ([]domain.WorkoutSet, error) {
	if len(inputs) == 0 || wt == nil || wt.Kind != domain.KindSetBased {
		return []domain.WorkoutSet{}, nil
	}
	return s.insertSetRows(ctx, record.ID, inputs)
}

func (s *recordService) insertSetRows(ctx context.Context, recordID primitive.ObjectID, inputs []SetInput) ([]domain.WorkoutSet, error) {
	rows := make([]domain.WorkoutSet, 0, len(inputs))
	for i, in := range inputs {
		completed := false
		if in.IsCompleted != nil {
			completed = *in.IsCompleted
		}
		rows = append(rows, domain.WorkoutSet{
			RecordID:    recordID,
			SetNumber:   i + 1,
			Weight:      in.Weight,
			Reps:        in.Reps,
			IsCompleted: completed,
		})
	}
	return s.setRepo.InsertMany(ctx, rows)
}

// mergedView combines the stored record with the incoming partial update
// into the view the validation rule runs against.
func (s *recordService) mergedView(existing *domain.WorkoutRecord, input UpdateRecordInput) recordView {
	view := recordView{
		IsTextRecord:   existing.IsTextRecord,
		HasType:        existing.TypeID != nil && *existing.TypeID != primitive.NilObjectID,
		TextContent:    existing.TextContent,
		ConditionLevel: mergeLevel(existing.ConditionLevel, input.ConditionLevel),
		IntensityLevel: mergeLevel(existing.IntensityLevel, input.IntensityLevel),
		FatigueLevel:   mergeLevel(existing.FatigueLevel, input.FatigueLevel),
	}
	if input.IsTextRecord != nil {
		view.IsTextRecord = *input.IsTextRecord
	}
	if input.TypeID != nil {
		view.HasType = *input.TypeID != primitive.NilObjectID
	}
	if input.TextContent != nil {
		view.TextContent = *input.TextContent
	}
	return view
}

func mergeLevel(current, incoming *domain.EffortLevel) *domain.EffortLevel {
	if incoming == nil {
		return current
	}
	if *incoming == "" {
		return nil
	}
	return incoming
}

func normalizeRange(startDate, endDate string) (string, string, error) {
	start, end := "", ""
	var err error
	if startDate != "" {
		if start, err = normalizeDate(startDate); err != nil {
			return "", "", err
		}
	}
	if endDate != "" {
		if end, err = normalizeDate(endDate); err != nil {
			return "", "", err
		}
	}
	if start != "" && end != "" && start > end {
		return "", "", fmt.Errorf("%w: startDate is after endDate", ErrValidation)
	}
	return start, end, nil
}

// hydrate builds the read shape from already-loaded parts.
func hydrate(record *domain.WorkoutRecord, sets []domain.WorkoutSet, wt *domain.WorkoutType) *domain.RecordDetail {
	detail := &domain.RecordDetail{
		Record: *record,
		Sets:   sets,
		Kind:   domain.KindFreeText,
	}
	if detail.Sets == nil {
		detail.Sets = []domain.WorkoutSet{}
	}
	if !record.IsTextRecord && wt != nil {
		detail.Kind = wt.Kind
		detail.TypeName = wt.Name
	}
	return detail
}

func (s *recordService) hydrateOne(ctx context.Context, record *domain.WorkoutRecord) (*domain.RecordDetail, error) {
	sets, err := s.setRepo.ListByRecordID(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	var wt *domain.WorkoutType
	if record.TypeID != nil && *record.TypeID != primitive.NilObjectID {
		wt, err = s.catalog.ResolveType(ctx, *record.TypeID)
		if err != nil && !errors.Is(err, ErrTypeNotFound) {
			return nil, err
		}
	}
	return hydrate(record, sets, wt), nil
}

// hydrateMany hydrates a page of records with one batched set query and one
// batched type query; no per-record round trips.
func (s *recordService) hydrateMany(ctx context.Context, records []domain.WorkoutRecord) ([]domain.RecordDetail, error) {
	recordIDs := make([]primitive.ObjectID, 0, len(records))
	typeIDSet := make(map[primitive.ObjectID]bool)
	for _, r := range records {
		recordIDs = append(recordIDs, r.ID)
		if r.TypeID != nil && *r.TypeID != primitive.NilObjectID {
			typeIDSet[*r.TypeID] = true
		}
	}
	setsByRecord, err := s.setRepo.ListByRecordIDs(ctx, recordIDs)
	if err != nil {
		return nil, err
	}
	typeIDs := make([]primitive.ObjectID, 0, len(typeIDSet))
	for id := range typeIDSet {
		typeIDs = append(typeIDs, id)
	}
	types, err := s.catalog.ResolveTypes(ctx, typeIDs)
	if err != nil {
		return nil, err
	}

	details := make([]domain.RecordDetail, 0, len(records))
	for i := range records {
		record := records[i]
		var wt *domain.WorkoutType
		if record.TypeID != nil {
			if t, ok := types[*record.TypeID]; ok {
				wt = &t
			}
		}
		details = append(details, *hydrate(&record, setsByRecord[record.ID], wt))
	}
	return details, nil
}
