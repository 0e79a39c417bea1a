// Package memory provides in-memory implementations of the repository
// interfaces. The store serializes transactions behind one mutex and rolls
// back to a snapshot on error, which gives tests the same all-or-nothing
// and isolation behavior the MongoDB session runner provides in production.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/albertelmo/goodlift-sub001/internal/domain"
	"github.com/albertelmo/goodlift-sub001/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds all in-memory tables and implements repository.TxRunner.
type Store struct {
	mu      sync.Mutex
	records map[primitive.ObjectID]domain.WorkoutRecord
	sets    map[primitive.ObjectID]domain.WorkoutSet
	types   map[primitive.ObjectID]domain.WorkoutType

	// monotonic creation counter; breaks createdAt ties deterministically
	// so list ordering is stable even when inserts share a timestamp.
	seq     int64
	recSeqs map[primitive.ObjectID]int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		records: make(map[primitive.ObjectID]domain.WorkoutRecord),
		sets:    make(map[primitive.ObjectID]domain.WorkoutSet),
		types:   make(map[primitive.ObjectID]domain.WorkoutType),
		recSeqs: make(map[primitive.ObjectID]int64),
	}
}

type txKey struct{}

// WithTransaction runs fn with the store lock held, restoring a snapshot of
// every table if fn fails.
func (s *Store) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapRecords := cloneMap(s.records)
	snapSets := cloneMap(s.sets)
	snapTypes := cloneMap(s.types)
	snapSeqs := cloneMap(s.recSeqs)
	snapSeq := s.seq

	if err := fn(context.WithValue(ctx, txKey{}, struct{}{})); err != nil {
		s.records = snapRecords
		s.sets = snapSets
		s.types = snapTypes
		s.recSeqs = snapSeqs
		s.seq = snapSeq
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// acquire locks the store unless ctx already runs inside a transaction.
func (s *Store) acquire(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// SeedType inserts a catalog entry; test setup helper.
func (s *Store) SeedType(wt domain.WorkoutType) domain.WorkoutType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wt.ID == primitive.NilObjectID {
		wt.ID = primitive.NewObjectID()
	}
	s.types[wt.ID] = wt
	return wt
}

// Records returns the record repository view of the store.
func (s *Store) Records() repository.WorkoutRecordRepository { return &recordRepo{s} }

// Sets returns the set repository view of the store.
func (s *Store) Sets() repository.WorkoutSetRepository { return &setRepo{s} }

// Types returns the workout type repository view of the store.
func (s *Store) Types() repository.WorkoutTypeRepository { return &typeRepo{s} }

// --- record repository ---

type recordRepo struct{ s *Store }

func (r *recordRepo) Insert(ctx context.Context, record *domain.WorkoutRecord) (primitive.ObjectID, error) {
	defer r.s.acquire(ctx)()
	for _, existing := range r.s.records {
		if existing.OwnerID == record.OwnerID && existing.Date == record.Date && existing.DisplayOrder == record.DisplayOrder {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	record.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	r.s.seq++
	r.s.recSeqs[record.ID] = r.s.seq
	r.s.records[record.ID] = *record
	return record.ID, nil
}

func (r *recordRepo) GetByID(ctx context.Context, id, ownerID primitive.ObjectID) (*domain.WorkoutRecord, error) {
	defer r.s.acquire(ctx)()
	rec, ok := r.s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	out := rec
	return &out, nil
}

func (r *recordRepo) ListByDateRange(ctx context.Context, ownerID primitive.ObjectID, startDate, endDate string) ([]domain.WorkoutRecord, error) {
	defer r.s.acquire(ctx)()
	out := []domain.WorkoutRecord{}
	for _, rec := range r.s.records {
		if rec.OwnerID != ownerID {
			continue
		}
		if startDate != "" && rec.Date < startDate {
			continue
		}
		if endDate != "" && rec.Date > endDate {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return r.s.recSeqs[out[i].ID] < r.s.recSeqs[out[j].ID]
	})
	return out, nil
}

func (r *recordRepo) MaxDisplayOrder(ctx context.Context, ownerID primitive.ObjectID, date string) (int, error) {
	defer r.s.acquire(ctx)()
	max := 0
	for _, rec := range r.s.records {
		if rec.OwnerID == ownerID && rec.Date == date && rec.DisplayOrder > max {
			max = rec.DisplayOrder
		}
	}
	return max, nil
}

func (r *recordRepo) ApplyUpdate(ctx context.Context, id, ownerID primitive.ObjectID, upd *repository.RecordUpdate) error {
	defer r.s.acquire(ctx)()
	rec, ok := r.s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	if upd.Date != nil {
		rec.Date = *upd.Date
	}
	if upd.TypeID != nil {
		if *upd.TypeID == primitive.NilObjectID {
			rec.TypeID = nil
		} else {
			v := *upd.TypeID
			rec.TypeID = &v
		}
	}
	if upd.IsTextRecord != nil {
		rec.IsTextRecord = *upd.IsTextRecord
	}
	if upd.TextContent != nil {
		rec.TextContent = *upd.TextContent
	}
	if upd.DurationMinutes != nil {
		v := *upd.DurationMinutes
		rec.DurationMinutes = &v
	}
	if upd.Notes != nil {
		rec.Notes = *upd.Notes
	}
	rec.ConditionLevel = applyLevel(rec.ConditionLevel, upd.ConditionLevel)
	rec.IntensityLevel = applyLevel(rec.IntensityLevel, upd.IntensityLevel)
	rec.FatigueLevel = applyLevel(rec.FatigueLevel, upd.FatigueLevel)
	if upd.IsCompleted != nil {
		rec.IsCompleted = *upd.IsCompleted
	}
	if upd.DisplayOrder != nil {
		rec.DisplayOrder = *upd.DisplayOrder
	}
	rec.UpdatedAt = time.Now().UTC()

	for _, other := range r.s.records {
		if other.ID != rec.ID && other.OwnerID == rec.OwnerID && other.Date == rec.Date && other.DisplayOrder == rec.DisplayOrder {
			return repository.ErrDuplicateKey
		}
	}
	r.s.records[id] = rec
	return nil
}

func applyLevel(current *domain.EffortLevel, incoming *domain.EffortLevel) *domain.EffortLevel {
	if incoming == nil {
		return current
	}
	if *incoming == "" {
		return nil
	}
	v := *incoming
	return &v
}

func (r *recordRepo) UpdateDisplayOrder(ctx context.Context, id, ownerID primitive.ObjectID, date string, order int) (int64, error) {
	defer r.s.acquire(ctx)()
	rec, ok := r.s.records[id]
	if !ok || rec.OwnerID != ownerID || rec.Date != date {
		return 0, nil
	}
	for _, other := range r.s.records {
		if other.ID != id && other.OwnerID == ownerID && other.Date == date && other.DisplayOrder == order {
			return 0, repository.ErrDuplicateKey
		}
	}
	rec.DisplayOrder = order
	rec.UpdatedAt = time.Now().UTC()
	r.s.records[id] = rec
	return 1, nil
}

func (r *recordRepo) GetByIDsForDate(ctx context.Context, ownerID primitive.ObjectID, date string, ids []primitive.ObjectID) ([]domain.WorkoutRecord, error) {
	defer r.s.acquire(ctx)()
	out := []domain.WorkoutRecord{}
	for _, id := range ids {
		if rec, ok := r.s.records[id]; ok && rec.OwnerID == ownerID && rec.Date == date {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *recordRepo) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	defer r.s.acquire(ctx)()
	rec, ok := r.s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.s.records, id)
	delete(r.s.recSeqs, id)
	return nil
}

func (r *recordRepo) SetCompleted(ctx context.Context, id, ownerID primitive.ObjectID, completed bool) error {
	defer r.s.acquire(ctx)()
	rec, ok := r.s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	rec.IsCompleted = completed
	rec.UpdatedAt = time.Now().UTC()
	r.s.records[id] = rec
	return nil
}

// --- set repository ---

type setRepo struct{ s *Store }

func (r *setRepo) InsertMany(ctx context.Context, sets []domain.WorkoutSet) ([]domain.WorkoutSet, error) {
	defer r.s.acquire(ctx)()
	now := time.Now().UTC()
	for i := range sets {
		for _, existing := range r.s.sets {
			if existing.RecordID == sets[i].RecordID && existing.SetNumber == sets[i].SetNumber {
				return nil, repository.ErrDuplicateKey
			}
		}
		sets[i].ID = primitive.NewObjectID()
		sets[i].CreatedAt = now
		sets[i].UpdatedAt = now
		r.s.sets[sets[i].ID] = sets[i]
	}
	return sets, nil
}

func (r *setRepo) ListByRecordID(ctx context.Context, recordID primitive.ObjectID) ([]domain.WorkoutSet, error) {
	defer r.s.acquire(ctx)()
	out := []domain.WorkoutSet{}
	for _, s := range r.s.sets {
		if s.RecordID == recordID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SetNumber < out[j].SetNumber })
	return out, nil
}

func (r *setRepo) ListByRecordIDs(ctx context.Context, recordIDs []primitive.ObjectID) (map[primitive.ObjectID][]domain.WorkoutSet, error) {
	defer r.s.acquire(ctx)()
	wanted := make(map[primitive.ObjectID]bool, len(recordIDs))
	for _, id := range recordIDs {
		wanted[id] = true
	}
	grouped := make(map[primitive.ObjectID][]domain.WorkoutSet, len(recordIDs))
	for _, s := range r.s.sets {
		if wanted[s.RecordID] {
			grouped[s.RecordID] = append(grouped[s.RecordID], s)
		}
	}
	for id := range grouped {
		sets := grouped[id]
		sort.Slice(sets, func(i, j int) bool { return sets[i].SetNumber < sets[j].SetNumber })
		grouped[id] = sets
	}
	return grouped, nil
}

func (r *setRepo) DeleteByRecordID(ctx context.Context, recordID primitive.ObjectID) error {
	defer r.s.acquire(ctx)()
	for id, s := range r.s.sets {
		if s.RecordID == recordID {
			delete(r.s.sets, id)
		}
	}
	return nil
}

func (r *setRepo) SetCompleted(ctx context.Context, setID, recordID primitive.ObjectID, completed bool) error {
	defer r.s.acquire(ctx)()
	s, ok := r.s.sets[setID]
	if !ok || s.RecordID != recordID {
		return repository.ErrNotFound
	}
	s.IsCompleted = completed
	s.UpdatedAt = time.Now().UTC()
	r.s.sets[setID] = s
	return nil
}

// --- workout type repository ---

type typeRepo struct{ s *Store }

func (r *typeRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutType, error) {
	defer r.s.acquire(ctx)()
	wt, ok := r.s.types[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := wt
	return &out, nil
}

func (r *typeRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.WorkoutType, error) {
	defer r.s.acquire(ctx)()
	resolved := make(map[primitive.ObjectID]domain.WorkoutType, len(ids))
	for _, id := range ids {
		if wt, ok := r.s.types[id]; ok {
			resolved[id] = wt
		}
	}
	return resolved, nil
}

func (r *typeRepo) List(ctx context.Context) ([]domain.WorkoutType, error) {
	defer r.s.acquire(ctx)()
	out := []domain.WorkoutType{}
	for _, wt := range r.s.types {
		out = append(out, wt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
