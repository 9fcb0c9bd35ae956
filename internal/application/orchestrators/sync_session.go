package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"orchestra/internal/adapters/storage"
	"orchestra/internal/domain/availability"
	"orchestra/internal/domain/schedule"
)

// SyncResult reports how a save was reconciled with the working copy.
type SyncResult struct {
	Record   schedule.Schedule // canonical record after the save
	Reloaded bool              // false when edits made during the save were kept
}

// SyncSession pairs one member's working copy with the schedule store.
// Edits go through Edit so that a save in flight can tell whether the copy
// changed underneath it.
type SyncSession struct {
	mu     sync.Mutex
	store  *availability.Store
	deps   SaveScheduleDeps
	synced uint64
	record schedule.Schedule
}

// NewSyncSession wraps store. Call Refresh before editing.
func NewSyncSession(store *availability.Store, deps SaveScheduleDeps) *SyncSession {
	return &SyncSession{store: store, deps: deps, synced: store.Version()}
}

// Refresh loads the canonical record into the working copy, discarding local
// state. A member with no record loads an empty one.
// POST: Dirty() == false
func (s *SyncSession) Refresh(ctx context.Context) error {
	s.mu.Lock()
	memberID := s.store.MemberID()
	s.mu.Unlock()

	rec, err := s.deps.ScheduleStore.GetByMemberID(ctx, memberID)
	if errors.Is(err, storage.ErrNotFound) {
		rec = schedule.Empty(memberID, s.Snapshot().MemberName, s.deps.Now())
	} else if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Load(rec)
	s.synced = s.store.Version()
	s.record = rec
	return nil
}

// Edit applies fn to the working copy.
func (s *SyncSession) Edit(fn func(*availability.Store)) availability.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store)
	return s.store.Snapshot()
}

// Snapshot returns the current working copy.
func (s *SyncSession) Snapshot() availability.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Dirty reports whether the working copy has edits not yet persisted.
func (s *SyncSession) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Version() != s.synced
}

// Record returns the last canonical record seen from the store.
func (s *SyncSession) Record() schedule.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// Save persists the working copy and reconciles it with the canonical record.
// When no edit happened after the save began, the copy is reloaded from the
// canonical record. Otherwise the local edits are kept, the session stays
// dirty, and only the server-side record (id, UpdatedAt) is adopted.
// On failure the working copy is untouched.
func (s *SyncSession) Save(ctx context.Context) (SyncResult, error) {
	snap := s.Snapshot()

	saved, err := ExecuteSaveSchedule(ctx, SaveScheduleInput{Snapshot: snap}, s.deps)
	if err != nil {
		return SyncResult{}, err
	}

	canonical, err := s.deps.ScheduleStore.GetByMemberID(ctx, snap.MemberID)
	if err != nil {
		zap.L().Warn("schedule_event",
			zap.String("event", "refetch_failed"),
			zap.String("member_id", snap.MemberID),
			zap.Error(err),
		)
		canonical = saved
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = canonical
	if s.store.Version() != snap.Version {
		s.synced = snap.Version
		zap.L().Info("schedule_event",
			zap.String("event", "save_remerged"),
			zap.String("member_id", snap.MemberID),
			zap.Uint64("saved_version", snap.Version),
			zap.Uint64("local_version", s.store.Version()),
		)
		return SyncResult{Record: canonical, Reloaded: false}, nil
	}
	s.store.Load(canonical)
	s.synced = s.store.Version()
	return SyncResult{Record: canonical, Reloaded: true}, nil
}
