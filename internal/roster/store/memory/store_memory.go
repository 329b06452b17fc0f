// Package memory provides an in-memory Store used by unit tests and local
// runs without a database. Commit applies a ChangeSet atomically under one
// lock and runs the invariant guard against the committed maps, mirroring
// what the postgres store does inside a transaction.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"roster/internal/roster/guard"
	"roster/internal/roster/models"
	"roster/pkg/platform/sentinel"
)

type Store struct {
	mu        sync.RWMutex
	people    map[uuid.UUID]models.Person
	segments  map[uuid.UUID]models.DutySegment
	snapshots map[uuid.UUID]models.StatusSnapshot
}

func New() *Store {
	return &Store{
		people:    make(map[uuid.UUID]models.Person),
		segments:  make(map[uuid.UUID]models.DutySegment),
		snapshots: make(map[uuid.UUID]models.StatusSnapshot),
	}
}

func (s *Store) CreatePerson(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	norm := models.NormalizedName(p.Name)
	for _, existing := range s.people {
		if models.NormalizedName(existing.Name) == norm {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.people[p.ID] = *p
	return nil
}

func (s *Store) RenamePerson(_ context.Context, id uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.people[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	norm := models.NormalizedName(name)
	for otherID, other := range s.people {
		if otherID != id && models.NormalizedName(other.Name) == norm {
			return sentinel.ErrAlreadyUsed
		}
	}
	person.Name = name
	s.people[id] = person
	return nil
}

func (s *Store) FindPersonByName(_ context.Context, name string) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.people {
		if p.Name == name {
			out := p
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ListPeople(_ context.Context) ([]models.PersonStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PersonStatus, 0, len(s.people))
	for id, p := range s.people {
		status := models.PersonStatus{Person: p}
		if snap, ok := s.snapshots[id]; ok {
			status.Snapshot = snap.Clone()
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Person.Name < out[j].Person.Name })
	return out, nil
}

func (s *Store) ListDutySegments(_ context.Context, personID uuid.UUID) ([]models.DutySegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.segmentsOf(personID), nil
}

func (s *Store) FindSegment(_ context.Context, id uuid.UUID) (*models.DutySegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seg, ok := s.segments[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := seg
	return &out, nil
}

func (s *Store) GetSnapshot(_ context.Context, personID uuid.UUID) (*models.StatusSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[personID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return snap.Clone(), nil
}

// Commit validates and applies the change set under one lock. Nothing is
// written until every check has passed, so a rejected commit leaves the
// store untouched.
func (s *Store) Commit(ctx context.Context, cs models.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[cs.PersonID]; !ok {
		return sentinel.ErrNotFound
	}

	committed := s.segmentsOf(cs.PersonID)
	if cs.BaselineSegments >= 0 && len(committed) != cs.BaselineSegments {
		return sentinel.ErrConflict
	}

	if err := guard.Check(ctx, committedView{s}, cs); err != nil {
		return err
	}

	removing := make(map[uuid.UUID]bool, len(cs.RemoveSegmentIDs))
	for _, id := range cs.RemoveSegmentIDs {
		if _, ok := s.segments[id]; !ok {
			return sentinel.ErrNotFound
		}
		removing[id] = true
	}
	updating := make(map[uuid.UUID]bool, len(cs.UpdateSegments))
	for _, seg := range cs.UpdateSegments {
		if _, ok := s.segments[seg.ID]; !ok {
			return sentinel.ErrNotFound
		}
		updating[seg.ID] = true
	}
	for _, seg := range cs.AddSegments {
		if _, ok := s.segments[seg.ID]; ok {
			return sentinel.ErrAlreadyUsed
		}
	}

	// Start-date uniqueness over the post-commit state, the in-memory
	// equivalent of the (person_id, start_date) unique index.
	starts := make(map[int64]bool)
	occupy := func(seg models.DutySegment) error {
		key := seg.Start.Unix()
		if starts[key] {
			return sentinel.ErrAlreadyUsed
		}
		starts[key] = true
		return nil
	}
	for _, seg := range committed {
		if removing[seg.ID] || updating[seg.ID] {
			continue
		}
		if err := occupy(seg); err != nil {
			return err
		}
	}
	for _, seg := range cs.UpdateSegments {
		if removing[seg.ID] {
			continue
		}
		if err := occupy(seg); err != nil {
			return err
		}
	}
	for _, seg := range cs.AddSegments {
		if err := occupy(seg); err != nil {
			return err
		}
	}

	for _, id := range cs.RemoveSegmentIDs {
		delete(s.segments, id)
	}
	for _, seg := range cs.UpdateSegments {
		if !removing[seg.ID] {
			s.segments[seg.ID] = seg
		}
	}
	for _, seg := range cs.AddSegments {
		s.segments[seg.ID] = seg
	}
	if cs.RemoveSnapshot {
		delete(s.snapshots, cs.PersonID)
	} else if cs.Snapshot != nil {
		s.snapshots[cs.PersonID] = *cs.Snapshot.Clone()
	}
	return nil
}

// RemoveSnapshot deletes a person's snapshot row directly. This is test
// scaffolding for guard scenarios and is not part of the service surface.
func (s *Store) RemoveSnapshot(personID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, personID)
}

func (s *Store) segmentsOf(personID uuid.UUID) []models.DutySegment {
	var out []models.DutySegment
	for _, seg := range s.segments {
		if seg.PersonID == personID {
			out = append(out, seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// committedView adapts the already-locked maps to the guard's view. The
// guard runs before any mutation, so the maps are the committed state.
type committedView struct{ s *Store }

func (v committedView) CountSegments(_ context.Context, personID uuid.UUID) (int, error) {
	return len(v.s.segmentsOf(personID)), nil
}

func (v committedView) HasSnapshot(_ context.Context, personID uuid.UUID) (bool, error) {
	_, ok := v.s.snapshots[personID]
	return ok, nil
}
