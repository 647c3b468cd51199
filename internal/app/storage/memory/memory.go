package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/R3E-Network/grading_system/internal/app/domain/subject"
	"github.com/R3E-Network/grading_system/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	subjects map[int64]subject.Subject
}

var _ storage.SubjectStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:   1,
		subjects: make(map[int64]subject.Subject),
	}
}

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// SubjectStore implementation -------------------------------------------------

func (s *Store) SaveSubject(_ context.Context, subj subject.Subject) (subject.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if subj.IsNew() {
		subj.ID = s.nextIDLocked()
	} else if _, ok := s.subjects[subj.ID]; !ok {
		return subject.Subject{}, fmt.Errorf("subject %d: %w", subj.ID, storage.ErrNotFound)
	}

	subj = cloneSubject(subj)
	s.subjects[subj.ID] = subj
	return cloneSubject(subj), nil
}

func (s *Store) GetSubject(_ context.Context, id int64) (subject.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subj, ok := s.subjects[id]
	if !ok {
		return subject.Subject{}, fmt.Errorf("subject %d: %w", id, storage.ErrNotFound)
	}
	return cloneSubject(subj), nil
}

func (s *Store) ListSubjects(_ context.Context) ([]subject.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]subject.Subject, 0, len(s.subjects))
	for _, subj := range s.subjects {
		result = append(result, cloneSubject(subj))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) SubjectExists(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.subjects[id]
	return ok, nil
}

func (s *Store) DeleteSubject(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subjects, id)
	return nil
}

// Helpers ---------------------------------------------------------------------

func cloneSubject(subj subject.Subject) subject.Subject {
	subj.Name = cloneString(subj.Name)
	subj.Code = cloneString(subj.Code)
	return subj
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
