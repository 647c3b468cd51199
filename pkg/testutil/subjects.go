// Package testutil provides common testing utilities and subject store doubles.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/R3E-Network/grading_system/internal/app/domain/subject"
	"github.com/R3E-Network/grading_system/internal/app/storage"
)

// String returns a pointer to v.
func String(v string) *string { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// FailingSubjectStore returns Err from every call.
type FailingSubjectStore struct {
	Err error
}

var _ storage.SubjectStore = FailingSubjectStore{}

func (f FailingSubjectStore) SaveSubject(context.Context, subject.Subject) (subject.Subject, error) {
	return subject.Subject{}, f.Err
}

func (f FailingSubjectStore) GetSubject(context.Context, int64) (subject.Subject, error) {
	return subject.Subject{}, f.Err
}

func (f FailingSubjectStore) ListSubjects(context.Context) ([]subject.Subject, error) {
	return nil, f.Err
}

func (f FailingSubjectStore) SubjectExists(context.Context, int64) (bool, error) {
	return false, f.Err
}

func (f FailingSubjectStore) DeleteSubject(context.Context, int64) error {
	return f.Err
}

// RecordingSubjectStore counts calls per method before delegating to Next.
type RecordingSubjectStore struct {
	Next storage.SubjectStore

	mu    sync.Mutex
	calls map[string]int
}

var _ storage.SubjectStore = (*RecordingSubjectStore)(nil)

// NewRecordingSubjectStore wraps next.
func NewRecordingSubjectStore(next storage.SubjectStore) *RecordingSubjectStore {
	return &RecordingSubjectStore{Next: next, calls: make(map[string]int)}
}

// Calls returns how many times method was invoked.
func (r *RecordingSubjectStore) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *RecordingSubjectStore) record(method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[method]++
}

func (r *RecordingSubjectStore) SaveSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	r.record("SaveSubject")
	return r.Next.SaveSubject(ctx, subj)
}

func (r *RecordingSubjectStore) GetSubject(ctx context.Context, id int64) (subject.Subject, error) {
	r.record("GetSubject")
	return r.Next.GetSubject(ctx, id)
}

func (r *RecordingSubjectStore) ListSubjects(ctx context.Context) ([]subject.Subject, error) {
	r.record("ListSubjects")
	return r.Next.ListSubjects(ctx)
}

func (r *RecordingSubjectStore) SubjectExists(ctx context.Context, id int64) (bool, error) {
	r.record("SubjectExists")
	return r.Next.SubjectExists(ctx, id)
}

func (r *RecordingSubjectStore) DeleteSubject(ctx context.Context, id int64) error {
	r.record("DeleteSubject")
	return r.Next.DeleteSubject(ctx, id)
}

// VanishingSubjectStore reports every subject as existing, then loses it: reads
// and writes return ErrNotFound. It models a delete landing between the
// existence check and the write.
type VanishingSubjectStore struct{}

var _ storage.SubjectStore = VanishingSubjectStore{}

func (VanishingSubjectStore) SaveSubject(_ context.Context, subj subject.Subject) (subject.Subject, error) {
	return subject.Subject{}, fmt.Errorf("update subject %d: %w", subj.ID, storage.ErrNotFound)
}

func (VanishingSubjectStore) GetSubject(_ context.Context, id int64) (subject.Subject, error) {
	return subject.Subject{}, fmt.Errorf("get subject %d: %w", id, storage.ErrNotFound)
}

func (VanishingSubjectStore) ListSubjects(context.Context) ([]subject.Subject, error) {
	return []subject.Subject{}, nil
}

func (VanishingSubjectStore) SubjectExists(context.Context, int64) (bool, error) {
	return true, nil
}

func (VanishingSubjectStore) DeleteSubject(context.Context, int64) error {
	return nil
}
