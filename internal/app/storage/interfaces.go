package storage

import (
	"context"
	"errors"

	"github.com/R3E-Network/grading_system/internal/app/domain/subject"
)

// ErrNotFound is returned (possibly wrapped) when a record does not exist.
var ErrNotFound = errors.New("record not found")

// SubjectStore persists subject records.
//
// SaveSubject assigns an id when the subject is new and otherwise overwrites
// the existing row, returning ErrNotFound if there is none. DeleteSubject is
// idempotent. ListSubjects returns records ordered by id.
type SubjectStore interface {
	SaveSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error)
	GetSubject(ctx context.Context, id int64) (subject.Subject, error)
	ListSubjects(ctx context.Context) ([]subject.Subject, error)
	SubjectExists(ctx context.Context, id int64) (bool, error)
	DeleteSubject(ctx context.Context, id int64) error
}
