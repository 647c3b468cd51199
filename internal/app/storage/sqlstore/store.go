// Package sqlstore implements the storage interfaces on top of a SQL database.
// The same queries serve PostgreSQL and SQLite; placeholders are rebound to
// the dialect of the driver the *sqlx.DB was opened with.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/R3E-Network/grading_system/internal/app/domain/subject"
	"github.com/R3E-Network/grading_system/internal/app/storage"
)

// Store implements the storage interfaces backed by a relational database.
type Store struct {
	db *sqlx.DB
}

var _ storage.SubjectStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// --- SubjectStore -----------------------------------------------------------

func (s *Store) SaveSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	if subj.IsNew() {
		return s.insertSubject(ctx, subj)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE subject
		SET name = ?, code = ?
		WHERE id = ?
	`), subj.Name, subj.Code, subj.ID)
	if err != nil {
		return subject.Subject{}, fmt.Errorf("update subject %d: %w", subj.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return subject.Subject{}, fmt.Errorf("update subject %d rows affected: %w", subj.ID, err)
	}
	if rows == 0 {
		return subject.Subject{}, fmt.Errorf("subject %d: %w", subj.ID, storage.ErrNotFound)
	}
	return subj, nil
}

func (s *Store) insertSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	row := s.db.QueryRowxContext(ctx, s.db.Rebind(`
		INSERT INTO subject (name, code)
		VALUES (?, ?)
		RETURNING id
	`), subj.Name, subj.Code)
	if err := row.Scan(&subj.ID); err != nil {
		return subject.Subject{}, fmt.Errorf("insert subject: %w", err)
	}
	return subj, nil
}

func (s *Store) GetSubject(ctx context.Context, id int64) (subject.Subject, error) {
	var subj subject.Subject
	err := s.db.GetContext(ctx, &subj, s.db.Rebind(`
		SELECT id, name, code
		FROM subject
		WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return subject.Subject{}, fmt.Errorf("subject %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return subject.Subject{}, fmt.Errorf("get subject %d: %w", id, err)
	}
	return subj, nil
}

func (s *Store) ListSubjects(ctx context.Context) ([]subject.Subject, error) {
	result := make([]subject.Subject, 0)
	if err := s.db.SelectContext(ctx, &result, `
		SELECT id, name, code
		FROM subject
		ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return result, nil
}

func (s *Store) SubjectExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(`
		SELECT EXISTS (SELECT 1 FROM subject WHERE id = ?)
	`), id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check subject %d: %w", id, err)
	}
	return exists, nil
}

func (s *Store) DeleteSubject(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM subject WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete subject %d: %w", id, err)
	}
	return nil
}
