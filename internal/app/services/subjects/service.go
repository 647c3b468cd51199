package subjects

import (
	"context"
	"errors"
	"time"

	"github.com/R3E-Network/grading_system/internal/app/metrics"
	"github.com/R3E-Network/grading_system/internal/app/storage"
	"github.com/R3E-Network/grading_system/pkg/logger"
)

// Service manages subject records. It holds no state of its own; identity
// checks are the caller's job.
type Service struct {
	store storage.SubjectStore
	log   *logger.Logger
}

// New constructs a subject service.
func New(store storage.SubjectStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("subjects")
	}
	return &Service{store: store, log: log}
}

// Save persists a subject. Storage assigns the id when dto has none.
func (s *Service) Save(ctx context.Context, dto SubjectDTO) (SubjectDTO, error) {
	s.log.WithContext(ctx).Debugf("Request to save Subject : %s", dto)
	return s.persist(ctx, "save", dto)
}

// Update overwrites a subject. It is mechanically identical to Save; the HTTP
// layer is responsible for checking that the record exists.
func (s *Service) Update(ctx context.Context, dto SubjectDTO) (SubjectDTO, error) {
	s.log.WithContext(ctx).Debugf("Request to update Subject : %s", dto)
	return s.persist(ctx, "update", dto)
}

func (s *Service) persist(ctx context.Context, op string, dto SubjectDTO) (SubjectDTO, error) {
	start := time.Now()
	saved, err := s.store.SaveSubject(ctx, ToEntity(dto))
	metrics.RecordSubjectOperation(op, time.Since(start), err)
	if err != nil {
		return SubjectDTO{}, err
	}
	s.log.WithContext(ctx).WithField("subject_id", saved.ID).WithField("operation", op).Info("subject saved")
	return ToDTO(saved), nil
}

// PartialUpdate merges the non-nil fields of dto into the stored subject. The
// boolean is false when no subject has dto's id.
func (s *Service) PartialUpdate(ctx context.Context, dto SubjectDTO) (SubjectDTO, bool, error) {
	s.log.WithContext(ctx).Debugf("Request to partially update Subject : %s", dto)
	if dto.ID == nil {
		return SubjectDTO{}, false, nil
	}

	start := time.Now()
	existing, err := s.store.GetSubject(ctx, *dto.ID)
	if errors.Is(err, storage.ErrNotFound) {
		metrics.RecordSubjectOperation("partial_update", time.Since(start), nil)
		return SubjectDTO{}, false, nil
	}
	if err != nil {
		metrics.RecordSubjectOperation("partial_update", time.Since(start), err)
		return SubjectDTO{}, false, err
	}

	PartialUpdate(&existing, dto)
	saved, err := s.store.SaveSubject(ctx, existing)
	metrics.RecordSubjectOperation("partial_update", time.Since(start), err)
	if err != nil {
		return SubjectDTO{}, false, err
	}
	return ToDTO(saved), true, nil
}

// FindAll returns every subject in storage order.
func (s *Service) FindAll(ctx context.Context) ([]SubjectDTO, error) {
	s.log.WithContext(ctx).Debug("Request to get all Subjects")
	start := time.Now()
	list, err := s.store.ListSubjects(ctx)
	metrics.RecordSubjectOperation("find_all", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return ToDTOs(list), nil
}

// FindOne looks a subject up by id. The boolean is false when it does not exist.
func (s *Service) FindOne(ctx context.Context, id int64) (SubjectDTO, bool, error) {
	s.log.WithContext(ctx).Debugf("Request to get Subject : %d", id)
	start := time.Now()
	subj, err := s.store.GetSubject(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		metrics.RecordSubjectOperation("find_one", time.Since(start), nil)
		return SubjectDTO{}, false, nil
	}
	metrics.RecordSubjectOperation("find_one", time.Since(start), err)
	if err != nil {
		return SubjectDTO{}, false, err
	}
	return ToDTO(subj), true, nil
}

// Delete removes a subject. Deleting an unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.log.WithContext(ctx).Debugf("Request to delete Subject : %d", id)
	start := time.Now()
	err := s.store.DeleteSubject(ctx, id)
	metrics.RecordSubjectOperation("delete", time.Since(start), err)
	if err != nil {
		return err
	}
	s.log.WithContext(ctx).WithField("subject_id", id).Info("subject deleted")
	return nil
}
