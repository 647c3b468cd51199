package app

import (
	"context"

	"github.com/R3E-Network/grading_system/internal/app/services/subjects"
	"github.com/R3E-Network/grading_system/internal/app/storage"
	"github.com/R3E-Network/grading_system/internal/app/storage/memory"
	"github.com/R3E-Network/grading_system/internal/app/system"
	"github.com/R3E-Network/grading_system/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Subjects storage.SubjectStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Subjects     *subjects.Service
	SubjectStore storage.SubjectStore
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	if stores.Subjects == nil {
		stores.Subjects = memory.New()
	}

	return &Application{
		manager:      system.NewManager(),
		log:          log,
		Subjects:     subjects.New(stores.Subjects, log.Named("subjects")),
		SubjectStore: stores.Subjects,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
