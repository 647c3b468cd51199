// Package app composes the grading service.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── domain/subject/     # Subject record
//	├── storage/            # Store interfaces and implementations
//	│   ├── interfaces.go   # SubjectStore
//	│   ├── memory/         # In-memory implementation
//	│   ├── sqlstore/       # Postgres and SQLite implementation
//	│   └── cache/          # Redis read-through decorator
//	├── services/subjects/  # DTO, mapper, and service
//	├── httpapi/            # REST handlers, alert headers, audit trail
//	├── metrics/            # Prometheus collectors
//	├── runtime/            # Config-driven process bootstrap
//	└── system/             # Lifecycle manager
//
// # Dependency Direction
//
//	cmd/grading/
//	      │
//	      ▼
//	internal/app/runtime
//	      │
//	      ├──► internal/app/httpapi ──► internal/app (Application)
//	      │                                   │
//	      │                                   └──► services/subjects ──► storage
//	      │
//	      └──► internal/platform (database, migrations)
//
// # Adding a New Entity
//
//  1. Create the record in internal/app/domain/<entity>/
//  2. Add a store interface to internal/app/storage/interfaces.go
//  3. Implement it in storage/memory and storage/sqlstore, with a migration
//  4. Create the DTO, mapper, and service in internal/app/services/<entity>/
//  5. Wire the service in internal/app/application.go
//  6. Register routes in internal/app/httpapi
package app
