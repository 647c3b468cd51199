package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	app "github.com/R3E-Network/grading_system/internal/app"
	"github.com/R3E-Network/grading_system/internal/app/metrics"
	"github.com/R3E-Network/grading_system/internal/app/storage"
	apperrors "github.com/R3E-Network/grading_system/internal/errors"
	"github.com/R3E-Network/grading_system/internal/middleware"
	"github.com/R3E-Network/grading_system/pkg/logger"
)

// DefaultAppName prefixes the alert headers when no application name is configured.
const DefaultAppName = "gradingSystemApp"

// Pinger reports database reachability for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options configures the HTTP surface. Zero values disable the optional parts.
type Options struct {
	AppName     string
	CORSOrigins []string
	RateLimiter *middleware.RateLimiter
	Audit       *AuditLog
	Pinger      Pinger
	Logger      *logger.Logger

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Rate limiting and auditing key on that address.
	TrustProxyHeaders bool
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app    *app.Application
	alerts alertHeaders
	audit  *AuditLog
	pinger Pinger
	log    *logger.Logger
}

// NewHandler returns the REST API with its middleware chain applied.
func NewHandler(application *app.Application, opts Options) http.Handler {
	if opts.AppName == "" {
		opts.AppName = DefaultAppName
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewDefault("httpapi")
	}
	if opts.Audit == nil {
		opts.Audit = NewAuditLog(0, nil)
	}

	h := &handler{
		app:    application,
		alerts: alertHeaders{appName: opts.AppName},
		audit:  opts.Audit,
		pinger: opts.Pinger,
		log:    opts.Logger,
	}

	router := mux.NewRouter()
	router.Use(metrics.InstrumentHandler)
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/subjects", h.createSubject).Methods(http.MethodPost)
	api.HandleFunc("/subjects", h.getAllSubjects).Methods(http.MethodGet)
	api.HandleFunc("/subjects/{id}", h.getSubject).Methods(http.MethodGet)
	api.HandleFunc("/subjects/{id}", h.updateSubject).Methods(http.MethodPut)
	api.HandleFunc("/subjects/{id}", h.partialUpdateSubject).Methods(http.MethodPatch)
	api.HandleFunc("/subjects/{id}", h.deleteSubject).Methods(http.MethodDelete)
	api.HandleFunc("/management/audits", h.audits).Methods(http.MethodGet)

	var root http.Handler = router
	root = wrapWithAudit(root, h.audit)
	if opts.RateLimiter != nil {
		root = opts.RateLimiter.Handler(root)
	}
	root = middleware.NewCORSMiddleware(opts.CORSOrigins, h.alerts.exposed()...).Handler(root)
	root = middleware.NewTracingMiddleware(opts.Logger).Handler(root)
	root = chimw.Recoverer(root)
	if opts.TrustProxyHeaders {
		root = chimw.RealIP(root)
	}
	return root
}

func (h *handler) audits(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, apperrors.BadRequest("limit must be an integer", err))
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, h.audit.ListLimit(limit))
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.PingContext(r.Context()); err != nil {
			h.log.WithContext(r.Context()).WithError(err).Warn("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

// errorResponse mirrors the problem body clients of the original API expect.
type errorResponse struct {
	Error      string `json:"error"`
	EntityName string `json:"entityName,omitempty"`
	ErrorKey   string `json:"errorKey,omitempty"`
	Message    string `json:"message"`
	Status     int    `json:"status"`
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		err = apperrors.NotFound(entityName)
	}
	svcErr := apperrors.As(err)

	if svcErr.HTTPStatus >= http.StatusInternalServerError {
		h.log.WithContext(r.Context()).
			WithError(err).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			Error("request failed")
	}

	body := errorResponse{
		Error:      svcErr.Message,
		EntityName: svcErr.EntityName,
		Status:     svcErr.HTTPStatus,
		Message:    "error.http." + strconv.Itoa(svcErr.HTTPStatus),
	}
	if svcErr.IsAlert() {
		body.ErrorKey = svcErr.ErrorKey
		body.Message = "error." + svcErr.ErrorKey
		h.alerts.failure(w, svcErr.EntityName, svcErr.ErrorKey)
	}
	writeJSON(w, svcErr.HTTPStatus, body)
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
