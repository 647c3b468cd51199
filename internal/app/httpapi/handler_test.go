package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/R3E-Network/grading_system/internal/app"
	"github.com/R3E-Network/grading_system/internal/app/storage/memory"
	"github.com/R3E-Network/grading_system/internal/middleware"
	"github.com/R3E-Network/grading_system/pkg/logger"
	"github.com/R3E-Network/grading_system/pkg/testutil"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	application, err := app.New(app.Stores{Subjects: memory.New()}, logger.NewNop())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	return NewHandler(application, Options{Logger: logger.NewNop()})
}

func marshal(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func jsonRequest(method, path string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func do(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), dst); err != nil {
		t.Fatalf("unmarshal %q: %v", resp.Body.String(), err)
	}
}

func createSubject(t *testing.T, handler http.Handler, name, code string) map[string]any {
	t.Helper()
	resp := do(handler, jsonRequest(http.MethodPost, "/api/subjects", marshal(map[string]any{"name": name, "code": code})))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created map[string]any
	decodeBody(t, resp, &created)
	return created
}

func TestCreateSubject(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(handler, jsonRequest(http.MethodPost, "/api/subjects", marshal(map[string]any{"name": "Math", "code": "MTH"})))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var created map[string]any
	decodeBody(t, resp, &created)
	if created["id"] != float64(1) || created["name"] != "Math" || created["code"] != "MTH" {
		t.Fatalf("unexpected body %v", created)
	}
	if got := resp.Header().Get("Location"); got != "/api/subjects/1" {
		t.Fatalf("unexpected location %q", got)
	}
	if got := resp.Header().Get("X-gradingSystemApp-alert"); got != "A new subject is created with identifier 1" {
		t.Fatalf("unexpected alert header %q", got)
	}
	if got := resp.Header().Get("X-gradingSystemApp-params"); got != "1" {
		t.Fatalf("unexpected params header %q", got)
	}
}

func TestCreateSubjectWithIDRejected(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(handler, jsonRequest(http.MethodPost, "/api/subjects", marshal(map[string]any{"id": 5, "name": "Math"})))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["errorKey"] != "idexists" || body["message"] != "error.idexists" || body["entityName"] != "subject" {
		t.Fatalf("unexpected error body %v", body)
	}
	if got := resp.Header().Get("X-gradingSystemApp-error"); got != "error.idexists" {
		t.Fatalf("unexpected error header %q", got)
	}
	if got := resp.Header().Get("X-gradingSystemApp-params"); got != "subject" {
		t.Fatalf("unexpected params header %q", got)
	}

	list := do(handler, httptest.NewRequest(http.MethodGet, "/api/subjects", nil))
	if list.Body.String() != "[]\n" {
		t.Fatalf("expected nothing stored, got %s", list.Body.String())
	}
}

func TestCreateSubjectMalformedBody(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(handler, jsonRequest(http.MethodPost, "/api/subjects", []byte(`{"name":`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	resp = do(handler, jsonRequest(http.MethodPost, "/api/subjects", []byte(`{"title":"x"}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", resp.Code)
	}
}

func TestUpdateSubject(t *testing.T) {
	handler := newTestHandler(t)
	createSubject(t, handler, "Math", "MTH")

	resp := do(handler, jsonRequest(http.MethodPut, "/api/subjects/1", marshal(map[string]any{"id": 1, "name": "Algebra", "code": "ALG"})))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var updated map[string]any
	decodeBody(t, resp, &updated)
	if updated["name"] != "Algebra" || updated["code"] != "ALG" {
		t.Fatalf("unexpected body %v", updated)
	}
	if got := resp.Header().Get("X-gradingSystemApp-alert"); got != "A subject is updated with identifier 1" {
		t.Fatalf("unexpected alert header %q", got)
	}
}

func TestUpdateSubjectValidation(t *testing.T) {
	handler := newTestHandler(t)
	createSubject(t, handler, "Math", "MTH")

	cases := []struct {
		name string
		path string
		body map[string]any
		key  string
	}{
		{name: "missing id", path: "/api/subjects/1", body: map[string]any{"name": "x"}, key: "idnull"},
		{name: "mismatched id", path: "/api/subjects/1", body: map[string]any{"id": 2, "name": "x"}, key: "idinvalid"},
		{name: "unknown id", path: "/api/subjects/999", body: map[string]any{"id": 999, "name": "x"}, key: "idnotfound"},
		{name: "non numeric path", path: "/api/subjects/abc", body: map[string]any{"id": 1}, key: "idinvalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, method := range []string{http.MethodPut, http.MethodPatch} {
				resp := do(handler, jsonRequest(method, tc.path, marshal(tc.body)))
				if resp.Code != http.StatusBadRequest {
					t.Fatalf("%s: expected 400, got %d", method, resp.Code)
				}
				var body map[string]any
				decodeBody(t, resp, &body)
				if body["errorKey"] != tc.key {
					t.Fatalf("%s: expected key %s, got %v", method, tc.key, body)
				}
			}
		})
	}

	// Update must never create.
	list := do(handler, httptest.NewRequest(http.MethodGet, "/api/subjects", nil))
	var all []map[string]any
	decodeBody(t, list, &all)
	if len(all) != 1 || all[0]["name"] != "Math" {
		t.Fatalf("expected store untouched, got %v", all)
	}
}

func TestPartialUpdateSubject(t *testing.T) {
	handler := newTestHandler(t)
	createSubject(t, handler, "Math", "MTH")

	req := jsonRequest(http.MethodPatch, "/api/subjects/1", marshal(map[string]any{"id": 1, "code": "MTH-101"}))
	req.Header.Set("Content-Type", "application/merge-patch+json")
	resp := do(handler, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var merged map[string]any
	decodeBody(t, resp, &merged)
	if merged["id"] != float64(1) || merged["name"] != "Math" || merged["code"] != "MTH-101" {
		t.Fatalf("unexpected merged body %v", merged)
	}
	if got := resp.Header().Get("X-gradingSystemApp-alert"); got != "A subject is updated with identifier 1" {
		t.Fatalf("unexpected alert header %q", got)
	}
}

func TestPartialUpdateUnsupportedMediaType(t *testing.T) {
	handler := newTestHandler(t)
	createSubject(t, handler, "Math", "MTH")

	req := jsonRequest(http.MethodPatch, "/api/subjects/1", marshal(map[string]any{"id": 1}))
	req.Header.Set("Content-Type", "text/plain")
	resp := do(handler, req)
	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.Code)
	}

	req = jsonRequest(http.MethodPatch, "/api/subjects/1", marshal(map[string]any{"id": 1, "name": "x"}))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if resp := do(handler, req); resp.Code != http.StatusOK {
		t.Fatalf("expected parameters on the media type to be accepted, got %d", resp.Code)
	}
}

func TestGetSubject(t *testing.T) {
	handler := newTestHandler(t)
	createSubject(t, handler, "Math", "MTH")

	resp := do(handler, httptest.NewRequest(http.MethodGet, "/api/subjects/1", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var found map[string]any
	decodeBody(t, resp, &found)
	if found["name"] != "Math" {
		t.Fatalf("unexpected body %v", found)
	}

	resp = do(handler, httptest.NewRequest(http.MethodGet, "/api/subjects/999", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["status"] != float64(404) || body["message"] != "error.http.404" {
		t.Fatalf("unexpected not found body %v", body)
	}
}

func TestGetAllSubjects(t *testing.T) {
	handler := newTestHandler(t)

	resp := do(handler, httptest.NewRequest(http.MethodGet, "/api/subjects", nil))
	if resp.Code != http.StatusOK || resp.Body.String() != "[]\n" {
		t.Fatalf("expected empty array, got %d %q", resp.Code, resp.Body.String())
	}

	createSubject(t, handler, "Math", "MTH")
	createSubject(t, handler, "Physics", "PHY")

	resp = do(handler, httptest.NewRequest(http.MethodGet, "/api/subjects", nil))
	var all []map[string]any
	decodeBody(t, resp, &all)
	if len(all) != 2 || all[0]["id"] != float64(1) || all[1]["id"] != float64(2) {
		t.Fatalf("unexpected list %v", all)
	}
}

func TestDeleteSubjectIdempotent(t *testing.T) {
	handler := newTestHandler(t)
	createSubject(t, handler, "Math", "MTH")

	for i := 0; i < 2; i++ {
		resp := do(handler, httptest.NewRequest(http.MethodDelete, "/api/subjects/1", nil))
		if resp.Code != http.StatusNoContent {
			t.Fatalf("delete %d: expected 204, got %d", i, resp.Code)
		}
		if got := resp.Header().Get("X-gradingSystemApp-alert"); got != "A subject is deleted with identifier 1" {
			t.Fatalf("unexpected alert header %q", got)
		}
	}

	resp := do(handler, httptest.NewRequest(http.MethodGet, "/api/subjects/1", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestCustomAppNamePrefixesHeaders(t *testing.T) {
	application, err := app.New(app.Stores{}, logger.NewNop())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	handler := NewHandler(application, Options{AppName: "registrar", Logger: logger.NewNop()})

	resp := do(handler, jsonRequest(http.MethodPost, "/api/subjects", marshal(map[string]any{"name": "Math"})))
	if got := resp.Header().Get("X-registrar-alert"); got == "" {
		t.Fatalf("expected alert header under custom app name")
	}
}

var errBroken = errors.New("database is on fire")

func TestStorageFailuresAreOpaque(t *testing.T) {
	application, err := app.New(app.Stores{Subjects: testutil.FailingSubjectStore{Err: errBroken}}, logger.NewNop())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	handler := NewHandler(application, Options{Logger: logger.NewNop()})

	requests := []*http.Request{
		jsonRequest(http.MethodPost, "/api/subjects", marshal(map[string]any{"name": "Math"})),
		jsonRequest(http.MethodPut, "/api/subjects/1", marshal(map[string]any{"id": 1})),
		httptest.NewRequest(http.MethodGet, "/api/subjects", nil),
		httptest.NewRequest(http.MethodGet, "/api/subjects/1", nil),
		httptest.NewRequest(http.MethodDelete, "/api/subjects/1", nil),
	}
	for _, req := range requests {
		resp := do(handler, req)
		if resp.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s: expected 500, got %d", req.Method, req.URL.Path, resp.Code)
		}
		if bytes.Contains(resp.Body.Bytes(), []byte("fire")) {
			t.Fatalf("%s %s: internal cause leaked: %s", req.Method, req.URL.Path, resp.Body.String())
		}
	}
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	application, _ := app.New(app.Stores{}, logger.NewNop())

	up := NewHandler(application, Options{Logger: logger.NewNop(), Pinger: stubPinger{}})
	if resp := do(up, httptest.NewRequest(http.MethodGet, "/healthz", nil)); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	down := NewHandler(application, Options{Logger: logger.NewNop(), Pinger: stubPinger{err: errBroken}})
	resp := do(down, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "DOWN" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	createSubject(t, handler, "Math", "MTH")

	resp := do(handler, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("grading_http_requests_total")) {
		t.Fatalf("expected http metrics in exposition")
	}
}

func TestTraceHeaderSet(t *testing.T) {
	handler := newTestHandler(t)
	resp := do(handler, httptest.NewRequest(http.MethodGet, "/api/subjects", nil))
	if resp.Header().Get("X-Trace-ID") == "" {
		t.Fatalf("expected trace header on response")
	}
}

func TestValidationFailuresNeverWrite(t *testing.T) {
	store := testutil.NewRecordingSubjectStore(memory.New())
	application, err := app.New(app.Stores{Subjects: store}, logger.NewNop())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	handler := NewHandler(application, Options{Logger: logger.NewNop()})

	do(handler, jsonRequest(http.MethodPost, "/api/subjects", marshal(map[string]any{"id": 3, "name": "x"})))
	do(handler, jsonRequest(http.MethodPut, "/api/subjects/1", marshal(map[string]any{"name": "x"})))
	do(handler, jsonRequest(http.MethodPut, "/api/subjects/1", marshal(map[string]any{"id": 2})))
	do(handler, jsonRequest(http.MethodPut, "/api/subjects/7", marshal(map[string]any{"id": 7})))

	if got := store.Calls("SaveSubject"); got != 0 {
		t.Fatalf("expected no writes, got %d", got)
	}
	if got := store.Calls("SubjectExists"); got != 1 {
		t.Fatalf("expected exactly one existence probe, got %d", got)
	}
}

func TestSubjectVanishingAfterExistenceCheck(t *testing.T) {
	application, err := app.New(app.Stores{Subjects: testutil.VanishingSubjectStore{}}, logger.NewNop())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	handler := NewHandler(application, Options{Logger: logger.NewNop()})

	requests := []*http.Request{
		jsonRequest(http.MethodPatch, "/api/subjects/7", marshal(map[string]any{"id": 7, "code": "MTH"})),
		jsonRequest(http.MethodPut, "/api/subjects/7", marshal(map[string]any{"id": 7, "name": "Math"})),
	}
	for _, req := range requests {
		resp := do(handler, req)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d: %s", req.Method, resp.Code, resp.Body.String())
		}
		var body map[string]any
		decodeBody(t, resp, &body)
		if body["message"] != "error.http.404" || body["entityName"] != "subject" {
			t.Fatalf("%s: unexpected body %v", req.Method, body)
		}
	}
}

func newRateLimitedHandler(t *testing.T, trustProxy bool, audit *AuditLog) http.Handler {
	t.Helper()
	application, err := app.New(app.Stores{Subjects: memory.New()}, logger.NewNop())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	return NewHandler(application, Options{
		Logger:            logger.NewNop(),
		RateLimiter:       middleware.NewRateLimiter(1, 1, logger.NewNop()),
		Audit:             audit,
		TrustProxyHeaders: trustProxy,
	})
}

func TestForwardedHeadersIgnoredByDefault(t *testing.T) {
	audit := NewAuditLog(10, nil)
	handler := newRateLimitedHandler(t, false, audit)

	var ok, limited int
	for i := 0; i < 5; i++ {
		req := jsonRequest(http.MethodPost, "/api/subjects", marshal(map[string]any{"name": "Math"}))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("203.0.113.%d", i+1))
		switch resp := do(handler, req); resp.Code {
		case http.StatusCreated:
			ok++
		case http.StatusTooManyRequests:
			limited++
		default:
			t.Fatalf("unexpected status %d", resp.Code)
		}
	}
	if ok != 1 || limited != 4 {
		t.Fatalf("expected 1 allowed and 4 limited, got %d and %d", ok, limited)
	}

	entries := audit.List()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].RemoteAddr != "192.0.2.1:1234" {
		t.Fatalf("audit recorded forwarded address %q", entries[0].RemoteAddr)
	}
}

func TestForwardedHeadersTrustedWhenEnabled(t *testing.T) {
	handler := newRateLimitedHandler(t, true, nil)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		if resp := do(handler, req); resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.Code)
		}
	}
}
