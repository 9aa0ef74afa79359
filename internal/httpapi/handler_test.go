package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tutorcore/internal/blob"
	"tutorcore/internal/core"
	"tutorcore/internal/infra/persistence/memory"
	"tutorcore/pkg/domain"
)

func newTestHandler(t *testing.T, blobs blob.Store) *Handler {
	t.Helper()
	store := memory.NewStore(core.NewDefaultRulesEngine())
	svc := core.NewService(store)
	h := NewHandler(svc, blobs, slog.New(slog.DiscardHandler))
	h.nowFn = func() time.Time {
		return time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC)
	}
	return h
}

func doRequest(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestGetStateSeedsEmptyStore(t *testing.T) {
	h := newTestHandler(t, nil)
	rr := doRequest(t, h, http.MethodGet, "/api/v1/state", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	state := decodeBody[domain.Snapshot](t, rr)
	if _, ok := state.Students["std-seed-0001"]; !ok {
		t.Fatalf("empty store should be seeded, got %d students", len(state.Students))
	}
	if state.Settings.Credentials["admin"] == "" {
		t.Fatalf("seed credentials missing")
	}
}

func TestGetStateDoesNotReseedPopulatedStore(t *testing.T) {
	h := newTestHandler(t, nil)
	apply := `{"op":"addStudent","payload":{"student":{"name":"Solo"}}}`
	rr := doRequest(t, h, http.MethodPost, "/api/v1/state/apply", apply)
	if rr.Code != http.StatusOK {
		t.Fatalf("apply status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, h, http.MethodGet, "/api/v1/state", "")
	state := decodeBody[domain.Snapshot](t, rr)
	if len(state.Students) != 1 {
		t.Fatalf("populated store must not be reseeded: %d students", len(state.Students))
	}
}

func TestApplyReturnsNewState(t *testing.T) {
	h := newTestHandler(t, nil)
	body := `{"op":"addClass","payload":{"class":{"name":"Algebra","fee":{"type":"monthly","amount":25000}}}}`
	rr := doRequest(t, h, http.MethodPost, "/api/v1/state/apply", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[applyResponse](t, rr)
	if len(resp.State.Classes) != 1 {
		t.Fatalf("expected 1 class in response state, got %d", len(resp.State.Classes))
	}
	for _, cls := range resp.State.Classes {
		if cls.Name != "Algebra" {
			t.Fatalf("class name = %q", cls.Name)
		}
	}
}

func TestApplyErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"op":`, http.StatusBadRequest},
		{"unknown operation", `{"op":"launchRocket","payload":{}}`, http.StatusBadRequest},
		{"missing entity", `{"op":"cancelInvoice","payload":{"id":"inv-missing"}}`, http.StatusNotFound},
		{"invalid payload", `{"op":"generateInvoices","payload":{"year":2024,"month":13}}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, nil)
			rr := doRequest(t, h, http.MethodPost, "/api/v1/state/apply", tc.body)
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d, body %s", rr.Code, tc.want, rr.Body.String())
			}
			resp := decodeBody[errorResponse](t, rr)
			if resp.Error == "" {
				t.Fatalf("error body missing message")
			}
		})
	}
}

func TestApplyDuplicateIDConflicts(t *testing.T) {
	h := newTestHandler(t, nil)
	body := `{"op":"addStudent","payload":{"student":{"id":"std-dup","name":"First"}}}`
	if rr := doRequest(t, h, http.MethodPost, "/api/v1/state/apply", body); rr.Code != http.StatusOK {
		t.Fatalf("first apply = %d", rr.Code)
	}
	rr := doRequest(t, h, http.MethodPost, "/api/v1/state/apply", body)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate id status = %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestResetRestoresSeed(t *testing.T) {
	h := newTestHandler(t, nil)
	apply := `{"op":"addStudent","payload":{"student":{"name":"Transient"}}}`
	if rr := doRequest(t, h, http.MethodPost, "/api/v1/state/apply", apply); rr.Code != http.StatusOK {
		t.Fatalf("apply = %d", rr.Code)
	}

	rr := doRequest(t, h, http.MethodPost, "/api/v1/state/reset", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("reset status = %d, body %s", rr.Code, rr.Body.String())
	}
	state := decodeBody[domain.Snapshot](t, rr)
	if _, ok := state.Students["std-seed-0001"]; !ok {
		t.Fatalf("reset did not restore seed students")
	}
	for id := range state.Students {
		if id != "std-seed-0001" && id != "std-seed-0002" {
			t.Fatalf("non-seed student survived reset: %s", id)
		}
	}
}

func TestExportWritesSnapshotToBlobStore(t *testing.T) {
	blobs := blob.NewMemory()
	h := newTestHandler(t, blobs)

	rr := doRequest(t, h, http.MethodPost, "/api/v1/state/export", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("export status = %d, body %s", rr.Code, rr.Body.String())
	}
	info := decodeBody[blob.Info](t, rr)
	if !strings.HasPrefix(info.Key, exportPrefix) || !strings.HasSuffix(info.Key, ".json") {
		t.Fatalf("export key = %q", info.Key)
	}
	if info.Size == 0 {
		t.Fatalf("export should not be empty")
	}

	rr = doRequest(t, h, http.MethodGet, "/api/v1/state/exports", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	infos := decodeBody[[]blob.Info](t, rr)
	if len(infos) != 1 || infos[0].Key != info.Key {
		t.Fatalf("listing = %+v", infos)
	}
}

func TestExportDisabledWithoutBlobStore(t *testing.T) {
	h := newTestHandler(t, nil)
	if rr := doRequest(t, h, http.MethodPost, "/api/v1/state/export", ""); rr.Code != http.StatusNotImplemented {
		t.Fatalf("export status = %d", rr.Code)
	}
	if rr := doRequest(t, h, http.MethodGet, "/api/v1/state/exports", ""); rr.Code != http.StatusNotImplemented {
		t.Fatalf("list status = %d", rr.Code)
	}
}

func TestListExportsReturnsEmptyArrayNotNull(t *testing.T) {
	h := newTestHandler(t, blob.NewMemory())
	rr := doRequest(t, h, http.MethodGet, "/api/v1/state/exports", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Fatalf("empty listing body = %q", body)
	}
}
