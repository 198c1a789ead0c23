package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hindsite/internal/model"
	"hindsite/internal/pipeline"
	"hindsite/internal/store"
)

type fakeCards struct {
	cards  []store.CardRow
	issues []store.IssueRecord
	err    error
}

func (f *fakeCards) ListCards(context.Context) ([]store.CardRow, error) {
	return f.cards, f.err
}

func (f *fakeCards) ListIssues(context.Context) ([]store.IssueRecord, error) {
	return f.issues, f.err
}

type fakeImporter struct {
	err   error
	calls int
}

func (f *fakeImporter) StartImport(context.Context) error {
	f.calls++
	return f.err
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestServer_Healthz(t *testing.T) {
	s := NewServer(&fakeCards{}, &fakeImporter{}, nil)

	w := doRequest(t, s, http.MethodGet, "/healthz")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestServer_GetCards(t *testing.T) {
	cards := &fakeCards{cards: []store.CardRow{
		{Card: model.Card{IssueID: "iss-1", Claim: "MySpace peaked before the fall.", ThenStart: model.IntPtr(2006)}, IssueTitle: "T"},
	}}
	s := NewServer(cards, &fakeImporter{}, nil)

	w := doRequest(t, s, http.MethodGet, "/api/cards")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body struct {
		Cards []store.CardRow `json:"cards"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body, got %v", err)
	}
	if len(body.Cards) != 1 || body.Cards[0].Claim != "MySpace peaked before the fall." {
		t.Errorf("Expected card in response, got %+v", body.Cards)
	}
}

func TestServer_GetCards_EmptyIsArray(t *testing.T) {
	s := NewServer(&fakeCards{}, &fakeImporter{}, nil)

	w := doRequest(t, s, http.MethodGet, "/api/cards")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"cards":[]`) {
		t.Errorf("Expected empty array instead of null, got %s", w.Body.String())
	}
}

func TestServer_GetCards_StoreError(t *testing.T) {
	s := NewServer(&fakeCards{err: errors.New("db locked")}, &fakeImporter{}, nil)

	w := doRequest(t, s, http.MethodGet, "/api/cards")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

func TestServer_GetIssues(t *testing.T) {
	cards := &fakeCards{issues: []store.IssueRecord{
		{Issue: model.Issue{ID: "iss-1", Title: "T"}, Periods: []string{"early-2000s"}},
	}}
	s := NewServer(cards, &fakeImporter{}, nil)

	w := doRequest(t, s, http.MethodGet, "/api/issues")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"iss-1"`) {
		t.Errorf("Expected issue in response, got %s", w.Body.String())
	}
}

func TestServer_PostImport_Accepted(t *testing.T) {
	importer := &fakeImporter{}
	s := NewServer(&fakeCards{}, importer, nil)

	w := doRequest(t, s, http.MethodPost, "/api/import")
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", w.Code)
	}
	if importer.calls != 1 {
		t.Errorf("Expected one import trigger, got %d", importer.calls)
	}
}

func TestServer_PostImport_ConflictWhenRunning(t *testing.T) {
	importer := &fakeImporter{err: pipeline.ErrImportInProgress}
	s := NewServer(&fakeCards{}, importer, nil)

	w := doRequest(t, s, http.MethodPost, "/api/import")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 while a run is in flight, got %d", w.Code)
	}
}

func TestServer_PostImport_OtherError(t *testing.T) {
	importer := &fakeImporter{err: errors.New("store offline")}
	s := NewServer(&fakeCards{}, importer, nil)

	w := doRequest(t, s, http.MethodPost, "/api/import")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}
