package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ossectail/internal/alerts"
	"ossectail/internal/config"
	"ossectail/internal/metrics"
	"ossectail/internal/model"
)

func newTestServer() (*Server, *metrics.Counters, *alerts.Store) {
	counters := metrics.NewCounters()
	store := alerts.NewStore(10)
	return NewServer(config.DefaultConfig(), counters, store, nil, "test"), counters, store
}

func TestStatusReportsCounters(t *testing.T) {
	s, counters, _ := newTestServer()
	counters.LineRead()
	counters.AlertSaved()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code: %d", rec.Code)
	}
	var resp statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Counters.LinesRead != 1 || resp.Counters.AlertsSaved != 1 {
		t.Fatalf("counters: %+v", resp.Counters)
	}
	if resp.Driver != "mysql" || resp.Version != "test" {
		t.Fatalf("unexpected status: %+v", resp)
	}
}

func TestAlertsListAndFind(t *testing.T) {
	s, _, store := newTestServer()
	store.Add(model.Alert{OSSECID: "1297702559.16083181", SrcIP: "128.91.34.6"})
	store.Add(model.Alert{OSSECID: "1297702560.1"})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts?limit=1", nil))
	var list struct {
		Alerts []model.Alert `json:"alerts"`
		Count  int           `json:"count"`
		Total  int64         `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 1 || list.Total != 2 || list.Alerts[0].OSSECID != "1297702560.1" {
		t.Fatalf("list: %+v", list)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts/1297702559.16083181", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("find status: %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status: %d", rec.Code)
	}
}

func TestAlertsRejectsBadLimit(t *testing.T) {
	s, _, _ := newTestServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alerts?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("post health: %d", rec.Code)
	}
}
