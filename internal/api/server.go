package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ossectail/internal/alerts"
	"ossectail/internal/config"
	"ossectail/internal/metrics"
)

type Server struct {
	cfg      *config.Config
	counters *metrics.Counters
	alerts   *alerts.Store
	logger   *slog.Logger
	version  string
}

type statusResponse struct {
	Status   string           `json:"status"`
	Time     string           `json:"time"`
	Version  string           `json:"version"`
	TailPath string           `json:"tail_path"`
	Driver   string           `json:"driver"`
	Kafka    bool             `json:"kafka"`
	Counters metrics.Snapshot `json:"counters"`
}

func NewServer(cfg *config.Config, counters *metrics.Counters, alertsStore *alerts.Store, logger *slog.Logger, version string) *Server {
	return &Server{cfg: cfg, counters: counters, alerts: alertsStore, logger: logger, version: version}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/alerts/", s.handleAlert)
	return mux
}

// Start serves the read-only status API until ctx ends. It returns nil
// when the API is disabled.
func Start(ctx context.Context, s *Server) *http.Server {
	if s == nil || !s.cfg.API.Enabled {
		if s != nil && s.logger != nil {
			s.logger.Info("api disabled")
		}
		return nil
	}
	if s.logger != nil {
		s.logger.Info("api enabled", "addr", s.cfg.API.Addr)
	}
	httpServer := &http.Server{
		Addr:              s.cfg.API.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp := statusResponse{
		Status:   "ok",
		Time:     time.Now().UTC().Format(time.RFC3339Nano),
		Version:  s.version,
		TailPath: s.cfg.Tail.Path,
		Driver:   s.cfg.Storage.Driver,
		Kafka:    s.cfg.Publish.Kafka.Enabled,
	}
	if s.counters != nil {
		resp.Counters = s.counters.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		limit = n
	}
	list := s.alerts.List(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": list,
		"count":  len(list),
		"total":  s.alerts.Total(),
	})
}

func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/alerts/")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	alert, ok := s.alerts.Find(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
