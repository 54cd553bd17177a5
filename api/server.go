package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"github.com/Ogstra/ogs-traffic/core"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

var errNotLoaded = errors.New("no dataset loaded")

// Server exposes one session dataset over HTTP. Every dataset call is made
// while holding mu, so the dataset itself never sees concurrent use.
type Server struct {
	mu        sync.Mutex
	dataset   *core.Dataset
	sessionID string
	loadedAt  time.Time

	config    *core.Config
	logger    lager.Logger
	logWriter io.Writer

	charts  *chartCache
	watcher *core.Watcher

	lis    net.Listener
	server *http.Server
}

type ServerOption func(*Server)

// WithLogWriter overrides where HTTP access logs go.
func WithLogWriter(w io.Writer) ServerOption {
	return func(s *Server) {
		s.logWriter = w
	}
}

// WithDataset starts the session with an already loaded dataset.
func WithDataset(ds *core.Dataset) ServerOption {
	return func(s *Server) {
		s.setDataset(ds)
	}
}

func NewServer(config *core.Config, logger lager.Logger, opts ...ServerOption) *Server {
	s := &Server{
		config:    config,
		logger:    logger.Session("api"),
		logWriter: os.Stdout,
		charts:    newChartCache(15 * time.Second),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()
	router.Use(s.secure)

	router.HandleFunc("/api/status", s.handleGetStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/dataset", s.handleLoadDataset).Methods(http.MethodPost)
	router.HandleFunc("/api/dataset/file", s.handleLoadDatasetFile).Methods(http.MethodPost)

	router.HandleFunc("/api/records", s.handleGetRecords).Methods(http.MethodGet)
	router.HandleFunc("/api/records", s.handleAddRecord).Methods(http.MethodPost)
	router.HandleFunc("/api/records/range", s.handleGetRecordsInRange).Methods(http.MethodGet)
	router.HandleFunc("/api/records/{position}", s.handleDeleteRecord).Methods(http.MethodDelete)

	router.HandleFunc("/api/stats/average", s.handleGetAverage).Methods(http.MethodGet)
	router.HandleFunc("/api/stats/peak-hour", s.handleGetPeakHour).Methods(http.MethodGet)
	router.HandleFunc("/api/stats/summary", s.handleGetSummary).Methods(http.MethodGet)
	router.HandleFunc("/api/window", s.handleGetWindow).Methods(http.MethodGet)

	router.HandleFunc("/api/export", s.handleExport).Methods(http.MethodGet)
	router.HandleFunc("/api/chart", s.handleChart).Methods(http.MethodGet)

	return handlers.LoggingHandler(s.logWriter, router)
}

// LoadFile loads path into a fresh session dataset.
func (s *Server) LoadFile(path string) error {
	ds := core.NewDataset()
	if err := ds.LoadFile(path); err != nil {
		return err
	}
	s.mu.Lock()
	s.setDataset(ds)
	s.mu.Unlock()
	s.logger.Info("dataset-loaded", lager.Data{"path": path, "records": ds.Len()})
	return nil
}

// WatchFile reloads path into a fresh session whenever it changes on disk.
// A reload that fails keeps the current dataset.
func (s *Server) WatchFile(path string, interval time.Duration) {
	s.watcher = core.NewWatcher(path, interval, func(path string) {
		if err := s.LoadFile(path); err != nil {
			s.logger.Error("reload-failed", err, lager.Data{"path": path})
		}
	})
	s.watcher.Start()
	s.logger.Info("watching", lager.Data{"path": path, "interval": interval.String()})
}

// Start opens the listener on the configured address.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	s.lis = lis
	s.server = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("listening", lager.Data{"addr": lis.Addr().String()})
	return nil
}

// Addr returns the address the listener is bound to.
func (s *Server) Addr() string {
	return s.lis.Addr().String()
}

// Serve blocks until the server is stopped.
func (s *Server) Serve() error {
	err := s.server.Serve(s.lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down, finishing active requests.
func (s *Server) Stop() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// setDataset must be called with mu held, or before the server is shared.
func (s *Server) setDataset(ds *core.Dataset) {
	s.dataset = ds
	s.sessionID = uuid.NewString()
	s.loadedAt = time.Now()
	s.charts.clear()
}

// withDataset runs fn against the session dataset under the lock.
func (s *Server) withDataset(fn func(ds *core.Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset == nil {
		return errNotLoaded
	}
	return fn(s.dataset)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrParse),
		errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrInvalidRange):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrIndexOutOfRange):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrEmptyDataset),
		errors.Is(err, core.ErrNotEnoughPoints),
		errors.Is(err, errNotLoaded):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request-failed", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encode will never fail with known data.
	_ = json.NewEncoder(w).Encode(v)
}
