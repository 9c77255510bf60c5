// Package server provides the browser dashboard: a loopback HTTP service
// holding the summary of the most recent CSV upload.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/azcost/internal/export"
	"github.com/theirongolddev/azcost/internal/model"
	"github.com/theirongolddev/azcost/internal/pipeline"
	"github.com/theirongolddev/azcost/internal/source"
)

//go:embed assets/index.html
var indexHTML []byte

// Config controls the server runtime behavior.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	EventsBuffer   int
	AllowedOrigins []string
	ParseOptions   source.ParseOptions
	Options        pipeline.Options
	Logger         logrus.FieldLogger
}

// State is the upload lifecycle position.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Event types published to /api/v1/events and the stream.
const (
	EventUploadStarted = "upload_started"
	EventSummaryReady  = "summary_ready"
	EventUploadFailed  = "upload_failed"
	EventStatus        = "status"
)

// Event is emitted on every state transition.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	UploadID  string    `json:"upload_id,omitempty"`
	FileName  string    `json:"file_name,omitempty"`
	State     State     `json:"state"`
	TotalCost string    `json:"total_cost,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Status is served at /api/v1/status.
type Status struct {
	State           State     `json:"state"`
	StartedAt       time.Time `json:"started_at"`
	UploadID        string    `json:"upload_id,omitempty"`
	FileName        string    `json:"file_name,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
	UploadCount     int64     `json:"upload_count"`
	Records         int       `json:"records"`
	TotalCost       string    `json:"total_cost,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service holds the session state and serves the HTTP API.
type Service struct {
	cfg     Config
	log     logrus.FieldLogger
	metrics *metrics

	mu          sync.RWMutex
	startedAt   time.Time
	state       State
	uploadID    string
	fileName    string
	updatedAt   time.Time
	uploadCount int64
	lastError   string
	summary     *model.DashboardSummary
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service in the idle state.
func New(cfg Config) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return &Service{
		cfg:       cfg,
		log:       cfg.Logger.WithField("component", "server"),
		metrics:   newMetrics(),
		startedAt: time.Now(),
		state:     StateIdle,
		subs:      make(map[int]chan Event),
	}
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// Request contexts end with the group so open streams unblock shutdown.
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		s.log.WithField("addr", s.cfg.Addr).Info("dashboard listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dashboard http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Handler returns the HTTP routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  s.log.WithField("component", "http"),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/api/v1", func(r chi.Router) {
		// The stream stays open, so it is outside the request timeout.
		r.Get("/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Post("/upload", s.handleUpload)
			r.Get("/summary", s.handleSummary)
			r.Get("/status", s.handleStatus)
			r.Get("/events", s.handleEvents)
			r.Get("/export/{format}", s.handleExport)
		})
	})

	return r
}

// Ingest parses and aggregates one upload, replacing the current summary
// on success. It fails with a CONFLICT APIError while another upload is
// loading.
func (s *Service) Ingest(name string, r io.Reader) (model.DashboardSummary, error) {
	id, err := s.begin(name)
	if err != nil {
		return model.DashboardSummary{}, err
	}

	log := s.log.WithFields(logrus.Fields{"upload_id": id, "file": name})
	log.Debug("upload started")
	start := time.Now()

	res, err := pipeline.LoadReader(r, name, s.cfg.ParseOptions, s.cfg.Options, nil)
	s.metrics.uploadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.fail(err)
		log.WithError(err).Warn("upload failed")
		return model.DashboardSummary{}, err
	}

	s.complete(res.Summary)
	log.WithFields(logrus.Fields{
		"records":    res.Summary.KPIs.RecordCount,
		"total_cost": res.Summary.TotalCost.String(),
		"elapsed":    time.Since(start).Round(time.Millisecond).String(),
	}).Info("summary ready")
	return res.Summary, nil
}

func (s *Service) begin(name string) (string, error) {
	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return "", newConflictError("an upload is already being processed")
	}
	id := uuid.NewString()
	s.state = StateLoading
	s.uploadID = id
	s.fileName = name
	s.updatedAt = time.Now()
	s.lastError = ""
	ev := s.newEventLocked(EventUploadStarted, "")
	s.mu.Unlock()

	s.publishEvent(ev)
	return id, nil
}

func (s *Service) complete(summary model.DashboardSummary) {
	s.mu.Lock()
	s.state = StateReady
	s.summary = &summary
	s.updatedAt = time.Now()
	s.uploadCount++
	ev := s.newEventLocked(EventSummaryReady, "")
	ev.TotalCost = summary.TotalCost.String()
	s.mu.Unlock()

	s.metrics.uploads.WithLabelValues("ok").Inc()
	s.metrics.observeSummary(summary, summary.Source.Bytes)
	s.publishEvent(ev)
}

func (s *Service) fail(err error) {
	msg := pipeline.UserMessage(err)

	s.mu.Lock()
	s.state = StateError
	s.lastError = msg
	s.updatedAt = time.Now()
	ev := s.newEventLocked(EventUploadFailed, msg)
	s.mu.Unlock()

	result := "processing_error"
	if pipeline.IsParseError(err) {
		result = "parse_error"
	}
	s.metrics.uploads.WithLabelValues(result).Inc()
	s.publishEvent(ev)
}

// newEventLocked must be called with s.mu held for writing.
func (s *Service) newEventLocked(typ, msg string) Event {
	s.nextEventID++
	return Event{
		ID:        s.nextEventID,
		Type:      typ,
		Timestamp: time.Now(),
		UploadID:  s.uploadID,
		FileName:  s.fileName,
		State:     s.state,
		Message:   msg,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// Summary returns the current summary, if any.
func (s *Service) Summary() (model.DashboardSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return model.DashboardSummary{}, false
	}
	return *s.summary, true
}

// Status returns a snapshot of the session state.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:           s.state,
		StartedAt:       s.startedAt,
		UploadID:        s.uploadID,
		FileName:        s.fileName,
		UpdatedAt:       s.updatedAt,
		UploadCount:     s.uploadCount,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	if s.summary != nil {
		st.Records = s.summary.KPIs.RecordCount
		st.TotalCost = s.summary.TotalCost.String()
	}
	return st
}

func (s *Service) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes
	if r.ContentLength > limit {
		newPayloadTooLargeError(limit).Write(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	part, err := filePart(r)
	if err != nil {
		fromLoadError(err, limit).Write(w, r)
		return
	}
	defer func() { _ = part.Close() }()

	name := part.FileName()
	if name == "" {
		name = "upload.csv"
	}

	summary, err := s.Ingest(name, part)
	if err != nil {
		fromLoadError(err, limit).Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// filePart streams the multipart "file" field without buffering the
// upload to disk.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, newBadRequestError("expected a multipart/form-data upload")
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, newBadRequestError(`missing "file" field`)
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, newBadRequestError("reading upload: " + err.Error())
		}
		if part.FormName() == "file" {
			return part, nil
		}
		_ = part.Close()
	}
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.Summary()
	if !ok {
		newNotFoundError("no summary yet; upload a CSV file first").Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		newBadRequestError(err.Error()).Write(w, r)
		return
	}
	summary, ok := s.Summary()
	if !ok {
		newNotFoundError("no summary yet; upload a CSV file first").Write(w, r)
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="azcost_report.%s"`, f))
	if err := export.Write(w, f, summary); err != nil {
		s.log.WithError(err).WithField("format", f).Error("export failed")
		newInternalError("export failed").Write(w, r)
	}
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		newInternalError("streaming unsupported").Write(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current state immediately.
	st := s.Status()
	writeSSE(w, Event{
		Type:      EventStatus,
		Timestamp: time.Now(),
		UploadID:  st.UploadID,
		FileName:  st.FileName,
		State:     st.State,
		TotalCost: st.TotalCost,
		Message:   st.LastError,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	s.metrics.subscribers.Set(float64(len(s.subs)))
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
	s.metrics.subscribers.Set(float64(len(s.subs)))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
