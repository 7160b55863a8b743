package main

import (
	"context"
	"embed"
	"errors"
	"io"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sagernet/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bodul/strands/internal/board"
	"github.com/bodul/strands/internal/config"
	"github.com/bodul/strands/internal/logx"
	"github.com/bodul/strands/internal/model"
	"github.com/bodul/strands/internal/present"
	imgrender "github.com/bodul/strands/internal/render"
	"github.com/bodul/strands/internal/solve"
	"github.com/bodul/strands/internal/vision"
)

//go:embed frontend
var frontendFS embed.FS

const maxUploadSize = 10 << 20 // 10 MB

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter allows n events per interval and bursts of n.
func newRateLimiter(n int, interval time.Duration) *rateLimiter {
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(interval / time.Duration(n)),
		burst:    n,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// prune forgets visitors idle for longer than maxIdle.
func (rl *rateLimiter) prune(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if time.Since(v.lastSeen) > maxIdle {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			jsonError(w, r, "too many requests, try again later", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Server is the main HTTP server.
type Server struct {
	router   chi.Router
	store    *Store
	scanner  vision.Scanner
	sse      *Broadcaster
	logger   *zap.Logger
	uploadRL *rateLimiter
	editRL   *rateLimiter
}

// NewServer creates a configured HTTP server. A nil scanner disables photo
// import.
func NewServer(store *Store, scanner vision.Scanner, logger *zap.Logger, limits config.Server) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:   chi.NewRouter(),
		store:    store,
		scanner:  scanner,
		sse:      NewBroadcaster(),
		logger:   logger,
		uploadRL: newRateLimiter(limits.UploadsPerMinute, time.Minute),
		editRL:   newRateLimiter(limits.EditsPerSecond, time.Second),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(s.requestLogger)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}).Handler)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.sessionCtx)
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.With(s.editRL.middleware).Put("/cells", s.handleSetCell)
			r.With(s.editRL.middleware).Post("/backspace", s.handleBackspace)
			r.Post("/reset", s.handleReset)
			r.Post("/solve", s.handleSolve)
			r.Get("/solutions", s.handleSolutions)
			r.Get("/solutions/{n}/image.png", s.handleSolutionImage)
			r.With(s.uploadRL.middleware).Post("/scan", s.handleScan)
			r.Get("/events", s.handleEvents)
		})
	})

	frontendDir, _ := fs.Sub(frontendFS, "frontend")
	r.Handle("/*", http.FileServer(http.FS(frontendDir)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Janitor prunes idle sessions and rate limiter entries every interval until
// done is closed.
func (s *Server) Janitor(done <-chan struct{}, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if n := s.store.Prune(maxIdle); n > 0 {
				s.logger.Info("pruned idle sessions", zap.Int("count", n))
			}
			s.uploadRL.prune(maxIdle)
			s.editRL.prune(maxIdle)
		}
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := logx.WithLogger(r.Context(), s.logger.With(zap.String("path", r.URL.Path)))
		next.ServeHTTP(ww, r.WithContext(ctx))
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)))
	})
}

type sessionKey struct{}

func contextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// sessionFrom returns the session loaded by sessionCtx.
func sessionFrom(r *http.Request) *Session {
	return r.Context().Value(sessionKey{}).(*Session)
}

func (s *Server) sessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.store.GetSession(chi.URLParam(r, "id"))
		if sess == nil {
			jsonError(w, r, "session not found", http.StatusNotFound)
			return
		}
		ctx := r.Context()
		ctx = logx.WithLogger(ctx, logx.FromContext(ctx).With(zap.String("session", sess.ID)))
		next.ServeHTTP(w, r.WithContext(contextWithSession(ctx, sess)))
	})
}

// --- Session handlers ---

// POST /api/sessions: start a session with an empty board.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.store.CreateSession()
	sess.OnSolveChange(func(snap solve.Snapshot) {
		s.publish(sess, Event{Type: "solve_state", Data: snap})
	})

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, sess.State())
}

// GET /api/sessions: list live sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.ListSessions()
	type item struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]item, len(sessions))
	for i, sess := range sessions {
		out[i] = item{ID: sess.ID, CreatedAt: sess.CreatedAt}
	}
	render.JSON(w, r, out)
}

// GET /api/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, sessionFrom(r).State())
}

// DELETE /api/sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.store.DeleteSession(sessionFrom(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

type cellRequest struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

type cellResponse struct {
	Row   int         `json:"row"`
	Col   int         `json:"col"`
	Value string      `json:"value"`
	Focus model.Coord `json:"focus"`
}

// PUT /api/sessions/{id}/cells: write one cell and advance focus.
func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req cellRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		jsonError(w, r, "invalid request", http.StatusBadRequest)
		return
	}

	c := model.Coord{Row: req.Row, Col: req.Col}
	value, focus, err := sess.Input(c, req.Value)
	if err != nil {
		jsonError(w, r, "position out of bounds", http.StatusBadRequest)
		return
	}
	s.publishCell(sess, c, value)
	render.JSON(w, r, cellResponse{Row: c.Row, Col: c.Col, Value: value, Focus: focus})
}

// POST /api/sessions/{id}/backspace: backward delete at a cell.
func (s *Server) handleBackspace(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req cellRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		jsonError(w, r, "invalid request", http.StatusBadRequest)
		return
	}

	c := model.Coord{Row: req.Row, Col: req.Col}
	value, focus, err := sess.Backspace(c)
	if err != nil {
		jsonError(w, r, "position out of bounds", http.StatusBadRequest)
		return
	}
	s.publishCell(sess, c, value)
	render.JSON(w, r, cellResponse{Row: c.Row, Col: c.Col, Value: value, Focus: focus})
}

func (s *Server) publishCell(sess *Session, c model.Coord, value string) {
	s.publish(sess, Event{Type: "cell_update", Data: map[string]any{
		"row":   c.Row,
		"col":   c.Col,
		"value": value,
	}})
}

func (s *Server) publish(sess *Session, evt Event) {
	if err := s.sse.Broadcast(sess.ID, evt); err != nil {
		s.logger.Warn("broadcast event", zap.String("session", sess.ID), zap.String("type", evt.Type), zap.Error(err))
	}
}

// POST /api/sessions/{id}/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.Reset()
	state := sess.State()
	s.publish(sess, Event{Type: "reset", Data: state})
	render.JSON(w, r, state)
}

type solveRequest struct {
	WordCount        *int   `json:"wordcount"`
	Forbidden        string `json:"forbidden"`
	FindAllSolutions bool   `json:"findAllSolutions"`
}

type solveResponse struct {
	solve.Snapshot
	Views []present.View `json:"views"`
}

// POST /api/sessions/{id}/solve: submit the board and wait for the reply.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req solveRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, r, "invalid request", http.StatusBadRequest)
		return
	}
	params := solve.Params{WordCount: -1, Forbidden: req.Forbidden, FindAllSolutions: req.FindAllSolutions}
	if req.WordCount != nil {
		params.WordCount = *req.WordCount
	}
	snap, err := sess.Submit(r.Context(), params)
	if errors.Is(err, errSolveInProgress) {
		jsonError(w, r, err.Error(), http.StatusConflict)
		return
	}

	switch {
	case errors.Is(snap.Result.Err, solve.ErrIncompleteGrid):
		render.Status(r, http.StatusUnprocessableEntity)
	case snap.Result.Failed():
		render.Status(r, http.StatusBadGateway)
	}
	render.JSON(w, r, solveResponse{Snapshot: snap, Views: sess.Views()})
}

// GET /api/sessions/{id}/solutions: presenter views of the current result.
func (s *Server) handleSolutions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, sessionFrom(r).Views())
}

// GET /api/sessions/{id}/solutions/{n}/image.png: one solution as PNG.
func (s *Server) handleSolutionImage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	views := sess.Views()
	if err != nil || n < 0 || n >= len(views) {
		jsonError(w, r, "solution not found", http.StatusNotFound)
		return
	}

	data, err := imgrender.PNG(sess.Cells(), &views[n])
	if err != nil {
		logx.FromContext(r.Context()).Error("render solution", zap.Error(err))
		jsonError(w, r, "failed to render solution", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

// POST /api/sessions/{id}/scan: fill the board from a photo.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.scanner == nil {
		jsonError(w, r, "photo import is not configured", http.StatusServiceUnavailable)
		return
	}
	sess := sessionFrom(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, r, "image too large (max 10 MB)", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		jsonError(w, r, "field 'image' is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !allowedMIME[mimeType] {
		jsonError(w, r, "accepted formats: JPEG or PNG", http.StatusBadRequest)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, r, "failed to read image", http.StatusInternalServerError)
		return
	}

	st := sess.State()
	rows, err := s.scanner.Scan(r.Context(), imageData, mimeType, st.Rows, st.Cols)
	if err != nil {
		logx.FromContext(r.Context()).Warn("scan board", zap.Error(err))
		jsonError(w, r, "could not read the board from the photo", http.StatusBadGateway)
		return
	}
	if err := sess.Load(rows); err != nil {
		if errors.Is(err, board.ErrShape) {
			jsonError(w, r, "scanned board has the wrong shape", http.StatusBadGateway)
			return
		}
		jsonError(w, r, "failed to load board", http.StatusInternalServerError)
		return
	}

	state := sess.State()
	s.publish(sess, Event{Type: "board", Data: state})
	render.JSON(w, r, state)
}

// GET /api/sessions/{id}/events: SSE stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.sse.ServeSSE(w, r, sess.ID, &Event{Type: "session_state", Data: sess.State()})
}

// --- Helpers ---

func jsonError(w http.ResponseWriter, r *http.Request, msg string, code int) {
	render.Status(r, code)
	render.JSON(w, r, render.M{"error": msg})
}
