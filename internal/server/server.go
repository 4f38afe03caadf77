// Package server provides HTTP and WebSocket handlers
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	apperrors "github.com/GriffinCanCode/snapocr/internal/errors"
	"github.com/GriffinCanCode/snapocr/internal/ocr"
	"github.com/GriffinCanCode/snapocr/internal/screen"
	"github.com/GriffinCanCode/snapocr/internal/session"
	"github.com/GriffinCanCode/snapocr/internal/trace"
)

// Session is the capture/OCR core the server exposes.
type Session interface {
	Capture(ctx context.Context) (screen.CaptureSet, error)
	Last() (screen.CaptureSet, error)
	Image(index int) ([]byte, error)
	Cancel()
	Recognize(ctx context.Context, image []byte, language string) (*ocr.Result, error)
	RecognizeFile(ctx context.Context, path, language string) (*ocr.Result, error)
	Recognizer() ocr.TextRecognizer
	Subscribe() (<-chan session.Event, func())
}

// Message types.
type Message struct {
	Type string `json:"type"`
}

type EventMessage struct {
	Type     string `json:"type"`
	Displays int    `json:"displays"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// FileRequest is the body of POST /api/ocr/file.
type FileRequest struct {
	Path     string `json:"path"`
	Language string `json:"language"`
}

// ErrorResponse is the body of every failed REST call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"ocr_backend"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	session Session
	origins []string
}

// New creates a new server. allowedOrigins are host patterns (path.Match
// syntax, e.g. "localhost:3000") trusted for cross-origin HTTP and WebSocket
// requests; a leading scheme is ignored. With none, only same-origin browser
// requests are served.
func New(s Session, allowedOrigins []string) *Server {
	origins := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		if o = strings.ToLower(strings.TrimSpace(o)); o != "" {
			origins = append(origins, o)
		}
	}
	return &Server{session: s, origins: origins}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/captures", s.handleCapture)
	mux.HandleFunc("GET /api/captures", s.handleLast)
	mux.HandleFunc("DELETE /api/captures", s.handleClear)
	mux.HandleFunc("GET /screen/{file}", s.handleImage)
	mux.HandleFunc("POST /api/ocr", s.handleRecognize)
	mux.HandleFunc("POST /api/ocr/file", s.handleRecognizeFile)

	// Apply middleware: trace -> CORS
	return corsMiddleware(s.origins, trace.Middleware(mux))
}

// corsMiddleware echoes allowed origins and rejects any other cross-origin
// browser request.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")
		origin := r.Header.Get("Origin")
		if origin != "" {
			switch {
			case originAllowed(origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			case !sameOrigin(r, origin):
				writeError(w, r, apperrors.Newf(apperrors.PermissionDenied, "origin %q not allowed", origin))
				return
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func sameOrigin(r *http.Request, origin string) bool {
	host := originHost(origin)
	return host != "" && host == strings.ToLower(r.Host)
}

func originAllowed(patterns []string, origin string) bool {
	host := originHost(origin)
	if host == "" {
		return false
	}
	for _, p := range patterns {
		if ok, err := path.Match(p, host); err == nil && ok {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.As(err)
	status := appErr.HTTPStatus()

	log := trace.Logger(r.Context())
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.Log(r.Context(), level, "request failed", "path", r.URL.Path, "code", appErr.Code, "error", err)

	writeJSON(w, status, ErrorResponse{Error: appErr.Message, Code: appErr.Code.String()})
}

// imageURL builds file_path values pointing back at this server.
func imageURL(r *http.Request) func(int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return func(i int) string {
		return fmt.Sprintf("%s://%s/screen/%d.bmp", scheme, r.Host, i)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Backend: s.session.Recognizer().Name()})
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "http.capture")
	defer span.End()

	set, err := s.session.Capture(ctx)
	if err != nil {
		span.SetAttr("error", err.Error())
		writeError(w, r, err)
		return
	}
	span.SetAttr("displays", len(set))
	writeJSON(w, http.StatusOK, set.Records(imageURL(r)))
}

func (s *Server) handleLast(w http.ResponseWriter, r *http.Request) {
	set, err := s.session.Last()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set.Records(imageURL(r)))
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.session.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(r.PathValue("file"), ".bmp")
	index, err := strconv.Atoi(name)
	if err != nil || index < 0 {
		writeError(w, r, apperrors.Newf(apperrors.InvalidArgument, "invalid display index %q", name))
		return
	}

	img, err := s.session.Image(index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/bmp")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	_, _ = w.Write(img)
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "http.recognize")
	defer span.End()

	img, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImageBytes))
	if err != nil {
		writeError(w, r, apperrors.Wrap(err, apperrors.InvalidArgument, "read image body"))
		return
	}
	if len(img) == 0 {
		writeError(w, r, apperrors.New(apperrors.InvalidArgument, "request body must contain an image"))
		return
	}

	lang := r.URL.Query().Get("language")
	span.SetAttr("bytes", len(img))
	span.SetAttr("language", lang)

	res, err := s.session.Recognize(ctx, img, lang)
	if err != nil {
		span.SetAttr("error", err.Error())
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecognizeFile(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "http.recognize_file")
	defer span.End()

	var req FileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, apperrors.Wrap(err, apperrors.InvalidArgument, "invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeError(w, r, apperrors.New(apperrors.InvalidArgument, "path is required"))
		return
	}
	span.SetAttr("path", req.Path)

	res, err := s.session.RecognizeFile(ctx, req.Path, req.Language)
	if err != nil {
		span.SetAttr("error", err.Error())
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	// Get trace context from HTTP upgrade request
	baseCtx, cancel := context.WithCancel(r.Context())
	defer cancel()
	log := trace.Logger(baseCtx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	events, unsubscribe := s.session.Subscribe()
	defer unsubscribe()
	go forwardEvents(baseCtx, conn, events)

	rl := &rateLimiter{}
	for {
		var msg Message
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			writeMessage(baseCtx, conn, ErrorMessage{Type: "error", Message: "rate limit exceeded"})
			continue
		}

		ctx, _ := trace.EnsureContext(baseCtx)
		switch msg.Type {
		case "capture":
			if _, err := s.session.Capture(ctx); err != nil {
				appErr := apperrors.As(err)
				writeMessage(ctx, conn, ErrorMessage{Type: "error", Message: appErr.Message, Code: appErr.Code.String()})
			}
		case "clear":
			s.session.Cancel()
		default:
			writeMessage(ctx, conn, ErrorMessage{Type: "error", Message: "unknown message type " + strconv.Quote(msg.Type)})
		}
	}
}

func forwardEvents(ctx context.Context, conn *websocket.Conn, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeMessage(ctx, conn, EventMessage{Type: string(ev.Type), Displays: ev.Displays})
		}
	}
}

func writeMessage(ctx context.Context, conn *websocket.Conn, v any) {
	ctx, cancel := context.WithTimeout(ctx, WriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, v); err != nil {
		slog.Debug("websocket write error", "error", err)
	}
}
