package audio

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"voice-notes/internal/domain"
)

const (
	maxAudioBytes = 10 * 1024 * 1024
	maxTextBytes  = 4096
)

// HTTPSource accepts recorded clips or already-typed text over HTTP and
// queues them for the next prompt.
type HTTPSource struct {
	addr        string
	server      *http.Server
	audioChan   chan []byte
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	router      chi.Router
	closeOnce   sync.Once
	rateLimiter *RateLimiter
	authToken   string
}

func NewHTTPSource(addr string, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:        addr,
		audioChan:   make(chan []byte, 10),
		logger:      logger,
		rateLimiter: NewRateLimiter(30, time.Minute), // 30 requests per minute per IP
		authToken:   authToken,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(h.rateLimiter.Middleware)
		r.Use(h.requireToken)
		r.Post("/audio", h.handleAudio)
		r.Post("/text", h.handleText)
	})
	r.Get("/health", h.handleHealth)

	h.router = r
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

func (h *HTTPSource) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		h.logger.Info("HTTP audio server starting", "addr", ln.Addr().String())
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() {
		close(h.audioChan)
	})
	h.running = false
	return nil
}

func (h *HTTPSource) NextCommand(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case audio, ok := <-h.audioChan:
		if !ok {
			return nil, fmt.Errorf("audio channel closed")
		}
		return audio, nil
	}
}

func (h *HTTPSource) Handler() http.Handler {
	return h.router
}

// requireToken enforces the configured token, read from X-Auth-Token or the
// token query parameter. An empty token disables the check.
func (h *HTTPSource) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.authToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(h.authToken)) != 1 {
			h.logger.Warn("unauthorized request", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPSource) handleAudio(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
	if err != nil {
		h.logger.Error("reading audio body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	if !h.enqueue(data) {
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("received audio via HTTP", "bytes", len(data))
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "bytes": len(data)})
}

func (h *HTTPSource) handleText(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxTextBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	if !h.enqueue([]byte(domain.TextCommandPrefix + text)) {
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("received text via HTTP", "text", text)
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "text": text})
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	running := h.running
	queueSize := len(h.audioChan)
	h.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{"status": status, "running": running, "queue_size": queueSize})
}

// enqueue refuses new payloads once the source is stopped so a send never
// races with closing the channel.
func (h *HTTPSource) enqueue(data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running && h.server != nil {
		return false
	}

	select {
	case h.audioChan <- data:
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
