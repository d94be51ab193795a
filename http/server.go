package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/distill"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds how long in-flight requests may run after
// the server is asked to stop.
const DefaultShutdownTimeout = 30 * time.Second

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the extraction HTTP API.
type Server struct {
	ln     net.Listener
	server *http.Server
	mux    *http.ServeMux

	// Addr is the TCP address to listen on, e.g. ":8080".
	Addr string

	URLExtractor     distill.URLExtractor
	FileExtractor    distill.FileExtractor
	PremiumExtractor distill.PremiumExtractor

	// DB is pinged by the health check when set.
	DB Pinger

	// AllowedOrigins lists origins that may call the premium endpoint from a
	// browser. "*" allows any origin.
	AllowedOrigins []string

	// Limiter rate limits extraction endpoints per client IP when set.
	Limiter *KeyLimiter

	// TrustProxy takes the client IP from X-Forwarded-For.
	TrustProxy bool

	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// NewServer returns a Server with its routes registered.
func NewServer() *Server {
	s := &Server{
		mux:             http.NewServeMux(),
		ShutdownTimeout: DefaultShutdownTimeout,
	}
	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	public := func(h http.HandlerFunc) http.Handler {
		return s.cors(corsAny, s.rateLimit(h))
	}
	s.mux.Handle("POST /extract", public(s.handleExtract))
	s.mux.Handle("POST /extract-file", public(s.handleExtractFile))
	s.mux.Handle("POST /extract-premium", s.cors(s.allowListed, s.rateLimit(http.HandlerFunc(s.handleExtractPremium))))
	s.mux.Handle("GET /healthz", http.HandlerFunc(s.handleHealth))

	s.mux.Handle("OPTIONS /extract", s.cors(corsAny, http.HandlerFunc(handlePreflight)))
	s.mux.Handle("OPTIONS /extract-file", s.cors(corsAny, http.HandlerFunc(handlePreflight)))
	s.mux.Handle("OPTIONS /extract-premium", s.cors(s.allowListed, http.HandlerFunc(handlePreflight)))
	s.mux.Handle("OPTIONS /healthz", s.cors(corsAny, http.HandlerFunc(handlePreflight)))

	return s
}

// ServeHTTP assigns a request id, then routes and logs the request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	begin := time.Now()

	id := r.Header.Get(RequestIDHeader)
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)
	r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(sw, r)

	s.logger().Info("request",
		"request_id", id,
		"method", r.Method,
		"path", r.URL.Path,
		"status", sw.status,
		"duration", time.Since(begin),
		"remote", s.clientIP(r),
	)
}

// Open starts listening on Addr.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// URL returns the base URL of the listening server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// Serve handles requests until ctx is canceled, then shuts down gracefully,
// letting in-flight requests finish within ShutdownTimeout. Open must be
// called first.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("server is not listening")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.server.Serve(s.ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// corsPolicy returns the Access-Control-Allow-Origin value for origin, or ""
// to omit CORS headers.
type corsPolicy func(origin string) string

func corsAny(string) string { return "*" }

func (s *Server) allowListed(origin string) string {
	if origin == "" {
		return ""
	}
	if slices.Contains(s.AllowedOrigins, "*") || slices.Contains(s.AllowedOrigins, origin) {
		return origin
	}
	return ""
}

func (s *Server) cors(policy corsPolicy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Add("Vary", "Origin")
		if allow := policy(r.Header.Get("Origin")); allow != "" {
			h.Set("Access-Control-Allow-Origin", allow)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+RequestIDHeader)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)
			h.Set("Access-Control-Max-Age", "600")
		}
		next.ServeHTTP(w, r)
	})
}

func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Limiter != nil && !s.Limiter.Allow(s.clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			s.Error(w, r, distill.Errorf(distill.ERATELIMIT, "too many requests, slow down"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) clientIP(r *http.Request) string {
	if s.TrustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type requestIDKey struct{}

// RequestIDFromContext returns the request id assigned by the server.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// statusWriter records the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
