package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
)

// Router defaults. Item documents are small; 1 MB leaves room for long notes.
const (
	DefaultRateLimitPerMinute = 100
	DefaultBodyLimitBytes     = 1 << 20
	DefaultRequestTimeout     = 30 * time.Second
)

// docsPrefix is served with a relaxed CSP so the Swagger UI can run its inline scripts.
const docsPrefix = "/swagger/"

// ServerConfig holds the options for NewRouter. Zero values select the defaults.
type ServerConfig struct {
	ServiceName   string
	IsDevelopment bool
	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// Pass "*" (dev only) to allow all origins.
	CORSAllowedOrigins string
	RateLimitPerMinute int
	BodyLimitBytes     int64
	RequestTimeout     time.Duration
}

// Middlewares are the process-specific layers NewRouter installs around its
// own stack. Nil entries are skipped.
type Middlewares struct {
	Recovery func(http.Handler) http.Handler
	Sentry   func(http.Handler) http.Handler
	Otel     func(http.Handler) http.Handler
	Logger   func(http.Handler) http.Handler
}

// NewRouter returns a chi.Mux with the service's standard middleware stack.
//
// Order (outermost → innermost): recovery, sentry, request id, otel, request
// log, real ip, per-IP rate limit, CORS, body limit, timeout, security headers.
// Recovery sits outside sentry so panics re-raised by sentry still become 500s.
func NewRouter(cfg ServerConfig, mw Middlewares) *chi.Mux {
	limit := cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = DefaultRateLimitPerMinute
	}
	bodyLimit := cfg.BodyLimitBytes
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimitBytes
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	use := func(m func(http.Handler) http.Handler) {
		if m != nil {
			r.Use(m)
		}
	}
	use(mw.Recovery)
	use(mw.Sentry)
	r.Use(middleware.RequestID)
	use(mw.Otel)
	use(mw.Logger)
	r.Use(
		middleware.RealIP,
		httprate.LimitByIP(limit, time.Minute),
		CORSMiddleware(cfg.CORSAllowedOrigins),
		RequestBodyLimit(bodyLimit),
		middleware.Timeout(timeout),
		SecurityHeaders(cfg.IsDevelopment),
	)
	return r
}

// SecurityHeaders sets HSTS, framing, sniffing and referrer headers plus a
// strict CSP. Paths under /swagger/ get a CSP that allows inline scripts and styles.
func SecurityHeaders(isDevelopment bool) func(http.Handler) http.Handler {
	opts := secure.Options{
		STSSeconds:            63072000,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), usb=(), magnetometer=(), gyroscope=()",
		IsDevelopment:         isDevelopment,
	}
	strict := secure.New(opts)

	opts.ContentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"
	docs := secure.New(opts)

	return func(next http.Handler) http.Handler {
		strictHandler := strict.Handler(next)
		docsHandler := docs.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, docsPrefix) {
				docsHandler.ServeHTTP(w, r)
				return
			}
			strictHandler.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware returns a CORS handler restricted to the given allowed origins.
// allowedOrigins is a comma-separated list (e.g. "https://app.example.com,http://localhost:3000").
// Pass "*" to allow all origins (development only). X-Total-Count is exposed
// so browser clients can page through item lists.
func CORSMiddleware(allowedOrigins string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   parseOrigins(allowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Total-Count"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

func parseOrigins(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// RequestBodyLimit caps the request body at maxBytes. Reads past the cap fail
// with *http.MaxBytesError, which validator.ValidateRequest turns into a 413.
func RequestBodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// NewServer returns an *http.Server whose write timeout outlasts the router's
// request timeout, so timed-out handlers can still send their 503.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
