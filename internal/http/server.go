package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"lunchreports/internal/cache"
	"lunchreports/internal/core"
	"lunchreports/internal/log"
	"lunchreports/internal/middleware/ratelimit"
	"lunchreports/internal/middleware/security"
	"lunchreports/internal/middleware/trace"
	"lunchreports/internal/ports"
	"lunchreports/internal/services"
	appweb "lunchreports/web"
)

const (
	defaultReportCacheSize = 64
	defaultReportCacheTTL  = 30 * time.Second
	cacheCleanupInterval   = 5 * time.Minute
	reportBuildTimeout     = 15 * time.Second
)

// Options tune a Server. Zero values select the defaults.
type Options struct {
	Logger          *log.Logger
	Publisher       ports.ExportPublisher
	ReportCacheSize int
	ReportCacheTTL  time.Duration
	RateLimit       *ratelimit.Config
	TrustedProxies  []string
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *log.Logger
	events    *log.StructuredLogger

	store     ports.Store
	reports   *services.ReportService
	orders    *services.OrderService
	publisher ports.ExportPublisher

	reportCache  *cache.LRUCache[cache.Rendered]
	cacheManager *cache.Manager
	builds       singleflight.Group
	// cacheGen is bumped whenever orders change the reports.
	cacheGen atomic.Uint64

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	ordersCreated   atomic.Int64
	exportsQueued   atomic.Int64
	reportsRendered atomic.Int64
	renderFailures  atomic.Int64
	uptime          time.Time
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server backed by store.
func NewServer(addr string, store ports.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	cacheSize := opts.ReportCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultReportCacheSize
	}
	cacheTTL := opts.ReportCacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultReportCacheTTL
	}
	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimit != nil {
		rlConfig = *opts.RateLimit
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:           logger,
		events:           log.NewStructuredLogger(logger),
		store:            store,
		reports:          services.NewReportService(store, logger),
		orders:           services.NewOrderService(store, logger),
		publisher:        opts.Publisher,
		reportCache:      cache.NewLRUCache[cache.Rendered](cacheSize, cacheTTL),
		cacheManager:     cache.NewManager(logger.Logger.With(log.FieldComponent, log.ComponentCache)),
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	reports := log.ComponentMiddleware(log.ComponentReport)
	mux.Handle("GET /order_report/", reports(s.reportHandler(core.KindSingleItem)))
	mux.Handle("GET /combined_order_report/", reports(s.reportHandler(core.KindCombined)))
	mux.Handle("/orders", log.ComponentMiddleware(log.ComponentOrder)(http.HandlerFunc(s.handleCreateOrder)))
	mux.Handle("/exports", log.ComponentMiddleware(log.ComponentAMQP)(http.HandlerFunc(s.handleQueueExport)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, s.rejectRateLimited)(mux)
	s.Handler = s.traceMiddleware.Middleware(
		detector.Middleware(
			headers.Middleware(limited)))

	return s
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests, try again in a minute").
		Header("Retry-After", "60").
		TriggerErrorNotification("Too many requests").
		Write(w)
}

// Shutdown stops background cleanup and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
