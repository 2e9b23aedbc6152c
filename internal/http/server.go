package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"finsight/internal/assistant"
	"finsight/internal/classifier"
	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/log"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/middleware/security"
	"finsight/internal/middleware/trace"
	"finsight/internal/receipt"
	"finsight/internal/services"
	"finsight/internal/tax"
)

type (
	Classifier interface {
		Classify(text string) (classifier.Prediction, error)
		Loaded() bool
	}

	Forecaster interface {
		Forecast(ctx context.Context, history []core.MonthlyRecord, periods int) (core.ForecastResult, error)
	}

	ReceiptExtractor interface {
		Extract(ctx context.Context, data []byte) receipt.Result
	}

	Assistant interface {
		Chat(ctx context.Context, req assistant.Request) assistant.Reply
	}

	Ledger interface {
		RecordTransaction(ctx context.Context, tx core.Transaction) (services.RecordResult, error)
		History(ctx context.Context, months int) ([]core.MonthlyRecord, error)
		Forecast(ctx context.Context, months, periods int) (core.ForecastResult, error)
		Summary(ctx context.Context, months int) (string, []core.MonthlyRecord, error)
		Totals(ctx context.Context, from, to core.Date) (ledger.PeriodTotals, error)
		CategoryBreakdown(ctx context.Context, from, to core.Date, typ core.TransactionType) ([]ledger.CategoryTotal, error)
		CashFlow(ctx context.Context, from, to core.Date, g ledger.Granularity) ([]ledger.CashFlowPoint, error)
		TaxEstimate(ctx context.Context, year int) (tax.Estimate, error)
		Ready(ctx context.Context) error
	}
)

// Deps are the collaborators behind the API routes. Ledger may be nil, in
// which case the ledger routes answer 503.
type Deps struct {
	Classifier Classifier
	Forecaster Forecaster
	Receipts   ReceiptExtractor
	Assistant  Assistant
	Ledger     Ledger
}

// Options configures the listener and request limits.
type Options struct {
	Addr              string
	AllowedOrigins    []string
	DefaultPeriods    int
	// MaxPeriods caps the forecast horizon. Zero leaves it uncapped.
	MaxPeriods        int
	RequestsPerMinute int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	Logger            *log.Logger
}

type Server struct {
	http.Server
	deps           Deps
	logger         *log.Logger
	limiter        *ratelimit.Limiter
	detector       *security.Detector
	tracer         *trace.Middleware
	defaultPeriods int
	maxPeriods     int
	now            func() time.Time
	shutdownOnce   sync.Once
}

// NewServer builds the API server. The returned server owns a rate limiter
// goroutine that Shutdown releases.
func NewServer(opts Options, deps Deps) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	if opts.DefaultPeriods <= 0 {
		opts.DefaultPeriods = 3
	}
	if opts.MaxPeriods < 0 {
		opts.MaxPeriods = 0
	}
	if opts.MaxPeriods > 0 && opts.DefaultPeriods > opts.MaxPeriods {
		opts.DefaultPeriods = opts.MaxPeriods
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.RequestsPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RequestsPerMinute
	}

	s := &Server{
		deps:           deps,
		logger:         logger,
		limiter:        ratelimit.NewLimiter(rlConfig),
		detector:       security.NewDetector(),
		defaultPeriods: opts.DefaultPeriods,
		maxPeriods:     opts.MaxPeriods,
		now:            time.Now,
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.handler(opts.AllowedOrigins),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	r.HandleFunc("/classify", s.handleClassify).Methods(http.MethodPost)
	r.HandleFunc("/forecast", s.handleForecast).Methods(http.MethodPost)
	r.HandleFunc("/ocr", s.handleOCR).Methods(http.MethodPost)
	r.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	r.HandleFunc("/transactions", s.handleRecordTransaction).Methods(http.MethodPost)
	lr := r.PathPrefix("/ledger").Subrouter()
	lr.HandleFunc("/history", s.handleLedgerHistory).Methods(http.MethodGet)
	lr.HandleFunc("/forecast", s.handleLedgerForecast).Methods(http.MethodGet)
	lr.HandleFunc("/summary", s.handleLedgerSummary).Methods(http.MethodGet)
	lr.HandleFunc("/totals", s.handleLedgerTotals).Methods(http.MethodGet)
	lr.HandleFunc("/breakdown", s.handleLedgerBreakdown).Methods(http.MethodGet)
	lr.HandleFunc("/cashflow", s.handleLedgerCashFlow).Methods(http.MethodGet)
	lr.HandleFunc("/tax", s.handleLedgerTax).Methods(http.MethodGet)

	return r
}

// handler assembles the middleware chain, outermost first: tracing,
// security headers, CORS, rate limiting, scanner detection.
func (s *Server) handler(origins []string) http.Handler {
	var h http.Handler = s.routes()
	h = s.flagSuspicious(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, retry later")
	})(h)
	h = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{trace.HeaderRequestID},
	}).Handler(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return s.tracer.Middleware(h)
}

func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops accepting connections, drains in-flight requests and
// releases the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
