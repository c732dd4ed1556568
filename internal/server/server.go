package server

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/simonvc/stockledger/internal/cogs"
	"github.com/simonvc/stockledger/internal/recorder"
	"github.com/simonvc/stockledger/internal/statements"
	"github.com/simonvc/stockledger/internal/store"
	"github.com/simonvc/stockledger/internal/valuation"
)

// Options tune report behaviour.
type Options struct {
	Epsilon            decimal.Decimal
	LowMarginThreshold decimal.Decimal
	TrendGranularity   valuation.Granularity
}

type Server struct {
	store      *store.Store
	recorder   *recorder.Recorder
	valuation  *valuation.Engine
	costs      *cogs.Calculator
	statements *statements.Generator
	opts       Options
	log        logrus.FieldLogger
	router     chi.Router
	addr       string
}

func New(st *store.Store, addr string, log logrus.FieldLogger, opts Options) *Server {
	engine := valuation.New(st, log)
	calc := cogs.New(engine, st, log)
	if opts.LowMarginThreshold.IsZero() {
		opts.LowMarginThreshold = decimal.NewFromInt(20)
	}
	if opts.TrendGranularity == "" {
		opts.TrendGranularity = valuation.Monthly
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	s := &Server{
		store:      st,
		recorder:   recorder.New(st, calc, log),
		valuation:  engine,
		costs:      calc,
		statements: statements.New(st, log).WithEpsilon(opts.Epsilon),
		opts:       opts,
		log:        log,
		router:     r,
		addr:       addr,
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Chart of accounts and posting templates reference
		r.Get("/chart", s.getChart)
		r.Get("/templates", s.getTemplates)

		r.Route("/businesses/{bid}", func(r chi.Router) {
			r.Post("/init", s.initBusiness)
			r.Get("/", s.getBusiness)
			r.Put("/method", s.setMethod)

			// Accounts
			r.Get("/accounts", s.listAccounts)
			r.Get("/accounts/{code}", s.getAccount)
			r.Get("/accounts/{code}/balance", s.getAccountBalance)
			r.Get("/accounts/{code}/lines", s.listAccountLines)
			r.Post("/accounts/{code}/deactivate", s.deactivateAccount)

			// Events in
			r.Post("/sales", s.recordSale)
			r.Post("/sales/costed", s.recordCostedSale)
			r.Post("/purchases", s.recordPurchase)
			r.Post("/payments/received", s.recordPaymentReceived)
			r.Post("/payments/made", s.recordPaymentMade)

			// Journal
			r.Post("/entries", s.createManualEntry)
			r.Get("/entries", s.listEntries)
			r.Get("/entries/{id}", s.getEntry)
			r.Post("/entries/{id}/reverse", s.reverseEntry)

			// Inventory
			r.Put("/variations/{vid}", s.upsertVariation)
			r.Post("/stock", s.recordStockMovement)
			r.Get("/valuation", s.valuate)
			r.Get("/valuation/categories", s.categoryValuation)
			r.Get("/valuation/trend", s.valuationTrend)

			// Reports
			r.Get("/reports/trial-balance", s.trialBalance)
			r.Get("/reports/balance-sheet", s.balanceSheet)
			r.Get("/reports/income-statement", s.incomeStatement)
			r.Get("/profitability/products", s.productProfitability)
			r.Get("/profitability/categories", s.categoryProfitability)
			r.Get("/profitability/low-margin", s.lowMarginProducts)
			r.Get("/profitability/top", s.topPerformers)
		})
	})

	return s
}

// requestLogger logs one line per request through logrus.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("request")
		})
	}
}

func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.addr).Info("stockledger server listening")
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) Serve(ln net.Listener) error {
	s.log.WithField("addr", ln.Addr().String()).Info("stockledger server listening")
	return http.Serve(ln, s.router)
}

func (s *Server) Handler() http.Handler {
	return s.router
}
