package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"restobill/internal/billing/api/http/handle"
	"restobill/internal/billing/app/core"
	"restobill/internal/billing/app/services"
	"restobill/internal/broadcast"
	"restobill/internal/config"
	"restobill/internal/recyclebin"
	"restobill/pkg/logger"

	database "restobill/internal/billing/adapter/db"
	"restobill/internal/billing/adapter/printer"
	pkgdb "restobill/pkg/db"
	"restobill/pkg/rabbitmq"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrServerClosed = errors.New("server closed")

type Server struct {
	mux           *http.ServeMux
	cfg           *config.Config
	srv           *http.Server
	billingParams *core.BillingParams
	mylog         logger.Logger
	pool          *pgxpool.Pool
	mb            *rabbitmq.RabbitMQ
	ctx           context.Context
	appCtx        context.Context
	mu            sync.Mutex
}

func NewServer(ctx, appCtx context.Context, cfg *config.Config, billingParams *core.BillingParams, mylog logger.Logger) *Server {
	return &Server{
		ctx:           ctx,
		appCtx:        appCtx,
		cfg:           cfg,
		billingParams: billingParams,
		mylog:         mylog,
		mux:           http.NewServeMux(),
	}
}

func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	pool, err := pkgdb.ConnectDB(s.appCtx, s.cfg.DB, s.mylog)
	if err != nil {
		mylog.Action("db_connection_failed").Error("Failed to connect to database", err)
		return err
	}
	s.pool = pool

	mb, err := rabbitmq.ConnectRabbitMQ(s.cfg.RMQ, s.mylog)
	if err != nil {
		mylog.Action("mb_connection_failed").Error("Failed to connect to message broker", err)
		return err
	}
	s.mb = mb

	if err := s.Configure(); err != nil {
		return err
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.billingParams.Port),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog.WithGroup("details").With("port", s.billingParams.Port).Info("server is running")
	return s.startHTTPServer()
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Action("graceful_shutdown_started").Info("Shutting down HTTP server...")

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, core.WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Action("graceful_shutdown_failed").Error("Failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.pool != nil {
		s.pool.Close()
		s.mylog.Action("db_closed").Info("Database closed")
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Action("mb_close_failed").Error("Failed to close message broker", err)
			return fmt.Errorf("mb close: %w", err)
		}
		s.mylog.Action("mb_closed").Info("Message broker closed")
	}

	s.mylog.Action("graceful_shutdown_completed").Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Configure() error {
	billRepo := database.NewBillRepo(s.pool)
	publisher := broadcast.NewPublisher(s.mb, s.mylog)

	binStore, err := recyclebin.NewStore(s.cfg.Billing.RecycleBinDir, s.mylog)
	if err != nil {
		return fmt.Errorf("recycle bin store: %w", err)
	}

	var receiptPrinter core.IPrinter = printer.Noop{}
	if s.cfg.Billing.PrinterURL != "" {
		receiptPrinter = printer.NewHTTPPrinter(s.cfg.Billing.PrinterURL)
	}

	billingService := services.NewBillingService(
		billRepo, binStore, publisher, receiptPrinter, s.cfg.Billing.TaxPercentage, s.mylog)
	billHandler := handle.NewBillHandler(billingService, s.mylog)

	s.mux.Handle("POST /bill/create", billHandler.Create())
	s.mux.Handle("GET /bills/{hotelID}", billHandler.List())
	s.mux.Handle("DELETE /bill/{id}", billHandler.Delete())
	s.mux.Handle("GET /recycle-bin/{hotelID}", billHandler.RecycleBinList())
	s.mux.Handle("GET /recycle-bin/{hotelID}/export", billHandler.RecycleBinExport())
	return nil
}
