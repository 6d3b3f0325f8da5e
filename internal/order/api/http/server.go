package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"restobill/internal/broadcast"
	"restobill/internal/config"
	"restobill/internal/order/api/http/handle"
	"restobill/internal/order/app/core"
	"restobill/internal/order/app/services"
	"restobill/pkg/logger"

	database "restobill/internal/order/adapter/db"
	pkgdb "restobill/pkg/db"
	"restobill/pkg/rabbitmq"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrServerClosed = errors.New("server closed")

type Server struct {
	mux         *http.ServeMux
	cfg         *config.Config
	srv         *http.Server
	orderParams *core.OrderParams
	mylog       logger.Logger
	pool        *pgxpool.Pool
	mb          *rabbitmq.RabbitMQ
	ctx         context.Context
	appCtx      context.Context
	mu          sync.Mutex
}

func NewServer(ctx, appCtx context.Context, cfg *config.Config, orderParams *core.OrderParams, mylog logger.Logger) *Server {
	return &Server{
		ctx:         ctx,
		appCtx:      appCtx,
		cfg:         cfg,
		orderParams: orderParams,
		mylog:       mylog,
		mux:         http.NewServeMux(),
	}
}

// Run initializes connections and routes, then listens until the server
// stops.
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

	s.Configure()

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.orderParams.Port),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog.WithGroup("details").With("port", s.orderParams.Port).Info("server is running")
	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
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

// Configure wires repositories, services and routes.
func (s *Server) Configure() {
	orderRepo := database.NewOrderRepo(s.pool)
	publisher := broadcast.NewPublisher(s.mb, s.mylog)

	orderService := services.NewOrderService(orderRepo, publisher, s.mylog)
	orderHandler := handle.NewOrderHandler(orderService, s.mylog)

	s.mux.Handle("POST /orders", orderHandler.Create())
	s.mux.Handle("GET /orders/{hotelID}", orderHandler.List())
	s.mux.Handle("GET /orders/{hotelID}/{id}", orderHandler.Get())
	s.mux.Handle("PUT /orders/{id}/status", orderHandler.UpdateStatus())
	s.mux.Handle("PUT /orders/{id}", orderHandler.UpdateItems())
	s.mux.Handle("POST /orders/{id}/help", orderHandler.RequestHelp())
}
