package order

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"restobill/internal/config"
	orderhttp "restobill/internal/order/api/http"
	"restobill/internal/order/app/core"
	"restobill/pkg/logger"
)

type params struct {
	orderParams *core.OrderParams
	configPath  string
	cfg         *config.Config
}

// Execute starts the order service.
func Execute(ctx context.Context, mylog logger.Logger, args []string) error {
	newCtx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	params, err := parseParams(args)
	if err != nil {
		if errors.Is(err, core.ErrHelp) {
			return nil
		}
		mylog.Action("command_parse_failed").Error("Invalid command received", err)
		return err
	}
	if err = validateParams(params); err != nil {
		mylog.Action("command_validation_failed").Error("Invalid command received", err)
		return err
	}

	server := orderhttp.NewServer(newCtx, context.Background(), params.cfg, params.orderParams, mylog)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- server.Run()
	}()

	select {
	case <-newCtx.Done():
		mylog.Action("shutdown_signal_received").Info("Shutdown signal received")
		return server.Stop(context.Background())
	case err := <-runErrCh:
		if err != nil && !errors.Is(err, orderhttp.ErrServerClosed) {
			mylog.Action("order_service_failed").Error("Server failed unexpectedly", err)
			return err
		}
		mylog.Action("server_stopped").Info("Server exited normally")
		return nil
	}
}

func parseParams(args []string) (*params, error) {
	fs := flag.NewFlagSet("order-service", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config-path", "config.yaml", "path for config yaml")
	port := fs.Int("port", 3000, "Port to run the order service")

	if err := fs.Parse(args); err != nil {
		return nil, errors.New("cannot parse arguments")
	}
	if *showHelp {
		fs.Usage()
		return nil, core.ErrHelp
	}

	return &params{
		orderParams: &core.OrderParams{Port: *port},
		configPath:  *configPath,
	}, nil
}

func validateParams(params *params) error {
	cfg, err := config.LoadConfig(params.configPath)
	if err != nil {
		cfg = config.LoadDotEnv()
	}
	params.cfg = cfg

	if params.orderParams.Port <= 0 || params.orderParams.Port >= 65536 {
		return fmt.Errorf("port must be in [1: 65,535]: %d", params.orderParams.Port)
	}
	return nil
}
