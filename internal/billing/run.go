package billing

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	billinghttp "restobill/internal/billing/api/http"
	"restobill/internal/billing/app/core"
	"restobill/internal/config"
	"restobill/pkg/logger"
)

type params struct {
	billingParams *core.BillingParams
	configPath    string
	cfg           *config.Config
}

// Execute starts the billing service.
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

	server := billinghttp.NewServer(newCtx, context.Background(), params.cfg, params.billingParams, mylog)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- server.Run()
	}()

	select {
	case <-newCtx.Done():
		mylog.Action("shutdown_signal_received").Info("Shutdown signal received")
		return server.Stop(context.Background())
	case err := <-runErrCh:
		if err != nil && !errors.Is(err, billinghttp.ErrServerClosed) {
			mylog.Action("billing_service_failed").Error("Server failed unexpectedly", err)
			return err
		}
		mylog.Action("server_stopped").Info("Server exited normally")
		return nil
	}
}

func parseParams(args []string) (*params, error) {
	fs := flag.NewFlagSet("billing-service", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config-path", "config.yaml", "path for config yaml")
	port := fs.Int("port", 3001, "Port to run the billing service")

	if err := fs.Parse(args); err != nil {
		return nil, errors.New("cannot parse arguments")
	}
	if *showHelp {
		fs.Usage()
		return nil, core.ErrHelp
	}

	return &params{
		billingParams: &core.BillingParams{Port: *port},
		configPath:    *configPath,
	}, nil
}

func validateParams(params *params) error {
	cfg, err := config.LoadConfig(params.configPath)
	if err != nil {
		cfg = config.LoadDotEnv()
	}
	params.cfg = cfg

	if params.billingParams.Port <= 0 || params.billingParams.Port >= 65536 {
		return fmt.Errorf("port must be in [1: 65,535]: %d", params.billingParams.Port)
	}
	if cfg.Billing.TaxPercentage < 0 || cfg.Billing.TaxPercentage > 100 {
		return fmt.Errorf("tax percentage must be in [0, 100]: %f", cfg.Billing.TaxPercentage)
	}
	return nil
}
