package dashboard

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"restobill/internal/broadcast"
	"restobill/internal/config"
	"restobill/internal/dashboard/adapter/client"
	"restobill/internal/dashboard/app/core"
	"restobill/internal/dashboard/app/view"
	"restobill/internal/session"
	"restobill/internal/status"
	"restobill/pkg/logger"
	"restobill/pkg/rabbitmq"
)

type params struct {
	dashParams *core.DashboardParams
	configPath string
	cfg        *config.Config
	role       status.Role
}

const renderInterval = 5 * time.Second

// Execute starts one role view for one hotel and runs it until a
// shutdown signal arrives.
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

	mb, err := rabbitmq.ConnectRabbitMQ(params.cfg.RMQ, mylog)
	if err != nil {
		mylog.Action("rabbitmq_connect_failed").Error("Failed to connect to RabbitMQ", err)
		return err
	}
	defer mb.Close()

	events, err := broadcast.JoinHotelRoom(newCtx, mb, params.dashParams.HotelID, mylog)
	if err != nil {
		mylog.Action("room_join_failed").Error("Failed to join hotel room", err)
		return err
	}

	sess := session.Login(params.role, params.dashParams.HotelID)
	switch params.role {
	case status.RoleCustomer:
		sess.WithTable(params.dashParams.TableNumber)
	default:
		sess.WithStaff(params.dashParams.StaffID)
	}
	defer sess.Logout()

	source := client.New(params.dashParams.OrderAPI, params.dashParams.BillingAPI, params.dashParams.HotelID)
	v := view.New(sess, source, events, core.PollInterval, mylog)

	mylog.Action("dashboard_started").With(
		"role", string(params.role),
		"hotel_id", params.dashParams.HotelID,
		"session", sess.Token,
	).Info("Dashboard view started")

	g, gctx := errgroup.WithContext(newCtx)
	g.Go(func() error { return v.Run(gctx) })
	if params.role == status.RoleAdmin {
		g.Go(func() error { return renderLoop(gctx, v) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		mylog.Action("dashboard_failed").Error("Dashboard view stopped with error", err)
		return err
	}
	mylog.Action("dashboard_stopped").Info("Dashboard view stopped")
	return nil
}

// renderLoop periodically prints the admin console tables.
func renderLoop(ctx context.Context, v *view.View) error {
	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := v.RenderOrders(os.Stdout); err != nil {
				return err
			}
			if err := v.RenderRecycleBin(ctx, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				// Recycle bin render is best effort, billing may be down.
				fmt.Fprintf(os.Stderr, "recycle bin unavailable: %v\n", err)
			}
		}
	}
}

func parseParams(args []string) (*params, error) {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config-path", "config.yaml", "path for config yaml")
	role := fs.String("role", "customer", "View role: customer | staff | admin")
	hotelID := fs.String("hotel-id", "", "Hotel to join")
	staffID := fs.String("staff-id", "", "Acting staff member id (staff/admin)")
	table := fs.Int("table", 0, "Table number (customer)")
	orderAPI := fs.String("order-api", "http://localhost:3000", "Order service base URL")
	billingAPI := fs.String("billing-api", "http://localhost:3001", "Billing service base URL")

	if err := fs.Parse(args); err != nil {
		return nil, errors.New("cannot parse arguments")
	}
	if *showHelp {
		fs.Usage()
		return nil, core.ErrHelp
	}

	return &params{
		dashParams: &core.DashboardParams{
			Role:        *role,
			HotelID:     *hotelID,
			StaffID:     *staffID,
			TableNumber: *table,
			OrderAPI:    *orderAPI,
			BillingAPI:  *billingAPI,
		},
		configPath: *configPath,
	}, nil
}

func validateParams(params *params) error {
	cfg, err := config.LoadConfig(params.configPath)
	if err != nil {
		cfg = config.LoadDotEnv()
	}
	params.cfg = cfg

	role, err := status.ParseRole(params.dashParams.Role)
	if err != nil {
		return err
	}
	params.role = role

	if params.dashParams.HotelID == "" {
		return errors.New("hotel-id is required")
	}
	switch role {
	case status.RoleCustomer:
		if params.dashParams.TableNumber <= 0 {
			return fmt.Errorf("customer view needs a positive table number: %d", params.dashParams.TableNumber)
		}
	default:
		if params.dashParams.StaffID == "" {
			return errors.New("staff-id is required for staff and admin views")
		}
	}
	return nil
}
