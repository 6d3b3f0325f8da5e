package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"restobill/internal/billing"
	"restobill/internal/dashboard"
	"restobill/internal/order"
	"restobill/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var mode string
	var serviceArgs []string
	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch {
		case strings.HasPrefix(arg, "--mode="):
			mode = strings.TrimPrefix(arg, "--mode=")
		case arg == "--mode" && i+1 < len(os.Args):
			mode = os.Args[i+1]
			i++
		default:
			serviceArgs = append(serviceArgs, arg)
		}
	}
	if mode == "" {
		printUsage()
		os.Exit(1)
	}

	mylog := logger.New(mode)
	ctx := context.Background()

	var err error
	switch mode {
	case "order-service":
		err = order.Execute(ctx, mylog, serviceArgs)
	case "billing-service":
		err = billing.Execute(ctx, mylog, serviceArgs)
	case "dashboard":
		err = dashboard.Execute(ctx, mylog, serviceArgs)
	default:
		fmt.Printf("Invalid mode: %s\n", mode)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: restobill --mode=<service-mode> [service-specific-flags]")
	fmt.Println("Available modes:")
	fmt.Println("  order-service --port=3000")
	fmt.Println("  billing-service --port=3001")
	fmt.Println("  dashboard --role=customer|staff|admin --hotel-id=<id>")
}
