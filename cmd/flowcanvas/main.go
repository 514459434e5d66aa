// Command flowcanvas runs the workflow designer core. With no arguments it
// seeds the incident-response sample graph, validates it, simulates it and
// prints the run log. With "serve" it exposes the designer as an MCP stdio
// server for agent clients.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/acso/flowcanvas/internal/access"
	"github.com/acso/flowcanvas/internal/designer"
	"github.com/acso/flowcanvas/internal/logging"
	"github.com/acso/flowcanvas/internal/notify"
	"github.com/acso/flowcanvas/internal/scheduler"
	"github.com/acso/flowcanvas/internal/streaming"
	"github.com/acso/flowcanvas/pkg/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	hub := streaming.NewMemoryHub()
	notifier := notify.NewMemoryNotifier()
	d, err := designer.New(designer.Deps{
		Access:    access.AllowAll(),
		Notifier:  notifier,
		Hub:       hub,
		Logger:    logger,
		StepDelay: cfg.StepDelay(),
	})
	if err != nil {
		return err
	}

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		return serve(d, logger, cfg)
	}
	return demo(d, notifier, logger)
}

// serve runs the MCP stdio server, with the smoke-run scheduler alongside,
// until the process is signalled.
func serve(d *designer.Designer, logger *slog.Logger, cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(d, logger, cfg.SchedulerInterval())
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = sched.Stop() }()

	srv := mcp.NewFlowcanvasServer(mcp.FlowcanvasServerDeps{Designer: d, Scheduler: sched, Logger: logger})
	logger.Info("flowcanvas mcp server listening on stdio")
	return srv.Serve(ctx)
}

// demo seeds the sample graph, validates it, simulates it and prints the log.
func demo(d *designer.Designer, notifier *notify.MemoryNotifier, logger *slog.Logger) error {
	graphID, err := d.SampleGraph()
	if err != nil {
		return err
	}

	result, err := d.Validate(graphID)
	if err != nil {
		return err
	}
	fmt.Printf("validation: valid=%v errors=%d warnings=%d\n",
		result.Valid(), len(result.Errors), len(result.Warnings))
	for _, issue := range result.Errors {
		fmt.Printf("  error: %s\n", issue.Message)
	}
	for _, issue := range result.Warnings {
		fmt.Printf("  warning: %s\n", issue.Message)
	}

	runID, err := d.Simulate(context.Background(), graphID)
	if err != nil {
		return err
	}
	run, err := d.Run(runID)
	if err != nil {
		return err
	}
	<-run.Done()

	fmt.Printf("\nrun %s finished: %s\n", runID, run.Status())
	for _, entry := range run.Log() {
		fmt.Printf("  %s  %s\n", entry.Time.Format("15:04:05.000"), entry.Message)
	}
	fmt.Println("\ntoasts:")
	for _, toast := range notifier.Toasts() {
		fmt.Printf("  [%s] %s\n", toast.Severity, toast.Message)
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(handler))
}
