package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poupa/internal/infrastructure/postgres/listener"
	"poupa/internal/interfaces/scheduler"
	"poupa/internal/shared/config"
	"poupa/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		Environment:  os.Getenv("ENVIRONMENT"),
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		MetricsPort:  cfg.Telemetry.MetricsPort,
		ExportTraces: cfg.Telemetry.Enabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	deps, err := NewDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Savings recorded outside the allocation flow refresh their goal via NOTIFY.
	savingsListener := listener.NewSavingsListener(cfg.Database.ConnectionString(), deps.GoalService)
	savingsListener.Start(context.Background())

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.NewScheduler(scheduler.Config{
			Schedule:     cfg.Scheduler.Schedule,
			WorkerCount:  cfg.Scheduler.WorkerCount,
			JobDelay:     cfg.Scheduler.JobDelay,
			QueueSize:    cfg.Scheduler.QueueSize,
			RunOnStartup: cfg.Scheduler.RunOnStartup,
			JobProvider:  scheduler.DeadlineJobProvider(deps.GoalService, deps.GoalService),
		})
		if err != nil {
			savingsListener.Stop()
			return err
		}
		sched.Start()
	} else {
		log.Println("Scheduler is disabled")
	}

	servers := NewServers(SetupRoutes(deps, cfg), cfg)
	serveErr := servers.Start()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		log.Printf("Server failed: %v", err)
	}
	servers.Shutdown(shutdownTimeout, sched, savingsListener)
	return err
}
