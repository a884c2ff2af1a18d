package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/Abraxas-365/rewardwallet/pkg/config"
	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const (
	metricsInterval = 15 * time.Second
	httpDrainTime   = 30 * time.Second
)

func main() {
	// 1. Logger
	logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))
	logx.Info("🚀 Starting Reward Wallet worker...")

	// 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Dependency container
	container := NewContainer(ctx, cfg)
	defer container.Cleanup()

	if err := container.ScheduleRecurring(ctx); err != nil {
		logx.Fatalf("Failed to schedule cashback: %v", err)
	}

	// 4. Ops API
	app := newOpsApp(container)

	// 5. Run until a signal arrives or a component fails
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return container.WalletJobs.Start(gctx) })
	g.Go(func() error { return container.CronJobs.Start(gctx) })
	g.Go(func() error {
		container.Metrics.Collect(gctx, metricsInterval, container.Queues()...)
		return nil
	})
	g.Go(func() error {
		logx.Infof("🌐 Ops API listening on port %s", cfg.Server.Port)
		return app.Listen(":" + cfg.Server.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdownApp(app)
	})

	if err := g.Wait(); err != nil {
		logx.Errorf("Process stopped with error: %v", err)
		return
	}
	logx.Info("✅ Process exited successfully")
}

func shutdownApp(app *fiber.App) error {
	logx.Info("🛑 Shutting down gracefully...")
	if err := app.ShutdownWithTimeout(httpDrainTime); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
		return err
	}
	return nil
}
