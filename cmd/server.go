package cmd

import (
	"context"
	"infinite-buying/internal/delivery/http"
	"infinite-buying/internal/repository"
	"infinite-buying/internal/service"
	"log"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the infinite-buying bot",
	Run:   Start,
}

func Start(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency()
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}

	repo, err := repository.NewRepository(appDep.cfg, appDep.cache, appDep.db.DB, appDep.log)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}

	services, err := service.NewService(
		appDep.cfg,
		appDep.log,
		repo,
		appDep.notifier,
		appDep.clock,
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	httpHandler := http.NewHttpAPIHandler(appDep.echo, appDep.validator, appDep.cfg, appDep.log, services)

	apiServer := NewHTTPServer(ctx, appDep, httpHandler)
	go func() {
		if err := apiServer.Start(); err != nil && err != httpNet.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	appDep.notifier.Start()

	if err := services.ReportService.Start(); err != nil {
		log.Fatalf("Failed to start report scheduler: %v", err)
	}

	if err := services.BotManager.Start(ctx); err != nil {
		log.Fatalf("Failed to start trading bot: %v", err)
	}

	<-ctx.Done()
	log.Println("Shutting down gracefully...")

	if err := services.BotManager.Stop(); err != nil {
		appDep.log.Warn("Trading bot was not running")
	}
	services.ReportService.Stop()
	appDep.notifier.Stop()

	if err := apiServer.Stop(); err != nil {
		log.Fatalf("Failed to stop HTTP server: %v", err)
	}

	if err := appDep.Close(); err != nil {
		log.Fatalf("Failed to close app dependency: %v", err)
	}
}
