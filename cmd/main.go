package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/concoro/notifier/internal/clients/brevo"
	"github.com/concoro/notifier/internal/config"
	"github.com/concoro/notifier/internal/logger"
	"github.com/concoro/notifier/internal/metrics"
	"github.com/concoro/notifier/internal/repositories"
	"github.com/concoro/notifier/internal/services"
	log "github.com/sirupsen/logrus"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer()

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	savedItems := repositories.NewSavedItemsRepository(dbContext.DB)
	concorsi := repositories.NewCachedConcorsi(repositories.NewConcorsiRepository(dbContext.DB))
	notifications := repositories.NewNotificationsRepository(dbContext.DB)
	emailLog := repositories.NewEmailLogRepository(dbContext.DB)
	users := repositories.NewUsersRepository(dbContext.DB)

	brevoClient := brevo.NewClient(cfg.Notifier.BrevoAPIKey)
	if cfg.Notifier.BrevoMaxRequestsPerSecond > 0 {
		brevoClient.SetRateLimit(cfg.Notifier.BrevoMaxRequestsPerSecond)
	}

	mailer := services.NewDigestMailer(users, notifications, emailLog, concorsi, brevoClient, cfg.Notifier)

	bus := EventBus.New()
	notifier, err := services.NewBatchNotifier(bus, savedItems, concorsi, notifications, mailer)
	if err != nil {
		log.Fatalf("can't create batch notifier: %v", err)
	}

	scheduler, err := services.NewDailyScheduler(notifier, cfg.Notifier.Schedule, cfg.Notifier.Timezone)
	if err != nil {
		log.Fatalf("can't create scheduler: %v", err)
	}

	<-ctx.Done()

	log.Info("Shutting down services...")
	scheduler.Stop()
	log.Info("Services stopped.")
}
