package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	provisioningusecases "github.com/lumenhost/lumen/internal/application/provisioning/usecases"
	"github.com/lumenhost/lumen/internal/infrastructure/config"
	"github.com/lumenhost/lumen/internal/infrastructure/database"
	"github.com/lumenhost/lumen/internal/infrastructure/email"
	"github.com/lumenhost/lumen/internal/infrastructure/pubsub"
	"github.com/lumenhost/lumen/internal/infrastructure/queue"
	"github.com/lumenhost/lumen/internal/infrastructure/repository"
	agentruntime "github.com/lumenhost/lumen/internal/infrastructure/runtime"
	"github.com/lumenhost/lumen/internal/shared/biztime"
	"github.com/lumenhost/lumen/internal/shared/db"
	"github.com/lumenhost/lumen/internal/shared/logger"
)

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	biztime.MustInit(cfg.Server.Timezone)

	log := logger.NewLogger()
	log.Infow("starting provisioning worker", "environment", env, "workers", cfg.Provisioning.Workers)

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalw("failed to connect to Redis", "error", err)
	}

	instanceRepo := repository.NewInstanceRepository(database.Get(), log)
	queueRepo := repository.NewQueueEntryRepository(database.Get(), log)
	txManager := db.NewTransactionManager(database.Get())

	runtimeClient := agentruntime.NewAgentClient(cfg.Runtime, log)
	notifier := email.NewSMTPNotifier(cfg.SMTP, log)

	attemptTimeout := time.Duration(cfg.Provisioning.AttemptTimeoutSeconds) * time.Second
	processEntry := provisioningusecases.NewProcessEntryUseCase(
		queueRepo, instanceRepo, runtimeClient, notifier, txManager, attemptTimeout, log)

	subscriber := pubsub.NewQueueSubscriber(redisClient, log)
	subscriber.Start()
	defer subscriber.Stop()

	pool := queue.NewWorkerPool(cfg.Provisioning, queueRepo, processEntry, subscriber.Nudges(), log)
	pool.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down provisioning worker")
	pool.Stop()
	log.Infow("provisioning worker exited gracefully")
}
