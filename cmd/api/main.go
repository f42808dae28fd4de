package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yatube/internal/config"
	"yatube/internal/media"
	"yatube/internal/pkg"
	"yatube/internal/repository"
	"yatube/internal/repository/memory"
	redisrepo "yatube/internal/repository/redis"
	"yatube/internal/repository/sqldb"
	"yatube/internal/router"
	"yatube/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	promote := flag.String("promote", "", "grant the admin role to this username and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	deps, outbox, closeAll, err := buildDeps(cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeAll()

	if *promote != "" {
		tokens := pkg.NewTokenIssuer(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
		u, err := service.NewUserService(deps.Stores.Users, deps.Sessions, tokens).Promote(context.Background(), *promote)
		if err != nil {
			log.Fatalf("promote %s: %v", *promote, err)
		}
		log.Printf("user %s (id=%d) is now an admin", u.Username, u.ID)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 关注事件投递，仅 SQL 存储有 outbox
	if outbox != nil {
		var sender service.Sender = service.LogSender
		if cfg.Kafka.Enabled() {
			producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
			if err != nil {
				log.Fatalf("kafka: %v", err)
			}
			defer producer.Close()
			sender = service.KafkaSender(producer)
			log.Printf("follow events -> kafka topic %s", producer.Topic())
		}
		go service.NewOutboxRelayer(outbox, sender, cfg.Kafka.Interval, cfg.Kafka.MaxRetry).Run(ctx)
	}

	r, err := router.InitRouter(cfg, deps)
	if err != nil {
		log.Fatalf("router: %v", err)
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		log.Printf("listening on %s (storage=%s)", cfg.Server.Addr, cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// buildDeps 按 storage 组装存储：memory 全部在进程内，SQL 配合 redis 做 session 和页面缓存
func buildDeps(cfg config.Config) (router.Deps, repository.OutboxStore, func(), error) {
	deps := router.Deps{
		Media: media.NewLocalStorage(cfg.Media.Root, cfg.Media.URLPrefix, cfg.Media.MaxUploadBytes),
	}
	if err := os.MkdirAll(cfg.Media.Root, 0o755); err != nil {
		return deps, nil, nil, err
	}

	if cfg.Storage == config.StorageMemory {
		deps.Stores = memory.New().Set()
		deps.Sessions = memory.NewSessionRepository()
		deps.Cache = memory.NewPageCache()
		return deps, nil, func() {}, nil
	}

	db, err := sqldb.InitDB(cfg.Storage, cfg.Database.DSN, cfg.Database.LogLevel)
	if err != nil {
		return deps, nil, nil, err
	}
	// 自动建表（开发阶段 OK）
	if err = sqldb.Migrate(db); err != nil {
		return deps, nil, nil, err
	}
	client, err := redisrepo.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return deps, nil, nil, err
	}

	deps.Stores = sqldb.NewSet(db)
	deps.Sessions = redisrepo.NewSessionRepository(client)
	deps.Cache = redisrepo.NewPageCache(client)
	closeAll := func() {
		if err := client.Close(); err != nil {
			log.Printf("redis close: %v", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return deps, &sqldb.OutboxRepository{DB: db}, closeAll, nil
}
