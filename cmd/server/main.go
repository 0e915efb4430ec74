package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caris2020/AssuranceProject/internal/admin"
	"github.com/caris2020/AssuranceProject/internal/audit"
	casehandler "github.com/caris2020/AssuranceProject/internal/cases/handler"
	caseservice "github.com/caris2020/AssuranceProject/internal/cases/service"
	casestore "github.com/caris2020/AssuranceProject/internal/cases/store"
	"github.com/caris2020/AssuranceProject/internal/files"
	"github.com/caris2020/AssuranceProject/internal/notification/cache"
	"github.com/caris2020/AssuranceProject/internal/notification/fanout"
	notifhandler "github.com/caris2020/AssuranceProject/internal/notification/handler"
	notifservice "github.com/caris2020/AssuranceProject/internal/notification/service"
	notifstore "github.com/caris2020/AssuranceProject/internal/notification/store"
	"github.com/caris2020/AssuranceProject/internal/platform/config"
	"github.com/caris2020/AssuranceProject/internal/platform/httpserver"
	"github.com/caris2020/AssuranceProject/internal/platform/logger"
	"github.com/caris2020/AssuranceProject/internal/platform/metrics"
	"github.com/caris2020/AssuranceProject/internal/platform/middleware"
	platformpg "github.com/caris2020/AssuranceProject/internal/platform/postgres"
	platformredis "github.com/caris2020/AssuranceProject/internal/platform/redis"
	reporthandler "github.com/caris2020/AssuranceProject/internal/reports/handler"
	reportservice "github.com/caris2020/AssuranceProject/internal/reports/service"
	reportstore "github.com/caris2020/AssuranceProject/internal/reports/store"
	httptransport "github.com/caris2020/AssuranceProject/internal/transport/http"
	userstore "github.com/caris2020/AssuranceProject/internal/users/store"
)

// main wires the dependency graph and owns the server lifecycle. Everything
// with behavior lives in internal packages; main only chooses implementations.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		caseStore  caseservice.Store
		reportSt   reportservice.Store
		fileSt     reportservice.FileStore
		notifSt    notifservice.Store
		auditStore audit.Store
		users      fanout.Directory
	)
	if cfg.DatabaseURL != "" {
		db, err := platformpg.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres unavailable", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		caseStore = casestore.NewPostgres(db)
		reportSt = reportstore.NewPostgres(db)
		fileSt = reportstore.NewFilesPostgres(db)
		notifSt = notifstore.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		users = userstore.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		caseStore = casestore.NewInMemory()
		reportSt = reportstore.NewInMemory()
		fileSt = reportstore.NewFilesInMemory()
		notifSt = notifstore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		users = userstore.NewInMemory()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	counts := cache.NewUnreadCounts(redisClient)

	recorderOpts := []audit.Option{audit.WithMetrics(m)}
	sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		log.Error("kafka unavailable", "error", err.Error())
		os.Exit(1)
	}
	if sink != nil {
		defer sink.Close()
		recorderOpts = append(recorderOpts, audit.WithSink(sink))
	}
	recorder := audit.NewRecorder(auditStore, log, recorderOpts...)

	var blobs files.BlobStore
	if cfg.S3.Bucket != "" {
		blobs, err = files.NewS3Store(ctx, cfg.S3)
		if err != nil {
			log.Error("s3 blob store unavailable", "error", err.Error())
			os.Exit(1)
		}
	} else {
		log.Warn("S3_BUCKET not set, report files are held in memory")
		blobs = files.NewInMemory()
	}

	notifications := notifservice.New(notifSt, config.NotificationRetention, log, counts)
	engine := fanout.NewEngine(users, notifications, log, m, cfg.FanOutWorkers)
	cases := caseservice.New(caseStore, recorder, engine, log, m)
	reports := reportservice.New(reportSt, fileSt, blobs, cases, recorder, engine, log, m)

	checks := map[string]httptransport.HealthChecker{}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	router := httptransport.NewRouter(log,
		middleware.NewHMACValidator(cfg.JWTSigningKey),
		checks,
		casehandler.New(cases, log),
		reporthandler.New(reports, log),
		notifhandler.New(notifications, log),
		admin.NewHandler(cases, reports, users, notifications, recorder, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
