package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/eventtickets/config"
	repository "github.com/ds124wfegd/eventtickets/internal/database/postgres"
	cache "github.com/ds124wfegd/eventtickets/internal/database/redis"
	"github.com/ds124wfegd/eventtickets/internal/service"
	"github.com/ds124wfegd/eventtickets/internal/transport"
	"github.com/ds124wfegd/eventtickets/internal/worker"

	"github.com/ds124wfegd/eventtickets/pkg/clock"
	"github.com/ds124wfegd/eventtickets/pkg/kafka"
	"github.com/ds124wfegd/eventtickets/pkg/postgres"
	"github.com/ds124wfegd/eventtickets/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func setupLogging(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func NewServer(cfg *config.Config) {
	setupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(ctx, db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	tx := repository.NewTransactor(db)
	eventRepo := repository.NewEventRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	// Optional event cache
	var eventCache service.EventCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			logrus.Errorf("Failed to initialize Redis: %v. Continuing without cache...", err)
		} else {
			defer redisClient.Close()
			eventCache = cache.NewEventCache(redisClient, cfg.Redis.CacheTTL)
			logrus.Info("Event cache initialized")
		}
	}

	// Ticket activity stream
	var producer kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		producer = kafka.NewLogProducer(cfg.Kafka.Topic)
	}
	defer producer.Close()

	// Initialize services
	clk := clock.NewSystem()
	eventService := service.NewEventService(tx, eventRepo, eventCache, clk)
	ticketService := service.NewTicketService(tx, eventRepo, ticketRepo, eventCache,
		service.NewActivityAdapter(producer), clk)

	// Initialize cleanup worker
	if cfg.Worker.Enabled && cfg.Worker.CleanupInterval > 0 {
		cleanupWorker := worker.NewEventCleanupWorker(eventService, clk, cfg.Worker.CleanupInterval)
		go cleanupWorker.Start(ctx)
	}

	// Initialize handlers
	eventHandler := transport.NewEventHandler(eventService, ticketService)
	ticketHandler := transport.NewTicketHandler(ticketService)

	// Setup HTTP server
	if cfg.IsProduction() || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		err := srv.Run(cfg, transport.InitRoutes(eventHandler, ticketHandler, cfg.Server.RequestTimeout))
		if err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Infof("App Started on %s", cfg.ServerAddress())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
