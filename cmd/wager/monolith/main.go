package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" // Register pprof handlers
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frankieli/players_bet/internal/config"
	gatewayHttp "github.com/frankieli/players_bet/internal/modules/gateway/adapter/http"
	gatewayLocal "github.com/frankieli/players_bet/internal/modules/gateway/adapter/local"
	gatewayUseCase "github.com/frankieli/players_bet/internal/modules/gateway/usecase"
	"github.com/frankieli/players_bet/internal/modules/gateway/ws"
	"github.com/frankieli/players_bet/internal/modules/identity"
	"github.com/frankieli/players_bet/internal/modules/match/machine"
	rosterHttp "github.com/frankieli/players_bet/internal/modules/roster/adapter/http"
	rosterDomain "github.com/frankieli/players_bet/internal/modules/roster/domain"
	rosterMemory "github.com/frankieli/players_bet/internal/modules/roster/repository/memory"
	rosterRedis "github.com/frankieli/players_bet/internal/modules/roster/repository/redis"
	wagerHttp "github.com/frankieli/players_bet/internal/modules/wager/adapter/http"
	wagerLocal "github.com/frankieli/players_bet/internal/modules/wager/adapter/local"
	"github.com/frankieli/players_bet/internal/modules/wager/adapter/notify"
	wagerDomain "github.com/frankieli/players_bet/internal/modules/wager/domain"
	wagerUseCase "github.com/frankieli/players_bet/internal/modules/wager/usecase"
	walletModule "github.com/frankieli/players_bet/internal/modules/wallet"
	walletHttp "github.com/frankieli/players_bet/internal/modules/wallet/adapter/http"
	walletDomain "github.com/frankieli/players_bet/internal/modules/wallet/domain"
	walletRepo "github.com/frankieli/players_bet/internal/modules/wallet/repository/db"
	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/frankieli/players_bet/pkg/metrics"
	"github.com/frankieli/players_bet/pkg/netutil"
	"github.com/frankieli/players_bet/pkg/service"
)

// wallet is what the wager module and the host routes need from a wallet backend
type wallet interface {
	service.WalletService
	walletDomain.AccountAdmin
}

func main() {
	pprofPort := flag.String("pprof-port", "", "Port to run pprof server on (e.g., 6060)")
	background := flag.Bool("d", false, "Run in background mode (disable console logging)")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.LoadWagerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Background mode (-d) drops the console copy and keeps only the rotating file
	logger.Init(logger.Config{
		Level:   cfg.Server.LogLevel,
		Format:  "json",
		Service: cfg.Server.Name,
		Console: !*background,
		File: &logger.FileConfig{
			Filename:   cfg.Server.LogFile,
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	})
	defer logger.Flush()

	if *pprofPort != "" {
		go func() {
			addr := "localhost:" + *pprofPort
			logger.InfoGlobal().Str("addr", addr).Msg("📈 Starting pprof server")
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.ErrorGlobal().Err(err).Msg("Failed to start pprof server")
			}
		}()
	}

	fmt.Printf("🚀 Starting Players Bet Monolith... Logs are being written to %s (rotating)\n", cfg.Server.LogFile)
	logger.InfoGlobal().
		Str("service", cfg.Server.Name).
		Str("match_id", cfg.Settings.MatchID).
		Msg("🎮 Starting Players Bet Monolith...")

	wagerDomain.SetNodeID(cfg.Settings.NodeID)

	// 2. Initialize Infrastructure
	var rdb *redis.Client
	if cfg.RepoType == "redis" || slices.Contains(cfg.Notifiers, "redis") {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.FatalGlobal().Err(err).Str("addr", cfg.Redis.Addr()).Msg("Failed to connect to redis")
		}
		cancel()
		logger.InfoGlobal().Msg("✅ Redis connected")
	}

	// 3. Initialize Modules

	// Roster
	var rosterStore rosterDomain.Store
	if cfg.RepoType == "redis" {
		rosterStore = rosterRedis.NewRosterRepository(rdb, cfg.Settings.MatchID)
		logger.InfoGlobal().Msg("✅ Roster store: Redis")
	} else {
		rosterStore = rosterMemory.NewRosterRepository()
		logger.InfoGlobal().Msg("✅ Roster store: Memory")
	}

	// Wallet
	var walletSvc wallet
	if cfg.WalletType == "db" {
		db := openDatabase(cfg.Database)
		sqlDB, err := db.DB()
		if err != nil {
			logger.FatalGlobal().Err(err).Msg("Failed to get database instance")
		}
		defer sqlDB.Close()

		accounts := walletRepo.NewAccountRepository(db)
		if err := accounts.AutoMigrate(); err != nil {
			logger.FatalGlobal().Err(err).Msg("Failed to migrate wallet tables")
		}
		walletSvc = accounts
		logger.InfoGlobal().Str("driver", cfg.Database.Driver).Msg("✅ Wallet module initialized (DB)")
	} else {
		walletSvc = walletModule.NewMemoryService()
		logger.InfoGlobal().Msg("✅ Wallet module initialized (Memory)")
	}

	// Identity
	resolver := identity.NewJWTResolver(cfg.JWT.Secret, cfg.JWT.Duration)

	// Gateway (initialize early, the ws sink pushes through it)
	wsManager := ws.NewManager(ws.Options{
		PingInterval:   cfg.WebSocket.PingInterval,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		SendBuffer:     cfg.WebSocket.SendBuffer,
	})
	wsCtx, stopWS := context.WithCancel(context.Background())
	defer stopWS()
	go wsManager.Run(wsCtx)
	gatewayHandler := gatewayLocal.NewHandler(wsManager)

	// Notification sinks
	var kafkaWriter *kafka.Writer
	sinks := make([]notify.Sink, 0, len(cfg.Notifiers))
	for _, name := range cfg.Notifiers {
		switch name {
		case "ws":
			sinks = append(sinks, notify.NewGatewaySink(gatewayHandler))
		case "redis":
			sinks = append(sinks, notify.NewRedisSink(rdb, cfg.Settings.MatchID))
		case "kafka":
			kafkaWriter = notify.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			sinks = append(sinks, notify.NewKafkaSink(kafkaWriter))
		}
		logger.InfoGlobal().Str("sink", name).Msg("  ✅ Notifier sink enabled")
	}
	notifier := notify.NewAsyncNotifier(notify.NewNotifier(cfg.Settings.MatchID, sinks...), 1024)

	// Wager
	registry := metrics.NewRegistry()
	tokens := wagerDomain.SideTokens{
		FirstTeam:  cfg.Settings.FirstTeamTokens,
		SecondTeam: cfg.Settings.SecondTeamTokens,
	}
	controller := wagerUseCase.NewRoundController(rosterStore, walletSvc, resolver, notifier, tokens, metrics.NewWager(registry))
	logger.InfoGlobal().Msg("✅ Wager module initialized")

	gatewayUC := gatewayUseCase.NewGatewayUseCase(controller)

	// Round machine for matches without a game host
	var stateMachine *machine.StateMachine
	var wg sync.WaitGroup
	machineCtx, stopMachine := context.WithCancel(context.Background())
	defer stopMachine()
	if cfg.Machine.Enabled {
		stateMachine = machine.NewStateMachine(rosterStore)
		stateMachine.LiveDuration = cfg.Machine.LiveDuration
		stateMachine.RestDuration = cfg.Machine.RestDuration
		stateMachine.KillInterval = cfg.Machine.KillInterval
		stateMachine.Simulate = cfg.Machine.Simulate
		stateMachine.RegisterEventHandler(wagerLocal.NewHandler(controller, gatewayHandler).HandleRoundEvent)

		wg.Add(1)
		go func() {
			defer wg.Done()
			stateMachine.Start(machineCtx)
		}()
		logger.InfoGlobal().Bool("simulate", cfg.Machine.Simulate).Msg("✅ Round machine started")
	}

	// 4. Setup HTTP Server
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware("/metrics", "/healthz"))

	hostOnly := identity.HostKeyMiddleware(cfg.Settings.HostKey)
	if cfg.Settings.HostKey == "" {
		logger.WarnGlobal().Msg("WAGER_HOST_KEY is empty, host routes are open")
	}

	gatewayHttp.NewHandler(gatewayUC, wsManager, resolver).RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler(registry)))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "online": wsManager.Count()})
	})

	api := router.Group("/api")
	{
		wagerHandler := wagerHttp.NewHandler(controller, controller, resolver, tokens)
		wagerGroup := api.Group("/wager")
		wagerHandler.RegisterRoutes(wagerGroup)
		wagerHandler.RegisterHostRoutes(wagerGroup.Group("", hostOnly))

		rosterHttp.NewHandler(rosterStore).RegisterRoutes(api.Group("/roster", hostOnly))

		walletHandler := walletHttp.NewHandler(walletSvc, walletSvc, resolver, cfg.Settings.StartingBalance)
		walletGroup := api.Group("/wallet")
		walletHandler.RegisterRoutes(walletGroup)
		walletHandler.RegisterHostRoutes(walletGroup.Group("", hostOnly))

		identity.NewHandler(resolver).RegisterRoutes(api.Group("/identity", hostOnly))
	}

	// 5. Start Server
	lis, port, err := netutil.Listen(cfg.Server.Port, cfg.Server.PortFallback)
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to listen")
	}
	srv := &http.Server{Handler: router}

	logger.InfoGlobal().
		Int("port", port).
		Str("ws_url", fmt.Sprintf("ws://localhost:%d/ws?token=YOUR_TOKEN", port)).
		Str("api_url", fmt.Sprintf("http://localhost:%d/api/wager", port)).
		Msg("🚀 Players Bet Monolith running")

	go func() {
		if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
			logger.FatalGlobal().Err(err).Msg("HTTP server failed")
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoGlobal().Msg("🛑 Shutting down server...")

	// 6.1 Stop HTTP server first (stop accepting new bets)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorGlobal().Err(err).Msg("HTTP server forced to shutdown")
	}

	// 6.2 Stop the round machine; the round in flight still settles
	if stateMachine != nil {
		logger.InfoGlobal().Msg("⏳ Settling current round...")
		stateMachine.Stop()
		stopMachine()
		wg.Wait()
	}

	// 6.3 Flush notifications before the sockets and writers go away
	notifier.Close()
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.ErrorGlobal().Err(err).Msg("Kafka writer close failed")
		}
	}

	// 6.4 Close all WebSocket connections
	logger.InfoGlobal().Msg("🔌 Closing all WebSocket connections...")
	wsManager.Shutdown()

	logger.InfoGlobal().Msg("👋 Server exited properly")
}

func openDatabase(cfg config.DatabaseConfig) *gorm.DB {
	gormLog := logger.NewGormLogger()
	gormLog.LogLevel = gormlogger.Warn

	var dialector gorm.Dialector
	if cfg.Driver == "postgres" {
		dialector = postgres.Open(cfg.DSN())
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			logger.FatalGlobal().Err(err).Str("path", cfg.Path).Msg("Failed to create database directory")
		}
		dialector = sqlite.Open(cfg.Path)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to get database instance")
	}
	if cfg.Driver == "postgres" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// sqlite serializes writers anyway
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to ping database")
	}
	logger.InfoGlobal().Str("driver", cfg.Driver).Msg("✅ Database connected")
	return db
}
