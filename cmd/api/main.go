package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/oshimalab/foodstore-backend/internal/config"
	"github.com/oshimalab/foodstore-backend/internal/modules/auth"
	"github.com/oshimalab/foodstore-backend/internal/modules/catalog"
	"github.com/oshimalab/foodstore-backend/internal/modules/history"
	"github.com/oshimalab/foodstore-backend/internal/modules/inventory"
	"github.com/oshimalab/foodstore-backend/internal/modules/ledger"
	"github.com/oshimalab/foodstore-backend/internal/modules/member"
	"github.com/oshimalab/foodstore-backend/internal/modules/notify"
	"github.com/oshimalab/foodstore-backend/internal/modules/presence"
	"github.com/oshimalab/foodstore-backend/internal/modules/settlement"
	"github.com/oshimalab/foodstore-backend/internal/realtime"
	"github.com/oshimalab/foodstore-backend/pkg/database"
	"github.com/oshimalab/foodstore-backend/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment as-is")
	}

	logger, err := logging.Init(logging.ConfigFromEnv())
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("loading kiosk config", zap.Error(err))
	}

	dbCfg := database.ConfigFromEnv()
	db, err := database.Connect(dbCfg)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to database")

	authService, err := auth.NewServiceFromEnv()
	if err != nil {
		logger.Fatal("auth config", zap.Error(err))
	}

	sink := notify.NewWebhookSink(os.Getenv("SLACK_WEBHOOK_URL"), logger)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logging.RequestLogger(logger))

	// ── Members & presence ──────────────────────────────────
	memberRepo := member.NewPostgresRepository(db)

	subscriber := realtime.NewPQSubscriber(dbCfg.DSN, logger)
	watcher := presence.NewWatcher(cfg.KioskID, memberRepo, subscriber, cfg.ReconnectBackoff(), logger)
	watcher.Start()
	defer watcher.Teardown()

	presenceRepo := presence.NewPostgresRepository(db)
	presence.NewHandler(presenceRepo, watcher).RegisterRoutes(router)

	memberService := member.NewService(memberRepo, watcher, logger)
	memberHandler := member.NewHandler(memberService)
	memberHandler.RegisterRoutes(router)

	if cfg.BridgeURL != "" {
		poller := presence.NewBridgePoller(cfg.KioskID, cfg.BridgeURL, cfg.BridgePollInterval(), presenceRepo, logger)
		go poller.Run(context.Background())
	}

	// ── Catalog & settlement ────────────────────────────────
	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo, logger)
	catalogHandler := catalog.NewHandler(catalogService)
	catalogHandler.RegisterRoutes(router)

	settlementRepo := settlement.NewPostgresRepository(db)
	settlementService := settlement.NewService(settlementRepo, sink, cfg.LowStockThreshold, logger)
	settlement.NewHandler(settlementService).RegisterRoutes(router)

	// ── Ledger, history, inventory ──────────────────────────
	ledgerService := ledger.NewService(ledger.NewPostgresRepository(db), sink, logger)
	ledgerHandler := ledger.NewHandler(ledgerService)

	historyService := history.NewService(history.NewPostgresRepository(sqlx.NewDb(db, "postgres")), logger)
	historyHandler := history.NewHandler(historyService)
	historyHandler.RegisterRoutes(router)

	inventoryService := inventory.NewService(inventory.NewPostgresRepository(db), logger)
	inventoryHandler := inventory.NewHandler(inventoryService)

	// ── Admin ───────────────────────────────────────────────
	auth.NewHandler(authService).RegisterRoutes(router)
	router.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(auth.Middleware(authService))
		memberHandler.RegisterAdminRoutes(r)
		catalogHandler.RegisterAdminRoutes(r)
		ledgerHandler.RegisterAdminRoutes(r)
		historyHandler.RegisterAdminRoutes(r)
		inventoryHandler.RegisterAdminRoutes(r)
	})

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("api server starting", zap.String("port", port), zap.String("kiosk_id", cfg.KioskID))
	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
