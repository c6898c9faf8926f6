package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/okhotin/storefront/internal/cart"
	"github.com/okhotin/storefront/internal/config"
	"github.com/okhotin/storefront/internal/es"
	"github.com/okhotin/storefront/internal/guestcart"
	"github.com/okhotin/storefront/internal/handlers"
	"github.com/okhotin/storefront/internal/kvstore"
	"github.com/okhotin/storefront/internal/logging"
	"github.com/okhotin/storefront/internal/mykafka"
	"github.com/okhotin/storefront/internal/promo"
	"github.com/okhotin/storefront/internal/service/token"
	httptransport "github.com/okhotin/storefront/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *mykafka.Producer
	var events mykafka.Publisher
	if cfg.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
		events = producer
	} else {
		logger.Warn("KAFKA_ADDRESS empty, domain events disabled")
	}

	var indexer *es.Indexer
	var searchHandler *handlers.SearchHandler
	if cfg.ES_URL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		indexer = &es.Indexer{ES: esClient, Index: "products"}
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: "products"}
	} else {
		logger.Warn("ES_URL empty, product search disabled")
	}

	guestKV, err := kvstore.NewFileStore(cfg.GUEST_CART_DIR)
	if err != nil {
		log.Fatalf("guest cart store init error: %v", err)
	}
	guestStore := guestcart.NewStore(guestKV, logger)

	cartRepo := &cart.GormRepo{DB: db}
	cartService := &cart.Service{Repo: cartRepo}
	reconciler := &cart.Reconciler{
		Guest: guestStore,
		Carts: cartService,
		Log:   logger,
	}

	promoService := &promo.Service{DB: db}
	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     []byte(cfg.JWT_SECRET),
		RefreshSecret: []byte(cfg.REFRESH_SECRET),
	}

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(logging.RequestLogger(logger))

	httptransport.Register(e, &httptransport.Deps{
		Auth: &handlers.AuthHandler{
			DB:            db,
			JWTSecret:     []byte(cfg.JWT_SECRET),
			RefreshSecret: []byte(cfg.REFRESH_SECRET),
			Events:        events,
			Reconciler:    reconciler,
		},
		GuestCart:  &handlers.GuestCartHandler{Guest: guestStore},
		Cart:       &handlers.CartHandler{Carts: cartService, Events: events},
		Products:   &handlers.ProductHandler{DB: db, Events: events, Indexer: indexer},
		Categories: &handlers.CategoryHandler{DB: db},
		Promos:     &handlers.PromoHandler{DB: db, Promos: promoService},
		Checkout:   &handlers.CheckoutHandler{DB: db, Carts: cartService, Promos: promoService, Events: events},
		Addresses:  &handlers.AddressHandler{DB: db},
		Admin:      &handlers.AdminHandler{DB: db},
		Search:     searchHandler,
		Tokens:     tokens,
	})

	go func() {
		logger.Info("starting storefront server", "port", cfg.SERVER_PORT)
		if err := e.Start(":" + cfg.SERVER_PORT); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}

	logger.Info("server stopped")
}
