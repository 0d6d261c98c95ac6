package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"shopfront/internal/cartsession"
	"shopfront/internal/config"
	"shopfront/internal/database"
	"shopfront/internal/mail"
	custommiddleware "shopfront/internal/middleware"
	"shopfront/internal/repository"
	"shopfront/internal/service"
	"shopfront/internal/task"
	"shopfront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
	queue  *task.Queue
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client, queue *task.Queue) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 300,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"database": database.Health(db),
		})
	})

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db, productRepo, cartRepo)
	addressRepo := repository.NewAddressRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	guestCartTTL := time.Duration(cfg.Shop.GuestCartTTLDays) * 24 * time.Hour
	guestCarts := cartsession.New(redisClient, guestCartTTL)

	var mailer mail.Mailer
	if cfg.Server.Env == "development" {
		mailer = mail.NewLogMailer(logger)
	} else {
		mailer = mail.NewSMTPMailer(cfg.Mail)
	}

	// Services
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT)
	catalogService := service.NewCatalogService(productRepo, categoryRepo)
	cartService := service.NewCartService(productRepo, cartRepo, guestCarts)
	lowStockService := service.NewLowStockService(productRepo, userRepo, redisClient, mailer, cfg.Shop, logger)
	checkoutService := service.NewCheckoutService(cartService, orderRepo, addressRepo, lowStockService, queue, cfg.Shop, logger)
	orderService := service.NewOrderService(orderRepo, logger)
	addressService := service.NewAddressService(addressRepo)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)
	reviewService := service.NewReviewService(reviewRepo, productRepo)

	// Handlers
	userHandler := transport.NewUserHandler(userService, cartService, logger)
	productHandler := transport.NewProductHandler(catalogService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	checkoutHandler := transport.NewCheckoutHandler(checkoutService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	addressHandler := transport.NewAddressHandler(addressService, logger)
	wishlistHandler := transport.NewWishlistHandler(wishlistService, logger)
	reviewHandler := transport.NewReviewHandler(reviewService, logger)

	// Middleware shared across handlers
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	optionalAuth := custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, logger)
	cartSession := custommiddleware.CartSessionMiddleware(guestCartTTL)
	requireAdmin := custommiddleware.RequireAdmin(logger)

	// Login needs the cart session token to fold guest carts into accounts
	router.Group(func(r chi.Router) {
		r.Use(cartSession)
		userHandler.RegisterRoutes(r, authMiddleware)
	})
	productHandler.RegisterRoutes(router, authMiddleware, requireAdmin)
	cartHandler.RegisterRoutes(router, optionalAuth, cartSession)
	checkoutHandler.RegisterRoutes(router, optionalAuth, cartSession)
	orderHandler.RegisterRoutes(router, authMiddleware, optionalAuth)
	addressHandler.RegisterRoutes(router, authMiddleware)
	wishlistHandler.RegisterRoutes(router, authMiddleware)
	reviewHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
		queue:  queue,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.queue != nil {
		s.queue.Stop()
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
