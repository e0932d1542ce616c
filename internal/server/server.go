package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/IMRiesen/avitolike/internal/agent"
	"github.com/IMRiesen/avitolike/internal/config"
	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/IMRiesen/avitolike/internal/middleware"
	"github.com/IMRiesen/avitolike/pkg/ratelimiter"
	"github.com/IMRiesen/avitolike/pkg/storage"
	"github.com/IMRiesen/avitolike/pkg/token"

	adHttp "github.com/IMRiesen/avitolike/internal/modules/ad/delivery/http"
	adRepo "github.com/IMRiesen/avitolike/internal/modules/ad/repository"
	adService "github.com/IMRiesen/avitolike/internal/modules/ad/service"

	categoryHttp "github.com/IMRiesen/avitolike/internal/modules/category/delivery/http"
	categoryRepo "github.com/IMRiesen/avitolike/internal/modules/category/repository"
	categoryService "github.com/IMRiesen/avitolike/internal/modules/category/service"

	favoriteHttp "github.com/IMRiesen/avitolike/internal/modules/favorite/delivery/http"
	favoriteRepo "github.com/IMRiesen/avitolike/internal/modules/favorite/repository"
	favoriteService "github.com/IMRiesen/avitolike/internal/modules/favorite/service"

	notiHttp "github.com/IMRiesen/avitolike/internal/modules/notification/delivery/http"
	notifRepo "github.com/IMRiesen/avitolike/internal/modules/notification/repository"
	notifService "github.com/IMRiesen/avitolike/internal/modules/notification/service"

	reviewHttp "github.com/IMRiesen/avitolike/internal/modules/review/delivery/http"
	reviewRepo "github.com/IMRiesen/avitolike/internal/modules/review/repository"
	reviewService "github.com/IMRiesen/avitolike/internal/modules/review/service"

	uploadHttp "github.com/IMRiesen/avitolike/internal/modules/upload/delivery/http"
	uploadService "github.com/IMRiesen/avitolike/internal/modules/upload/service"

	userHttp "github.com/IMRiesen/avitolike/internal/modules/user/delivery/http"
	userRepo "github.com/IMRiesen/avitolike/internal/modules/user/repository"
	userService "github.com/IMRiesen/avitolike/internal/modules/user/service"

	viewRepo "github.com/IMRiesen/avitolike/internal/modules/view/repository"
	viewService "github.com/IMRiesen/avitolike/internal/modules/view/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *agent.Scheduler
}

// NewServer wires every module. redisClient may be nil; search and image
// storage are enabled only when configured.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var imageStorage storage.ImageStorage
	if cfg.CloudinaryURL != "" {
		var err error
		if imageStorage, err = storage.NewCloudinaryStorage(cfg.CloudinaryURL); err != nil {
			return nil, err
		}
	} else {
		logrus.Warn("CLOUDINARY_URL not set, image uploads disabled")
	}

	searchSvc := newSearchService(cfg)

	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	userRepository := userRepo.NewUserRepository(db)
	authSvc := userService.NewAuthService(userRepository, tokens)
	authHandler := userHttp.NewAuthHandler(authSvc)

	categoryRepository := categoryRepo.NewCategoryRepository(db)
	categorySvc := categoryService.NewCategoryService(categoryRepository, redisClient, cfg.CategoryCacheTTL)
	categoryHandler := categoryHttp.NewCategoryHandler(categorySvc)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, cfg.AllowedOrigins)

	adRepository := adRepo.NewAdRepository(db)
	favoriteRepository := favoriteRepo.NewFavoriteRepository(db)
	viewRepository := viewRepo.NewViewRepository(db)
	viewSvc := viewService.NewViewService(adRepository, viewRepository)

	adSvc := adService.NewService(
		adRepository, categoryRepository, favoriteRepository, notificationSvc, viewSvc, searchSvc, imageStorage,
		adService.WithPostLimiter(ratelimiter.New(redisClient, "post_ad", cfg.AdPostCooldown)),
	)
	adHandler := adHttp.NewAdHandler(adSvc)

	favoriteSvc := favoriteService.NewFavoriteService(favoriteRepository, adRepository, notificationSvc)
	favoriteHandler := favoriteHttp.NewFavoriteHandler(favoriteSvc)

	reviewSvc := reviewService.NewReviewService(reviewRepo.NewReviewRepository(db), adRepository, userRepository, notificationSvc)
	reviewHandler := reviewHttp.NewReviewHandler(reviewSvc)

	uploadSvc := uploadService.NewUploadService(imageStorage, cfg.CloudinaryUploadFolder)
	uploadHandler := uploadHttp.NewUploadHandler(uploadSvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger("/healthz"))

	s := &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
	router.GET("/healthz", s.healthz)

	if cfg.AgentsEnabled {
		scheduler, err := newScheduler(cfg, redisClient, adRepository, viewRepository, searchSvc)
		if err != nil {
			return nil, err
		}
		s.scheduler = scheduler
	}

	api := router.Group("/api")

	// The websocket stream outlives any request timeout.
	api.GET("/notifications/ws", authMiddleware.RequireAuth(), notificationHandler.HandleWebSocket)

	rest := api.Group("")
	rest.Use(middleware.Timeout(cfg.RequestTimeout))

	// Public routes (no auth required)
	auth := rest.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/current", authMiddleware.RequireAuth(), authHandler.Current)
	}

	rest.GET("/categories", categoryHandler.GetAllCategories)

	ads := rest.Group("/ads")
	{
		ads.GET("", authMiddleware.OptionalAuth(), adHandler.ListAds)
		ads.GET("/search", authMiddleware.OptionalAuth(), adHandler.SearchAds)
		ads.GET("/relevant", adHandler.RelevantAds)
		ads.GET("/user/:userId", adHandler.UserAds)
		ads.GET("/:id", authMiddleware.OptionalAuth(), adHandler.GetAd)
		ads.GET("/:id/reviews", reviewHandler.GetReviews)
	}

	// Protected routes (apply auth middleware explicitly)
	protected := rest.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		adminGroup := protected.Group("")
		adminGroup.Use(authMiddleware.RequireRole(entity.RoleAdmin))
		{
			adminGroup.POST("/categories", categoryHandler.CreateCategory)
			adminGroup.DELETE("/categories/:id", categoryHandler.DeleteCategory)
		}

		protected.GET("/users/me/settings", authHandler.GetSettings)
		protected.PUT("/users/me/settings", authHandler.UpdateSettings)

		protected.POST("/ads", adHandler.CreateAd)
		protected.PUT("/ads/:id", adHandler.UpdateAd)
		protected.DELETE("/ads/:id", adHandler.DeleteAd)
		protected.POST("/ads/:id/reviews", reviewHandler.AddReview)

		favoriteHandler.Register(protected.Group("/ads/favorites"))
		favoriteHandler.Register(protected.Group("/favorites"))

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.POST("/notifications", notificationHandler.CreateNotification)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.POST("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.POST("/notifications/mark-all-read", notificationHandler.MarkAllAsRead)

		protected.POST("/uploads", uploadHandler.UploadImage)
	}

	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	if s.scheduler != nil {
		s.scheduler.Start()
		defer func() { <-s.scheduler.Stop().Done() }()
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", s.httpServer.Addr).Info("http server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) healthz(c *gin.Context) {
	status := gin.H{"status": "ok"}
	code := http.StatusOK

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(c.Request.Context()).Err(); err != nil {
			status["redis"] = "unreachable"
		}
	}

	c.JSON(code, status)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Location", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
