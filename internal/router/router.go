package router

import (
	"net/http"
	"time"

	"loyaltytree/config"
	"loyaltytree/internal/domain"
	"loyaltytree/internal/handler"
	"loyaltytree/internal/middleware"
	"loyaltytree/internal/repository"
	"loyaltytree/internal/service"
	"loyaltytree/internal/ws"
	"loyaltytree/pkg/imagestore"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// App is the wired HTTP application plus the pieces cmd/server runs alongside it.
type App struct {
	Engine      *gin.Engine
	Redemptions *service.RedemptionService
	Limiter     *middleware.InMemoryRateLimiter
}

func Setup(cfg *config.Config, db *gorm.DB, images imagestore.Store) *App {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = cfg.Upload.MaxBytes
	limiter := middleware.NewInMemoryRateLimiter(cfg.RateLimit.PerMinute, time.Minute)

	// Repositories
	customerRepo := repository.NewCustomerRepository(db)
	retailerRepo := repository.NewRetailerRepository(db)
	treeRepo := repository.NewTreeRepository(db)
	voucherRepo := repository.NewVoucherRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)

	eventsHub := ws.NewHub()
	broadcaster := &ws.Broadcaster{Events: eventsHub}

	// Services
	authSvc := service.NewAuthService(&cfg.JWT, customerRepo, retailerRepo)
	treeSvc := service.NewTreeService(db, treeRepo, customerRepo, cfg.Points, cfg.Map, broadcaster)
	voucherSvc := service.NewVoucherService(voucherRepo, redemptionRepo, images, cfg.Upload.Placeholder)
	redemptionSvc := service.NewRedemptionService(db, voucherRepo, customerRepo, redemptionRepo, cfg.Redemption, broadcaster)

	treeHub := ws.NewTreeMapHub(treeSvc)
	broadcaster.Trees = treeHub

	// Handlers
	uploader := handler.NewImageUploader(images, cfg.Upload.MaxBytes)
	authHandler := handler.NewAuthHandler(authSvc)
	treeHandler := handler.NewTreeHandler(treeSvc, uploader)
	voucherHandler := handler.NewVoucherHandler(voucherSvc, redemptionSvc, uploader)

	authMw := middleware.AuthRequired(authSvc)
	customerOnly := middleware.RequireAccountType(domain.AccountCustomer)
	retailerOnly := middleware.RequireAccountType(domain.AccountRetailer)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if !cfg.Cloudinary.Enabled() {
		r.Static(imagestore.URLPrefix, cfg.Upload.Dir)
	}

	api := r.Group("/api", middleware.RateLimit(limiter))
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/profile", authMw, authHandler.GetProfile)
			authGroup.PUT("/profile", authMw, authHandler.UpdateProfile)
		}

		trees := api.Group("/trees")
		{
			trees.GET("/nearby", treeHandler.Nearby)
			trees.POST("", authMw, customerOnly, treeHandler.Submit)
			trees.GET("/my", authMw, customerOnly, treeHandler.ListMine)
			trees.GET("/pending", authMw, middleware.AdminRequired(), treeHandler.ListPending)
			trees.PUT("/:id/review", authMw, middleware.AdminRequired(), treeHandler.Review)
		}

		vouchers := api.Group("/vouchers")
		{
			vouchers.GET("/available", voucherHandler.ListAvailable)
			vouchers.POST("/redeem", authMw, customerOnly, voucherHandler.Redeem)
			vouchers.GET("/my-redemptions", authMw, customerOnly, voucherHandler.MyRedemptions)

			vouchers.POST("", authMw, retailerOnly, voucherHandler.Create)
			vouchers.GET("/retailer", authMw, retailerOnly, voucherHandler.ListMine)
			vouchers.GET("/retailer/stats", authMw, retailerOnly, voucherHandler.Stats)
			vouchers.PUT("/:id", authMw, retailerOnly, voucherHandler.Update)
			vouchers.DELETE("/:id", authMw, retailerOnly, voucherHandler.Delete)
			vouchers.POST("/redemptions/:code/use", authMw, retailerOnly, voucherHandler.UseRedemption)
		}
	}

	r.GET("/ws/events", ws.UpgradeEventsWS(authSvc, eventsHub))
	r.GET("/ws/trees", ws.UpgradeTreeMapWS(treeHub))

	return &App{Engine: r, Redemptions: redemptionSvc, Limiter: limiter}
}
