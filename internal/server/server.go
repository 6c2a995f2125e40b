package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/mjoneill88/greentogo/internal/auth"
	"github.com/mjoneill88/greentogo/internal/billing"
	"github.com/mjoneill88/greentogo/internal/config"
	"github.com/mjoneill88/greentogo/internal/email"
	"github.com/mjoneill88/greentogo/internal/location"
	"github.com/mjoneill88/greentogo/internal/subscription"
	"github.com/mjoneill88/greentogo/internal/user"
	"github.com/mjoneill88/greentogo/web"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, provider billing.Provider, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(20, 40))
	router.Use(corsMiddleware())
	router.SetHTMLTemplate(web.Templates())

	userHandler := user.NewHandler(db, provider, cfg.SessionSecret)
	subscriptionHandler := subscription.NewHandler(db, provider, emailService, cfg.StripePublishableKey)
	locationHandler := location.NewHandler(db)

	router.GET("/", userHandler.Index)
	router.GET("/login", userHandler.LoginForm)
	router.POST("/login", userHandler.Login)
	router.GET("/logout", userHandler.Logout)
	router.GET("/register", userHandler.RegisterForm)
	router.POST("/register", userHandler.Register)

	sessionMiddleware := auth.SessionMiddleware(cfg.SessionSecret)
	member := router.Group("/")
	member.Use(sessionMiddleware)
	{
		member.GET("/account", userHandler.Account)
		member.POST("/account", userHandler.UpdateAccount)
		member.GET("/change-password", userHandler.ChangePasswordForm)
		member.POST("/change-password", userHandler.ChangePassword)

		member.GET("/subscriptions/add", subscriptionHandler.AddForm)
		member.POST("/subscriptions/add", subscriptionHandler.Add)
		member.GET("/subscriptions/:subID", subscriptionHandler.Detail)
		member.GET("/subscriptions/:subID/plan", subscriptionHandler.ChangeForm)
		member.POST("/subscriptions/:subID/plan", subscriptionHandler.Change)
		member.GET("/subscriptions/:subID/cancel", subscriptionHandler.CancelForm)
		member.POST("/subscriptions/:subID/cancel", subscriptionHandler.Cancel)
	}

	operatorMiddleware := auth.RequireRole(auth.RoleOperator)
	ops := router.Group("/ops")
	ops.Use(sessionMiddleware, operatorMiddleware)
	{
		ops.GET("/unclaimed-subscriptions.csv", subscriptionHandler.UnclaimedCSV)
		ops.GET("/stock-report", locationHandler.StockReport)
		ops.GET("/activity-report", locationHandler.ActivityReport)
		ops.GET("/activity-report/:days", locationHandler.ActivityReport)
		ops.GET("/restock-locations", locationHandler.RestockLocations)
		ops.POST("/restock-locations/:locationID", locationHandler.RestockLocation)
		ops.GET("/empty-locations", locationHandler.EmptyLocations)
		ops.POST("/empty-locations/:locationID", locationHandler.EmptyLocation)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
