// Package http provides the HTTP adapter over the application services.
// Handlers stay thin: bind, call the service, translate the result.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/application/service"
	"github.com/expenseflow/expenseflow/internal/infrastructure/export"
	"github.com/expenseflow/expenseflow/internal/receipt"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// UploadConfig holds receipt upload configuration
type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

// Deps bundles everything the HTTP layer serves.
type Deps struct {
	AuthService    service.AuthService
	ExpenseService service.ExpenseService
	RuleService    service.RuleService
	UserService    service.UserService
	Tokens         port.TokenIssuer
	UserRepo       port.UserRepository
	CompanyRepo    port.CompanyRepository
	Converter      port.CurrencyConverter
	Countries      port.CountryResolver
	Scanner        port.ReceiptScanner
	PDFReader      *receipt.PDFReader
	Exporter       *export.ExcelWriter
	Upload         UploadConfig
	Logger         Logger
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Deps
	logger     Logger
}

// NewServer creates a new HTTP server with the given dependencies
func NewServer(config ServerConfig, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
		logger: deps.Logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.deps)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")

	// Public endpoints
	api.POST("/auth/signup", handlers.Signup)
	api.POST("/auth/login", handlers.Login)

	authed := api.Group("")
	authed.Use(authMiddleware(s.deps.Tokens, s.deps.UserRepo))
	{
		authed.GET("/auth/me", handlers.Me)
		authed.POST("/auth/change-password", handlers.ChangePassword)

		// Expenses
		authed.POST("/expenses", handlers.CreateExpense)
		authed.GET("/expenses", handlers.ListExpenses)
		authed.GET("/expenses/mine", handlers.ListMyExpenses)
		authed.GET("/expenses/export", handlers.ExportExpenses)
		authed.GET("/expenses/:id", handlers.GetExpense)
		authed.POST("/expenses/:id/approve", handlers.ApproveExpense)
		authed.POST("/expenses/:id/reject", handlers.RejectExpense)

		// Approval queue and team history
		approver := authed.Group("")
		approver.Use(requireApprover())
		{
			approver.GET("/approvals/pending", handlers.ListPendingApprovals)
			approver.GET("/approvals/team", handlers.ListTeamExpenses)
		}

		// Receipt scanning
		authed.POST("/receipts/scan", handlers.ScanReceipt)

		// Currency helpers
		authed.GET("/currency/countries", handlers.ListCountries)
		authed.GET("/currency/rates/:base", handlers.GetRates)
		authed.POST("/currency/convert", handlers.ConvertCurrency)

		// Admin-only management
		admin := authed.Group("")
		admin.Use(requireAdmin())
		{
			admin.POST("/users", handlers.CreateUser)
			admin.GET("/users", handlers.ListUsers)
			admin.GET("/users/:id", handlers.GetUser)
			admin.PUT("/users/:id", handlers.UpdateUser)

			admin.POST("/rules", handlers.CreateRule)
			admin.GET("/rules", handlers.ListRules)
			admin.GET("/rules/:id", handlers.GetRule)
			admin.PUT("/rules/:id", handlers.UpdateRule)
			admin.DELETE("/rules/:id", handlers.DeleteRule)
			admin.POST("/rules/:id/toggle", handlers.ToggleRule)
		}
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
