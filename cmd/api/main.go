package main

import (
	"context"
	"fmt"
	"time"

	common_api "padtracker-console/internal/common/api"
	"padtracker-console/internal/config"
	"padtracker-console/internal/database"
	"padtracker-console/internal/features/auth"
	"padtracker-console/internal/features/dashboard"
	"padtracker-console/internal/features/grid"
	"padtracker-console/internal/features/history"
	"padtracker-console/internal/features/menu"
	"padtracker-console/internal/features/report"
	"padtracker-console/internal/features/resource"
	"padtracker-console/internal/features/saved_report"
	"padtracker-console/internal/features/system"
	"padtracker-console/internal/logger"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/session"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"

	_ "padtracker-console/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          common_api.ErrorHandler,
	})

	app.Use(middleware.CORSMiddleware(cfg))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, logger *zap.Logger, routes []common_api.Route) {
	logger.Info("Registering routes", zap.Int("count", len(routes)))
	for i, route := range routes {
		logger.Debug("Setting up route", zap.Int("index", i+1), zap.String("api", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
	logger.Info("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, ``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					logger.Fatal("Server failed to start", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures the session collection indexes exist when sessions live in MongoDB
func InitializeIndexes(lc fx.Lifecycle, st session.Store, logger *zap.Logger) {
	mongoStore, ok := st.(*session.MongoStore)
	if !ok {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := mongoStore.EnsureIndexes(ctx); err != nil {
					logger.Error("Failed to ensure session indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// CloseWorkspaces stops pending debounced fetches on shutdown.
func CloseWorkspaces(lc fx.Lifecycle, workspaces *store.Registry) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			workspaces.CloseAll()
			return nil
		},
	})
}

func NewUpstreamClient(cfg *config.Config, logger *zap.Logger) *upstream.Client {
	return upstream.NewClient(cfg, logger, session.TokenFromContext)
}

func NewDisplayRules(cfg *config.Config) (grid.DisplayRules, error) {
	return grid.LoadDisplayRules(cfg.DisplayRulesFile)
}

// @title           Padtracker Console API
// @version         1.0
// @description     Admin console backend for the Padtracker sanitary pad vending network.

// @host            localhost:8080
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Sessions and per-session state
			store.NewRegistry,
			session.NewStore,
			NewUpstreamClient,
			session.NewService,
			session.NewSweeper,
			NewDisplayRules,

			// Initialize Service
			auth.NewAuthService,
			dashboard.NewDashboardService,
			report.NewReportService,
			saved_report.NewSavedReportService,
			history.NewHistoryService,

			// Initialize Controller
			auth.NewAuthController,
			dashboard.NewDashboardController,
			report.NewReportController,
			saved_report.NewSavedReportController,
			history.NewHistoryController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(dashboard.NewDashboardApi),
			AsRoute(menu.NewMenuApi),
			AsRoute(report.NewReportApi),
			AsRoute(saved_report.NewSavedReportApi),
			AsRoute(history.NewHistoryApi),
			AsRoute(resource.NewResourceApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			session.RegisterSweeper,
			InitializeIndexes,
			CloseWorkspaces,
		),
	)

	app.Run()
}
