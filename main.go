// package main provides the entry point and page handlers of the SBOM Finder
// dashboard, a server-rendered front end over the SBOM Finder REST backend.
package main

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/ortelius/sbom-finder-dashboard/analytics"
	"github.com/ortelius/sbom-finder-dashboard/backend"
	"github.com/ortelius/sbom-finder-dashboard/config"
	"github.com/ortelius/sbom-finder-dashboard/ui"
	"go.uber.org/zap"
)

// server carries what every handler shares
type server struct {
	api       *backend.Client
	logger    *zap.Logger
	pages     map[string]*template.Template
	sessions  *sessionStore
	analytics *analytics.Aggregator
}

func newServer(api *backend.Client, cfg config.Config, logger *zap.Logger) (*server, error) {
	pages, err := ui.Parse(templateFuncs())
	if err != nil {
		return nil, err
	}
	return &server{
		api:       api,
		logger:    logger,
		pages:     pages,
		sessions:  newSessionStore(cfg.SessionMax, cfg.SessionTTL, func() *session { return newSession(api, logger) }),
		analytics: analytics.NewAggregator(api, logger),
	}, nil
}

// newApp builds the fiber app with middleware and routes
func newApp(api *backend.Client, cfg config.Config, log *zap.Logger) (*fiber.App, error) {
	s, err := newServer(api, cfg, log)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:     "sbom-finder-dashboard v1.0",
		BodyLimit:   50 * 1024 * 1024, // 50MB limit for source archives
		ReadTimeout: time.Second * 60,
		// sessions keep form values, query ids and the cookie beyond the request
		Immutable: true,
	})

	// Middleware
	app.Use(fiberrecover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:       http.FS(ui.FS),
		PathPrefix: "static",
	}))

	// Health check endpoint
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"sessions": s.sessions.len(),
		})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/device-list", fiber.StatusFound)
	})

	app.Get("/device-list", s.GetDeviceList)
	app.Post("/device-list/search", s.PostDeviceSearch)
	app.Post("/device-list/reset", s.PostDeviceReset)
	app.Post("/device-list/delete/:id", s.PostDeviceDelete)

	app.Get("/device-details", s.GetDeviceDetails)
	app.Post("/device-details/toggle/:section", s.PostDetailToggle)

	app.Get("/compare-sboms", s.GetCompare)
	app.Post("/compare-sboms", s.PostCompare)
	app.Post("/compare-sboms/toggle", s.PostCompareToggle)

	app.Get("/analytics", s.GetAnalytics)

	app.Get("/upload", s.GetUpload)
	app.Post("/upload", s.PostUpload)

	app.Get("/device-sbom-archive", s.GetArchive)
	app.Get("/download/archive/:id", s.GetArchiveDownload)
	app.Get("/download/:id", s.GetDownload)

	app.Get("/api/compare", s.GetCompareJSON)

	return app, nil
}

// ============================================================================
// Main
// ============================================================================

func main() {
	log := backend.InitLogger()
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	api := backend.NewClient(cfg.APIURL, backend.WithLogger(log))

	ctx, cancel := context.WithCancel(context.Background())
	if err := api.WaitUntilReady(ctx, cfg.ReadyTimeout); err != nil {
		// pages still render and show the backend's error text per request
		log.Warn("Backend not reachable", zap.String("url", cfg.APIURL), zap.Error(err))
	}
	cancel()

	app, err := newApp(api, cfg, log)
	if err != nil {
		log.Fatal("Failed to build app", zap.Error(err))
	}

	log.Sugar().Infof("Starting server on port %s", cfg.Port)
	log.Sugar().Infof("Using SBOM Finder API at %s", cfg.APIURL)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
