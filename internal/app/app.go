package app

import (
	"context"
	"crossline/internal/config"
	"crossline/internal/logger"
	"crossline/internal/repository"
	"crossline/internal/repository/sqlite"
	"crossline/internal/route"
	"crossline/internal/service"
	"crossline/internal/service/dispatch"
	"crossline/internal/service/websocket"
	"crossline/internal/source"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownTimeout bounds the HTTP shutdown and the dispatch pool drain.
const shutdownTimeout = 10 * time.Second

type App struct {
	config       *config.Config
	logger       *logger.Logger
	db           *sqlite.DB
	dispatchRepo repository.DispatchRepository
	hubService   *websocket.HubService
	session      *service.Session
	udpSource    *source.UDPSource
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	a := &App{
		config: cfg,
		logger: log,
	}

	if cfg.AuditDBPath != "" {
		db, err := sqlite.New(cfg.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit database: %w", err)
		}
		a.db = db
		a.dispatchRepo = sqlite.NewDispatchRepository(db)
	} else {
		log.Warning("AUDIT_DB_PATH is empty, dispatch audit is kept in %s only", logger.AuditFile)
	}

	a.hubService = websocket.NewHubService(log)
	client := dispatch.NewClient(cfg, log)
	a.session = service.NewSession(cfg, log, client, a.dispatchRepo, a.hubService)

	if cfg.DetectorPort > 0 {
		udp, err := source.ListenUDP(fmt.Sprintf(":%d", cfg.DetectorPort), log)
		if err != nil {
			a.closeDB()
			return nil, err
		}
		a.udpSource = udp
	}

	return a, nil
}

// Run serves the API until SIGINT/SIGTERM, then shuts the server down and
// drains outstanding dispatches.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.hubService.Run(ctx)

	if a.udpSource != nil {
		go func() {
			if err := a.session.Run(ctx, a.udpSource); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("UDP frame loop stopped: %v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: route.SetupRoutes(a.session, a.hubService, a.config, a.logger, a.dispatchRepo),
	}

	fmt.Printf("🚀 Crossline dispatch server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🚰 Actuator: %s\n", a.config.ActuatorURL)
	if a.udpSource != nil {
		fmt.Printf("📡 Detector UDP: %s\n", a.udpSource.Addr())
	}
	if a.dispatchRepo != nil {
		fmt.Printf("🗄️  Audit DB: %s\n", a.config.AuditDBPath)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
		stop()
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP shutdown error: %v", err)
	}
	if a.udpSource != nil {
		a.udpSource.Close()
	}
	if err := a.session.Close(shutdownCtx); err != nil {
		a.logger.Warning("Dispatch drain incomplete: %v", err)
	}
	a.closeDB()

	return runErr
}

func (a *App) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close audit database: %v", err)
	}
}
