// Command mazerunner starts the maze game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the maze API, WebSocket events and an /mcp endpoint
//  2. "stdio-mcp" runs an MCP stdio server backed by an internal HTTP API, or by --api-url when given
//
// Settings come from an optional config file, MAZE_* environment variables
// and command-line flags, in increasing order of precedence.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/JockeTS/mazerunner/api"
	"github.com/JockeTS/mazerunner/appconfig"
	"github.com/JockeTS/mazerunner/game/catalog"
	"github.com/JockeTS/mazerunner/game/service"
	"github.com/JockeTS/mazerunner/game/session"
	"github.com/JockeTS/mazerunner/observability"
	"github.com/JockeTS/mazerunner/transport/mcp"
	"github.com/JockeTS/mazerunner/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Maze Runner Server"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the CLI. Flags on the root command are visible to every
// subcommand.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "mazerunner",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML/JSON/TOML config file",
				Sources: cli.EnvVars("MAZE_CONFIG"),
			},
			&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
			&cli.StringFlag{Name: "maps-dir", Usage: "directory containing map files"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging with console output"},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel"},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with API, WebSocket and MCP endpoint (default)",
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run an MCP stdio server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "api-url",
						Usage: "use an already running maze API instead of starting an internal one",
					},
				},
				Action: runStdioMCP,
			},
		},
	}
}

// configFromCommand loads the configuration and applies explicitly set flags
// on top of it.
func configFromCommand(cmd *cli.Command) (appconfig.Config, error) {
	overrides := map[string]interface{}{}
	if cmd.IsSet("host") {
		overrides["server.host"] = cmd.String("host")
	}
	if cmd.IsSet("port") {
		overrides["server.port"] = int(cmd.Int("port"))
	}
	if cmd.IsSet("maps-dir") {
		overrides["maps.dir"] = cmd.String("maps-dir")
	}
	if cmd.Bool("debug") {
		overrides["logging.level"] = "debug"
		overrides["logging.format"] = "console"
	}
	if cmd.Bool("ngrok") {
		overrides["ngrok.enabled"] = true
	}
	return appconfig.Load(cmd.String("config"), overrides)
}

// application holds the wired game components shared by both run modes.
type application struct {
	cfg      appconfig.Config
	logger   *zap.Logger
	sessions *session.Manager
	maps     *catalog.Manager
	hub      *websocket.Hub
	games    service.GameService
}

func newApplication(cfg appconfig.Config, logger *zap.Logger) (*application, error) {
	maps, err := catalog.NewManager(cfg.Maps.Dir, logger.Named("catalog"))
	if err != nil {
		return nil, fmt.Errorf("failed to create map catalog: %w", err)
	}

	sessions := session.NewManager(logger.Named("session"))
	hub := websocket.NewHub(logger.Named("websocket"))

	return &application{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		maps:     maps,
		hub:      hub,
		games:    service.NewGameService(sessions, maps, hub, logger.Named("service")),
	}, nil
}

// handler combines the traced maze API at "/" with the MCP endpoint, whose
// tools call the API at baseURL.
func (a *application) handler(baseURL string) http.Handler {
	apiServer := api.NewServer(a.games, a.hub, a.logger.Named("api"))
	mcpClient := mcp.NewClient(baseURL, Version, a.logger.Named("mcp"))

	mux := http.NewServeMux()
	mux.Handle("/", otelhttp.NewHandler(apiServer, a.cfg.Tracing.ServiceName))
	mux.Handle("/mcp", mcpClient)
	return mux
}

// runSessionCleanup removes sessions idle for longer than the configured TTL
// until ctx is cancelled.
func (a *application) runSessionCleanup(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Sessions.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := a.sessions.CleanupExpiredSessions(a.cfg.Sessions.TTL); removed > 0 {
				a.logger.Info("Cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

// setup loads config, logging and tracing for either mode.
func setup(ctx context.Context, cmd *cli.Command) (*application, func(), error) {
	cfg, err := configFromCommand(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	app, err := newApplication(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return app, cleanup, nil
}

// runServer starts the HTTP server and, when enabled, an ngrok tunnel serving
// the same handler. It blocks until SIGINT or SIGTERM.
func runServer(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := app.cfg
	logger := app.logger
	addr := cfg.Server.Addr()

	logger.Info("Starting server",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("maps_dir", app.maps.Dir()),
	)

	go app.hub.Run(ctx)
	go app.runSessionCleanup(ctx)

	handler := app.handler("http://" + addr)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("websocket", "ws://"+addr+"/ws?gameid=<gameid>"),
			zap.String("mcp", "http://"+addr+"/mcp"),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	var tunnelServer *http.Server
	if tunnelEnabled(cfg.Ngrok, logger) {
		tunnelServer = &http.Server{
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveNgrok(ctx, cfg.Ngrok, tunnelServer, logger); err != nil {
				logger.Error("Ngrok tunnel failed", zap.Error(err))
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case runErr = <-errCh:
		logger.Error("Server error", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}
	if tunnelServer != nil {
		if err := tunnelServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Ngrok server shutdown error", zap.Error(err))
		}
	}

	wg.Wait()
	logger.Info("Server stopped")
	return runErr
}

// tunnelEnabled reports whether an ngrok tunnel should start. A missing auth
// token only disables the tunnel; the local server still runs.
func tunnelEnabled(cfg appconfig.NgrokConfig, logger *zap.Logger) bool {
	if !cfg.Enabled {
		return false
	}
	if cfg.AuthToken == "" {
		logger.Warn("Ngrok enabled but no auth token provided (set NGROK_AUTHTOKEN or ngrok.authtoken)")
		return false
	}
	return true
}

// serveNgrok opens a tunnel and serves srv on it until srv is shut down.
func serveNgrok(ctx context.Context, cfg appconfig.NgrokConfig, srv *http.Server, logger *zap.Logger) error {
	var opts []ngrokConfig.HTTPEndpointOption
	if cfg.Domain != "" {
		opts = append(opts, ngrokConfig.WithDomain(cfg.Domain))
	}

	logger.Info("Starting ngrok tunnel", zap.String("domain", cfg.Domain))
	tun, err := ngrok.Listen(ctx,
		ngrokConfig.HTTPEndpoint(opts...),
		ngrok.WithAuthtoken(cfg.AuthToken),
	)
	if err != nil {
		return fmt.Errorf("failed to start ngrok tunnel: %w", err)
	}

	url := tun.URL()
	logger.Info("Ngrok tunnel established",
		zap.String("url", url),
		zap.String("mcp", url+"/mcp"),
	)

	// Serve closes tun on return
	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("Ngrok tunnel closed")
	return nil
}

// runStdioMCP serves MCP over stdin/stdout. Unless --api-url is given it
// starts an internal API on a random loopback port for the tools to call.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := app.logger
	baseURL := cmd.String("api-url")

	if baseURL == "" {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		go app.hub.Run(ctx)
		go app.runSessionCleanup(ctx)

		internal := &http.Server{Handler: app.handler(baseURL)}
		go func() {
			if err := internal.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Internal HTTP server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = internal.Shutdown(shutdownCtx)
		}()

		logger.Info("Internal HTTP server started for MCP stdio", zap.String("url", baseURL))
	} else {
		logger.Info("Using external maze API for MCP stdio", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL, Version, logger.Named("mcp"))
	logger.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
