// Command genial starts the Genial game server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, the
//     WebSocket endpoint and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server that proxies to a running API, or to
//     an internal one when none answers
//
// Settings come from the environment (GENIAL_*, NGROK_*), optionally loaded
// from a .env file; command line flags override them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/genial/api"
	"github.com/wricardo/genial/game/config"
	"github.com/wricardo/genial/game/names"
	"github.com/wricardo/genial/game/persistence"
	"github.com/wricardo/genial/game/service"
	"github.com/wricardo/genial/game/store"
	"github.com/wricardo/genial/transport/mcp"
	"github.com/wricardo/genial/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Genial Game Server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(runServer).Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newCommand builds the CLI. serve receives the resolved settings.
func newCommand(serve func(context.Context, config.Settings) error) *cli.Command {
	serveAction := func(ctx context.Context, cmd *cli.Command) error {
		settings, err := resolveSettings(cmd)
		if err != nil {
			return err
		}
		return serve(ctx, settings)
	}

	// Root flags are inherited by the subcommands
	return &cli.Command{
		Name:    "genial",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port"},
			&cli.StringFlag{Name: "storage", Usage: "persistence backend: sqlite, file or none"},
			&cli.StringFlag{Name: "db", Usage: "SQLite database path"},
			&cli.StringFlag{Name: "data-dir", Usage: "directory for file storage"},
			&cli.StringFlag{Name: "presets-dir", Usage: "directory of preset JSON files"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain"},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run HTTP server with API, WebSocket and MCP endpoint (default)",
				Action: serveAction,
			},
			{
				Name:  "mcp",
				Usage: "Run MCP stdio server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "REST API to proxy"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, err := resolveSettings(cmd)
					if err != nil {
						return err
					}
					return runStdioMCP(ctx, settings, cmd.String("api-url"))
				},
			},
		},
	}
}

// resolveSettings reads settings from the environment and applies the flags
// that were set explicitly
func resolveSettings(cmd *cli.Command) (config.Settings, error) {
	var s config.Settings
	if err := config.ParseEnv(&s); err != nil {
		return config.Settings{}, err
	}

	if cmd.IsSet("host") {
		s.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Port = cmd.Int("port")
	}
	if cmd.IsSet("storage") {
		s.Storage = cmd.String("storage")
	}
	if cmd.IsSet("db") {
		s.DBPath = cmd.String("db")
	}
	if cmd.IsSet("data-dir") {
		s.DataDir = cmd.String("data-dir")
	}
	if cmd.IsSet("presets-dir") {
		s.PresetsDir = cmd.String("presets-dir")
	}
	if cmd.IsSet("debug") {
		s.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		s.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-domain") {
		s.NgrokDomain = cmd.String("ngrok-domain")
	}

	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}

func openPersistence(s config.Settings) (persistence.Persistence, error) {
	switch s.Storage {
	case "sqlite":
		return persistence.Open(s.DBPath)
	case "file":
		return persistence.NewFileStore(s.DataDir)
	case "none":
		return persistence.Nop{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage %q", config.ErrInvalidConfig, s.Storage)
	}
}

// application holds the wired components of one server
type application struct {
	hub     *websocket.Hub
	service service.GameService
	persist persistence.Persistence
	handler http.Handler
}

// newApplication wires persistence, presets, the hub, the game service and
// the HTTP routes. mcpBaseURL is where the /mcp tools send their requests.
func newApplication(ctx context.Context, s config.Settings, mcpBaseURL string) (*application, error) {
	persist, err := openPersistence(s)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", s.Storage, err)
	}

	presets, err := config.NewManager(s.PresetsDir)
	if err != nil {
		persist.Close()
		return nil, fmt.Errorf("failed to create preset manager: %w", err)
	}

	hub := websocket.NewHub(
		websocket.WithHeartbeat(s.HeartbeatInterval, s.ClientTimeout),
		websocket.WithSweepInterval(s.SweepInterval),
		websocket.WithMailboxSize(s.MailboxSize),
	)

	gameService := service.NewGameService(store.New(), hub,
		service.WithPersistence(persist),
		service.WithPresets(presets),
		service.WithNameGenerator(names.Generate),
	)
	hub.SetHandler(gameService)

	if err := gameService.Restore(ctx); err != nil {
		log.Printf("Warning: Failed to restore persisted games: %v", err)
	}

	apiServer := api.NewServer(gameService, hub, api.WithPresets(presets))
	apiServer.Router().Handle("/mcp", mcpHandler(mcp.NewClient(mcpBaseURL))).Methods("POST")

	return &application{
		hub:     hub,
		service: gameService,
		persist: persist,
		handler: apiServer,
	}, nil
}

func (a *application) Close() {
	a.service.Close()
	if err := a.persist.Close(); err != nil {
		log.Printf("Failed to close storage: %v", err)
	}
}

func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

func setupLogging(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

// runServer serves HTTP, sweeps the hub and optionally runs the ngrok
// tunnel until ctx is cancelled or one of them fails
func runServer(ctx context.Context, s config.Settings) error {
	setupLogging(s.Debug)
	log.Printf("Starting %s v%s", AppName, Version)

	addr := s.Addr()
	app, err := newApplication(ctx, s, "http://"+addr)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer app.Close()

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     app.handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.hub.Run(gctx)
	})

	g.Go(func() error {
		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws/<player_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if s.NgrokEnabled {
		g.Go(func() error {
			return runNgrok(gctx, s, app.handler)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		return nil
	})

	err = g.Wait()
	log.Println("Server stopped")
	return err
}

// runNgrok exposes handler through an ngrok tunnel. Tunnel failures are
// logged and do not stop the local server.
func runNgrok(ctx context.Context, s config.Settings, handler http.Handler) error {
	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if s.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(s.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", s.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(s.NgrokAuthToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return nil
	}

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws/<player_id>", strings.Replace(ngrokURL, "https://", "wss://", 1))
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
	return nil
}

// apiAvailable reports whether an API server answers health checks at baseURL
func apiAvailable(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// runStdioMCP runs an MCP stdio server. It proxies to apiURL when that API
// answers; otherwise it starts an internal API on a loopback port.
func runStdioMCP(ctx context.Context, s config.Settings, apiURL string) error {
	// stdout carries the protocol
	log.SetOutput(os.Stderr)
	setupLogging(s.Debug)

	baseURL := apiURL
	log.Printf("Checking for external API server at %s...", apiURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	if apiAvailable(testClient, apiURL) {
		log.Printf("External API server found at %s, using it for MCP", apiURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		app, err := newApplication(ctx, s, baseURL)
		if err != nil {
			listener.Close()
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer app.Close()

		internal := &http.Server{Handler: app.handler}
		go app.hub.Run(ctx)
		go func() {
			if err := internal.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer internal.Close()

		log.Printf("Internal HTTP server on %s", baseURL)
	}

	client := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")
	return server.ServeStdio(client.GetMCPServer())
}
