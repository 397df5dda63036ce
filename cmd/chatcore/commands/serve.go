package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chatcore-ai/chatcore/internal/config"
	"github.com/chatcore-ai/chatcore/internal/engine"
	"github.com/chatcore-ai/chatcore/internal/logging"
	"github.com/chatcore-ai/chatcore/internal/provider"
	"github.com/chatcore-ai/chatcore/internal/server"
	"github.com/chatcore-ai/chatcore/internal/session"
)

var (
	servePort int
	serveDir  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chatcore HTTP server",
	Long: `Start chatcore as a headless server that exposes the session API
over HTTP: SSE message streaming, session inspection and teardown, and
a lifecycle event feed.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Working directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Local .env keeps API keys out of shell profiles.
	_ = godotenv.Load()

	workDir, err := GetWorkDir(serveDir)
	if err != nil {
		return err
	}

	if err := config.GetPaths().EnsurePaths(); err != nil {
		return err
	}

	appConfig, err := config.Load(workDir)
	if err != nil {
		return err
	}

	// Flag wins over config for log level.
	level := appConfig.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logging.Init(logging.Config{Level: logging.ParseLevel(level)})

	logging.Info().
		Str("version", Version).
		Str("directory", workDir).
		Msg("starting chatcore server")

	ctx := context.Background()
	providerReg, err := provider.InitializeProviders(ctx, appConfig)
	if err != nil {
		return err
	}

	factory, err := buildEngineFactory(appConfig.Model, appConfig.MaxSteps, providerReg)
	if err != nil {
		return err
	}

	store := session.NewStore(session.Config{
		IdleTimeout:    time.Duration(appConfig.IdleTimeoutSeconds) * time.Second,
		ReaperInterval: time.Duration(appConfig.ReaperIntervalSeconds) * time.Second,
	}, factory, nil)

	serverConfig := server.DefaultConfig()
	serverConfig.Port = servePort

	srv := server.New(serverConfig, appConfig, store)

	go func() {
		logging.Info().Int("port", servePort).Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}

	store.Shutdown()

	logging.Info().Msg("server stopped")
	return nil
}

// buildEngineFactory resolves the configured "provider/model" pair and
// returns a factory producing one loop engine per session.
func buildEngineFactory(modelRef string, maxSteps int, reg *provider.Registry) (engine.Factory, error) {
	if modelRef == "" {
		return nil, fmt.Errorf("no model configured: set \"model\" to \"provider/model\"")
	}
	parts := strings.SplitN(modelRef, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid model %q: want \"provider/model\"", modelRef)
	}

	prov, err := reg.Get(parts[0])
	if err != nil {
		return nil, err
	}
	modelID := parts[1]

	tools := engine.NewToolRegistry()

	return engine.FactoryFunc(func() (engine.Engine, error) {
		return engine.NewLoopEngine(prov, modelID, tools, engine.LoopConfig{
			MaxSteps: maxSteps,
		}), nil
	}), nil
}
