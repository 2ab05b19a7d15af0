package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/beam-dev/beam/internal/beamapi"
	"github.com/beam-dev/beam/internal/config"
	"github.com/beam-dev/beam/internal/editor"
	"github.com/beam-dev/beam/internal/logging"
	"github.com/beam-dev/beam/internal/server"
	"github.com/beam-dev/beam/internal/session"
	"github.com/beam-dev/beam/internal/transport"
	"github.com/beam-dev/beam/internal/workspace"
)

var (
	servePort int
	serveDir  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Beam host server",
	Long: `Start the Beam host an editor connects to. The server exposes a JSON
API for session operations and an SSE stream of session events.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Working directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	// A server without logs is blind; override the silent default.
	logging.Init(logging.Config{
		Level:  logging.ParseLevel(logLevel),
		Output: os.Stderr,
		Pretty: printLogs,
	})
	log := logging.For("serve")

	workDir, err := GetWorkDir(serveDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}
	port := cfg.Port
	if servePort != 0 {
		port = servePort
	}
	if port == 0 {
		port = server.DefaultConfig().Port
	}

	ws := workspace.New(workDir)
	defer ws.Close()

	conn := transport.New()
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coord := session.NewCoordinator(
		conn.Host(),
		beamapi.NewClient(cfg.APIURL),
		ws,
		session.WithSurface(editor.NopSurface{}),
		session.WithAutoApply(cfg.AutoApplyChanges),
		session.WithMaxHistory(cfg.MaxMessageHistory),
	)
	if err := coord.Start(ctx); err != nil {
		return err
	}

	serverCfg := server.DefaultConfig()
	serverCfg.Port = port
	srv := server.New(serverCfg, coord, conn.UI())

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("version", Version).Int("port", port).Str("workDir", workDir).Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
