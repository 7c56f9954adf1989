package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmichie/greenie/internal/server"
)

const shutdownTimeout = 15 * time.Second

var (
	serveHost string
	servePort int

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API serving /api/chat, chat history, /health and
/metrics. The server stops gracefully on SIGINT or SIGTERM.`,
		RunE: runServeCommand,
	}
)

// Version is reported by /health and the version command
var Version = "0.1.0"

// InitServeCommand registers the serve command
func InitServeCommand(rootCmd *cobra.Command) {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides server.host)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{console: true})
	if err != nil {
		return err
	}
	defer a.Close()

	serverCfg := a.cfg.Server
	if serveHost != "" {
		serverCfg.Host = serveHost
	}
	if servePort != 0 {
		serverCfg.Port = servePort
	}

	srv := server.New(serverCfg, a.pipeline,
		server.WithHistory(a.history),
		server.WithModelManager(a.gemini),
		server.WithMetrics(a.metrics),
		server.WithLogger(a.log.Component("server")),
		server.WithVersion(Version),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
