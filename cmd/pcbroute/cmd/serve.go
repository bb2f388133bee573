package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRoute/internal/server"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

var (
	serveAddr    string
	serveTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the router over HTTP",
	Long: `Starts an HTTP service:

  GET  /healthz              liveness
  POST /api/v1/route         route a JSON problem
  POST /api/v1/route/kicad   route a .kicad_pcb body

A .env file in the working directory is loaded first. PCBROUTE_ADDR sets
the listen address when --addr is not given. Design rules and settings
flags apply to every request; a JSON request may carry its own settings.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addRouteFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $PCBROUTE_ADDR or :8080)")
	serveCmd.Flags().DurationVar(&serveTimeout, "request-timeout", 2*time.Minute, "routing time limit per request")
}

func runServe(c *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		routing.Opsf("no .env file found, using environment")
	}
	addr := serveAddr
	if addr == "" {
		addr = os.Getenv("PCBROUTE_ADDR")
	}
	if addr == "" {
		addr = ":8080"
	}

	base, settings, err := loadSettings(c)
	if err != nil {
		return err
	}
	if err := base.Validate(); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = server.New(base, settings, serveTimeout).ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
