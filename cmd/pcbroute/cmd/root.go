package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

var (
	// Global flags
	verbose bool
	trace   bool
)

var rootCmd = &cobra.Command{
	Use:   "pcbroute",
	Short: "OpenTraceRoute - grid-based PCB autorouter for KiCad boards",
	Long: `OpenTraceRoute (pcbroute) routes the unconnected nets of a KiCad board
with an A* search on a layered grid, negotiating congestion between nets
until no two nets share copper.

Examples:
  pcbroute route board.kicad_pcb -o routes.kicad_sexp   # Route a board
  pcbroute route board.kicad_pcb --seed 1 --seed 2      # Keep the best of two trials
  pcbroute view board.kicad_pcb                         # Route and inspect interactively
  pcbroute serve --addr :8080                           # HTTP routing service`,
	Version: "0.3.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (per-net failures)")
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false, "log every search")
}

func setupLogging(w io.Writer) {
	lw := routing.LogWriters{Ops: w}
	if verbose || trace {
		lw.Diag = w
	}
	if trace {
		lw.Trace = w
	}
	routing.SetLogWriters(lw)
}
